package main

import (
	"testing"
	"time"

	"github.com/quietkey/pttd/internal/modelcache"
)

type fakeDownloader struct {
	data []byte
	err  error
}

func (f *fakeDownloader) Download(string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func TestModelServiceGetModelStatusesDefaultsNotDownloaded(t *testing.T) {
	svc := NewModelService(t.TempDir())
	statuses := svc.GetModelStatuses()

	for _, id := range []string{"tiny", "base", "small", "medium", "large"} {
		if statuses[id] != "not_downloaded" {
			t.Errorf("statuses[%q] = %q, want not_downloaded", id, statuses[id])
		}
	}
}

func TestModelServiceModelPathRegistersCustomSpec(t *testing.T) {
	svc := NewModelService(t.TempDir())
	path := svc.ModelPath("my-custom-model")
	if path == "" {
		t.Fatal("ModelPath() = \"\", want a resolved path for a newly-registered custom model")
	}
}

func TestModelServiceDownloadModelUpdatesStatus(t *testing.T) {
	root := t.TempDir()
	svc := NewModelService(root)
	svc.downloader = &fakeDownloader{data: make([]byte, 1)}

	if err := svc.DownloadModel("tiny"); err != nil {
		t.Fatalf("DownloadModel: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if svc.statusFor(modelcache.Tiny) == "downloaded" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("model never reached downloaded status")
}
