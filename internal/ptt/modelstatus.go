package ptt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// InstallStatus is the lifecycle state of one entry in a
// model-download-status payload.
type InstallStatus string

const (
	StatusReady       InstallStatus = "ready"
	StatusDownloading InstallStatus = "downloading"
	StatusQueued      InstallStatus = "queued"
	StatusPending     InstallStatus = "pending"
	StatusFailed      InstallStatus = "failed"
)

// ModelStatusItem describes one model's install state for the UI.
type ModelStatusItem struct {
	ID               string
	Name             string
	Status           InstallStatus
	TotalBytes       int64
	DownloadedBytes  int64
	SpeedBytesPerSec int64
	EtaSeconds       int64
	Progress         float64
	Active           bool
}

// ModelStatusPayload is the full snapshot published on
// "model-download-status".
type ModelStatusPayload struct {
	Models      []ModelStatusItem
	ActiveModel string
	QueueCount  int
}

var standardModelIDs = []string{"tiny", "base", "small", "medium", "large"}

// overrideStore tracks a transient Downloading/Failed status per
// model key, set by the runtime around a transcription attempt and
// cleared on success. It supersedes the filesystem-derived status
// (Ready/Pending) for as long as an override is present.
type overrideStore struct {
	mu        sync.Mutex
	overrides map[string]InstallStatus
}

func newOverrideStore() *overrideStore {
	return &overrideStore{overrides: make(map[string]InstallStatus)}
}

func (s *overrideStore) set(key string, status InstallStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[key] = status
}

func (s *overrideStore) clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, key)
}

func (s *overrideStore) snapshot() map[string]InstallStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]InstallStatus, len(s.overrides))
	for k, v := range s.overrides {
		out[k] = v
	}
	return out
}

// buildModelStatusPayload lists the five standard models plus, if
// active names something else, one synthesized entry for it. Status
// is derived from file presence under root (Ready/Pending) unless an
// override says otherwise.
func buildModelStatusPayload(root string, active string, overrides map[string]InstallStatus) ModelStatusPayload {
	items := make([]ModelStatusItem, 0, len(standardModelIDs)+1)

	for _, id := range standardModelIDs {
		filename := fmt.Sprintf("ggml-%s.bin", id)
		items = append(items, statusItem(root, id, filename, id == active, overrides))
	}

	if active != "" {
		found := false
		for _, item := range items {
			if item.ID == active {
				found = true
				break
			}
		}
		if !found {
			items = append(items, statusItem(root, active, active+".bin", true, overrides))
		}
	}

	queueCount := 0
	for _, item := range items {
		switch item.Status {
		case StatusDownloading, StatusQueued, StatusPending:
			queueCount++
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	return ModelStatusPayload{Models: items, ActiveModel: active, QueueCount: queueCount}
}

func statusItem(root, id, filename string, active bool, overrides map[string]InstallStatus) ModelStatusItem {
	status := StatusPending
	if _, err := os.Stat(filepath.Join(root, filename)); err == nil {
		status = StatusReady
	}
	if override, ok := overrides[id]; ok {
		status = override
	}

	progress := 0.0
	if status == StatusReady {
		progress = 100.0
	}

	return ModelStatusItem{
		ID:       id,
		Name:     id,
		Status:   status,
		Progress: progress,
		Active:   active,
	}
}
