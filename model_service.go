package main

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/quietkey/pttd/internal/modelcache"
)

// ModelService is the app-shell wrapper around internal/modelcache: it adds
// explicit user-triggered downloads (distinct from the PTT runtime's
// implicit ensure-cached-on-first-use) and publishes the
// "model-download-status" event the frontend polls the UI off of.
type ModelService struct {
	root       string
	registry   *modelcache.Registry
	manager    *modelcache.Manager
	downloader modelcache.Downloader

	mu       sync.Mutex
	ctx      context.Context
	statuses map[string]string // modelcache.ID.Key() -> "downloading"|"failed" overrides; absent means derive from disk
}

// NewModelService returns a ModelService rooted at the standard model cache
// directory, seeded with the standard tiny/base/small/medium/large registry.
func NewModelService(root string) *ModelService {
	registry := modelcache.NewRegistry(modelcache.StandardRegistry())
	return &ModelService{
		root:       root,
		registry:   registry,
		manager:    modelcache.NewManager(root, registry),
		downloader: modelcache.NewHTTPDownloader(),
		statuses:   make(map[string]string),
	}
}

// SetContext gives the service the Wails runtime context needed to emit
// events; called once from App.startup.
func (s *ModelService) SetContext(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

// Manager exposes the underlying cache manager, e.g. to build a
// ptt.TranscriberFactory.
func (s *ModelService) Manager() *modelcache.Manager { return s.manager }

// Downloader exposes the shared HTTP downloader.
func (s *ModelService) Downloader() modelcache.Downloader { return s.downloader }

// ModelPath resolves the cache path for a model name, registering a custom
// spec for it first if it isn't one of the standard sizes.
func (s *ModelService) ModelPath(name string) string {
	id := modelcache.ParseID(name)
	if _, ok := s.registry.Lookup(id); !ok {
		s.registry.Register(modelcache.CustomSpec(s.root, id.DisplayName()))
	}
	path, err := s.manager.ModelPath(id)
	if err != nil {
		return ""
	}
	return path
}

// DownloadModel starts a background download of the named model,
// publishing progress via "model-download-status" on completion/failure.
func (s *ModelService) DownloadModel(name string) error {
	id := modelcache.ParseID(name)
	if _, ok := s.registry.Lookup(id); !ok {
		s.registry.Register(modelcache.CustomSpec(s.root, id.DisplayName()))
	}

	s.setStatus(id.Key(), "downloading")
	s.publish()

	go func() {
		if _, err := s.manager.EnsureCached(id, s.downloader); err != nil {
			log.Warn("model: download failed", "model", name, "err", err)
			s.setStatus(id.Key(), "failed")
		} else {
			// Drop the transient override so statusFor falls through to the
			// verified file on disk and reports "downloaded".
			s.clearStatus(id.Key())
		}
		s.publish()
	}()
	return nil
}

// GetModelStatuses returns the download status of each known model: one of
// "downloaded", "not_downloaded", "downloading", or "failed".
func (s *ModelService) GetModelStatuses() map[string]string {
	out := make(map[string]string)
	for _, id := range []modelcache.ID{modelcache.Tiny, modelcache.Base, modelcache.Small, modelcache.Medium, modelcache.Large} {
		out[id.Key()] = s.statusFor(id)
	}
	return out
}

func (s *ModelService) statusFor(id modelcache.ID) string {
	s.mu.Lock()
	override, ok := s.statuses[id.Key()]
	s.mu.Unlock()
	if ok {
		return override
	}
	if _, err := s.manager.EnsureAvailable(id); err == nil {
		return "downloaded"
	}
	return "not_downloaded"
}

func (s *ModelService) setStatus(key, status string) {
	s.mu.Lock()
	s.statuses[key] = status
	s.mu.Unlock()
}

func (s *ModelService) clearStatus(key string) {
	s.mu.Lock()
	delete(s.statuses, key)
	s.mu.Unlock()
}

func (s *ModelService) publish() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		return
	}
	runtime.EventsEmit(ctx, "model-download-status", s.GetModelStatuses())
}
