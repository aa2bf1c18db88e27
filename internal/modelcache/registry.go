package modelcache

import "fmt"

const huggingFaceBase = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// StandardRegistry returns the built-in tiny/base/small/medium/large
// specs, each a ggml-<id>.bin downloaded from the official whisper.cpp
// model repository.
func StandardRegistry() map[string]Spec {
	registry := make(map[string]Spec)
	for _, id := range []ID{Tiny, Base, Small, Medium, Large} {
		filename := fmt.Sprintf("ggml-%s.bin", id.kind)
		registry[id.Key()] = Spec{
			ID:          id,
			Filename:    filename,
			DownloadURL: huggingFaceBase + filename,
		}
	}
	return registry
}

// CustomSpec builds the spec for a user-supplied model file living
// directly in the cache root: X → X.bin, downloaded from
// file://<root>/X.bin (i.e. a self-copy — see Manager's file:// handling).
func CustomSpec(root, name string) Spec {
	filename := name + ".bin"
	return Spec{
		ID:          Custom(name),
		Filename:    filename,
		DownloadURL: "file://" + root + "/" + filename,
	}
}

// Registry is an in-memory ID → Spec table.
type Registry struct {
	specs map[string]Spec
}

// NewRegistry returns a Registry seeded with entries.
func NewRegistry(entries map[string]Spec) *Registry {
	specs := make(map[string]Spec, len(entries))
	for k, v := range entries {
		specs[k] = v
	}
	return &Registry{specs: specs}
}

// Register adds or replaces spec under its own ID.
func (r *Registry) Register(spec Spec) {
	r.specs[spec.ID.Key()] = spec
}

// Lookup returns the spec registered for id.
func (r *Registry) Lookup(id ID) (Spec, bool) {
	spec, ok := r.specs[id.Key()]
	return spec, ok
}
