// Package modelcache is a content-verified cache of whisper.cpp model
// files: presence of a blob whose size and SHA-256 match its spec is
// treated as authoritative, so a corrupt or partial download is
// indistinguishable from a missing one and triggers a re-download.
package modelcache

import (
	"fmt"
	"strings"
)

// ID names one of the standard model sizes, or a user-supplied custom
// model by name.
type ID struct {
	kind string
	name string
}

var (
	Tiny   = ID{kind: "tiny"}
	Base   = ID{kind: "base"}
	Small  = ID{kind: "small"}
	Medium = ID{kind: "medium"}
	Large  = ID{kind: "large"}
)

// Custom returns the ID for a user-supplied model named name.
func Custom(name string) ID {
	return ID{kind: "custom", name: name}
}

// Key returns a stable string form suitable for registry lookups and
// status payloads.
func (id ID) Key() string {
	if id.kind == "custom" {
		return "custom:" + id.name
	}
	return id.kind
}

func (id ID) String() string { return id.Key() }

// DisplayName returns the standard model's size name, or the custom
// model's own name.
func (id ID) DisplayName() string {
	if id.kind == "custom" {
		return id.name
	}
	return id.kind
}

// ParseID maps a model name from user input (case-insensitive) to its
// ID: one of the five standard sizes, or Custom(name) otherwise. An
// empty name resolves to Base, the default active model.
func ParseID(name string) ID {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "base":
		return Base
	case "tiny":
		return Tiny
	case "small":
		return Small
	case "medium":
		return Medium
	case "large":
		return Large
	default:
		return Custom(name)
	}
}

// Spec is the registered descriptor of a model blob: its filename
// relative to the cache root, where to download it from, and the
// size/digest used to verify a cached copy.
type Spec struct {
	ID          ID
	Filename    string
	DownloadURL string
	SHA256      string // hex, compared case-insensitively; empty skips the check
	SizeBytes   int64  // 0 skips the check
}

// Error kinds returned by cache operations. These are internal
// contract bugs when they name an unregistered ID or unsafe filename,
// and user-visible conditions when they name a missing, oversized, or
// corrupt blob.
var (
	ErrModelUnregistered = fmt.Errorf("model manager: model id not registered")
	ErrInvalidFilename   = fmt.Errorf("model manager: invalid filename")
	ErrMissingDownloadURL = fmt.Errorf("model manager: spec has no download url")
)

// MissingFileError reports that a model's blob does not exist yet.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("model manager: missing file %s", e.Path)
}

// SizeMismatchError reports that a cached blob's size does not match
// its spec.
type SizeMismatchError struct {
	Path string
	Got  int64
	Want int64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("model manager: %s size mismatch: got %d want %d", e.Path, e.Got, e.Want)
}

// ChecksumMismatchError reports that a cached blob's SHA-256 does not
// match its spec.
type ChecksumMismatchError struct {
	Path string
	Got  string
	Want string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("model manager: %s checksum mismatch: got %s want %s", e.Path, e.Got, e.Want)
}

// DownloadFailedError wraps a downloader failure.
type DownloadFailedError struct {
	Err error
}

func (e *DownloadFailedError) Error() string {
	return fmt.Sprintf("model manager: download failed: %s", e.Err)
}

func (e *DownloadFailedError) Unwrap() error { return e.Err }
