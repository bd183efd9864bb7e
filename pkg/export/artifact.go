package export

import (
	"sync"

	"github.com/menta2k/circle-crop/pkg/transform"
)

// Artifact is one finished export: encoded bytes plus the framing they were
// produced with. Byte access goes through methods so a released artifact
// cannot leak stale pixel data back into the app.
type Artifact struct {
	// Format is the encoded container: png, jpg, webp, svg or avi.
	Format string
	// Name is the suggested download filename.
	Name string
	// Transform snapshots the framing the artifact was rendered with.
	Transform transform.State
	// IsVideo marks artifacts derived from animated media.
	IsVideo bool
	// BackgroundRemoved marks artifacts whose bytes were replaced by the
	// background-removal service.
	BackgroundRemoved bool

	mu       sync.Mutex
	data     []byte
	released bool
}

// NewArtifact wraps encoded bytes with their framing metadata.
func NewArtifact(data []byte, format, name string, st transform.State, isVideo bool) *Artifact {
	return &Artifact{
		Format:    format,
		Name:      name,
		Transform: st,
		IsVideo:   isVideo,
		data:      data,
	}
}

// Bytes returns the encoded payload, or nil once the artifact is released.
func (a *Artifact) Bytes() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data
}

// Size returns the payload length in bytes.
func (a *Artifact) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.data)
}

// ReplaceBytes swaps the payload in place. It is the only mutation an
// artifact supports after creation and is ignored once released.
func (a *Artifact) ReplaceBytes(data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return
	}
	a.data = data
}

// Release drops the payload so the memory can be collected. Releasing twice
// is a no-op.
func (a *Artifact) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = nil
	a.released = true
}

// Released reports whether Release has been called.
func (a *Artifact) Released() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}
