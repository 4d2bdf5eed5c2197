// Package registry holds the set of authorized identities, loaded once
// at startup from a directory of labeled face images and read-only
// afterwards.
package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AymenENSI/Secure-Entry/internal/vision"
)

// Encoder extracts face embeddings from raw image bytes.
type Encoder interface {
	Encode(imageData []byte) ([][]float32, error)
}

// Identity is one authorized person: the label of the source image file
// and the embedding of the face it contains.
type Identity struct {
	Name      string
	Embedding []float32
}

type Registry struct {
	identities []Identity
}

func New() *Registry {
	return &Registry{}
}

// Add appends an identity. Load order matters: Match returns the first
// identity within tolerance, so earlier entries win ties.
func (r *Registry) Add(name string, embedding []float32) {
	r.identities = append(r.identities, Identity{Name: name, Embedding: embedding})
}

// Len returns the number of registered identities.
func (r *Registry) Len() int {
	return len(r.identities)
}

// Match compares the probe against every registered embedding in load
// order and returns the first identity whose distance is within
// tolerance. Ties are broken by load order, not by best distance.
func (r *Registry) Match(embedding []float32, tolerance float64) (Identity, bool) {
	for _, id := range r.identities {
		if vision.Distance(id.Embedding, embedding) <= tolerance {
			return id, true
		}
	}
	return Identity{}, false
}

// Load reads every labeled image in dir and registers the first
// detected face under the file's base name. Files without a detectable
// face are skipped with a warning. An unreadable directory is fatal.
func Load(dir string, enc Encoder) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read registry dir %s: %w", dir, err)
	}

	r := New()
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("read registry image", "path", path, "error", err)
			continue
		}

		embeddings, err := enc.Encode(data)
		if err != nil {
			slog.Warn("encode registry image", "path", path, "error", err)
			continue
		}
		if len(embeddings) == 0 {
			slog.Warn("no face found in registry image", "path", path)
			continue
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		r.Add(name, embeddings[0])
		slog.Info("loaded identity", "name", name)
	}

	slog.Info("identity registry loaded", "identities", r.Len())
	return r, nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
