package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

const (
	// manifestFile is the manifest's name inside the store directory.
	manifestFile = "manifest.json"

	// manifestVersion is the directory layout version this build writes
	// and accepts.
	manifestVersion = 1
)

// Manifest identifies a store directory. It is written once when the
// directory is initialized and read back on every open.
type Manifest struct {
	// StoreID uniquely identifies this store for its whole lifetime.
	// Archive object keys embed it, so uploads from different stores
	// sharing a bucket never collide.
	StoreID string `json:"store_id"`

	// FormatVersion is the on-disk layout version.
	FormatVersion int `json:"format_version"`

	// CreatedAt is when the store was first initialized.
	CreatedAt time.Time `json:"created_at"`

	// MaxBlobSize records the per-blob byte ceiling the store was created
	// with. Reopening with a different ceiling is permitted but logged,
	// since it changes which existing blobs count as sealed.
	MaxBlobSize uint64 `json:"max_blob_size"`
}

// loadOrCreateManifest reads the manifest at path, initializing a fresh one
// when the store directory is new.
func loadOrCreateManifest(path string, maxBlobSize uint64) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return Manifest{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if m.FormatVersion != manifestVersion {
			return Manifest{}, fmt.Errorf("store format version %d not supported (want %d)",
				m.FormatVersion, manifestVersion)
		}
		return m, nil
	}
	if !os.IsNotExist(err) {
		return Manifest{}, fmt.Errorf("read %s: %w", path, err)
	}

	m := Manifest{
		StoreID:       uuid.NewString(),
		FormatVersion: manifestVersion,
		CreatedAt:     time.Now().UTC(),
		MaxBlobSize:   maxBlobSize,
	}

	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Manifest{}, fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return Manifest{}, fmt.Errorf("write %s: %w", path, err)
	}

	return m, nil
}
