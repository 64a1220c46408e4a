// Package blob exposes the Blob Store as the narrow two/three-method
// interface spec §9's REDESIGN FLAG calls for (save_json, load_json,
// exists) — no other package in this repository imports a storage library
// directly. Grounded on original_source/common/storage.py.
package blob

import "context"

// Store is the Blob Store interface. Both backends (local filesystem, S3)
// implement it identically.
type Store interface {
	SaveJSON(ctx context.Context, name string, data []byte) error
	LoadJSON(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
}
