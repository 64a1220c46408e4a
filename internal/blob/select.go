package blob

import "context"

// Selection picks between the local filesystem and S3-compatible backends,
// mirroring storage.py's USE_S3_STORAGE env-driven backend choice.
type Selection struct {
	UseS3   bool
	LocalDir string
	S3       S3Config
}

// New builds the configured Store. This is the only function in the
// repository allowed to reference either backend's constructor directly —
// every caller upstream of it depends only on the Store interface.
func New(ctx context.Context, sel Selection) (Store, error) {
	if sel.UseS3 {
		return NewS3Store(ctx, sel.S3)
	}
	return NewLocalStore(sel.LocalDir), nil
}
