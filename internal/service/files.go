package service

import (
	"github.com/dom/worknest/internal/logger"
	"github.com/dom/worknest/internal/storage"
)

// fileReaper removes attachment blobs after their records are gone. A file
// that cannot be removed is logged and left behind; the records are already
// committed.
type fileReaper struct {
	store storage.Store
}

func (r *fileReaper) remove(keys ...string) {
	for _, key := range keys {
		if err := r.store.Delete(key); err != nil {
			logger.Warn().Err(err).Str("storage_key", key).Msg("failed to remove attachment file")
		}
	}
}
