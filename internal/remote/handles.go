package remote

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	// How long a handed-out track handle stays resolvable. Clients holding
	// a handle longer than this get an invalid-handle error and should
	// refresh their tracklist.
	handleTTL             = 30 * time.Minute
	handleCleanupInterval = 10 * time.Minute
)

// handleTable maps opaque hex handles to host track IDs. Handles are what
// the tla command prints and the pa command consumes; they are random
// values, never host pointers, and expire so a stale handle can always be
// detected instead of dereferenced blindly.
type handleTable struct {
	byHandle *cache.Cache
	byTrack  *cache.Cache
}

func newHandleTable() *handleTable {
	return &handleTable{
		byHandle: cache.New(handleTTL, handleCleanupInterval),
		byTrack:  cache.New(handleTTL, handleCleanupInterval),
	}
}

// HandleFor returns the handle for a track ID, minting one on first use.
// Repeated calls within the TTL return the same handle so a client can
// correlate successive tracklists.
func (h *handleTable) HandleFor(trackID string) string {
	if handle, ok := h.byTrack.Get(trackID); ok {
		return handle.(string)
	}

	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	handle := hex.EncodeToString(buf)

	h.byHandle.Set(handle, trackID, cache.DefaultExpiration)
	h.byTrack.Set(trackID, handle, cache.DefaultExpiration)
	return handle
}

// Resolve maps a handle back to its track ID. ok is false for unknown or
// expired handles.
func (h *handleTable) Resolve(handle string) (trackID string, ok bool) {
	v, ok := h.byHandle.Get(handle)
	if !ok {
		return "", false
	}
	return v.(string), true
}
