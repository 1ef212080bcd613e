// Package store caches compiled artifacts and persists them in shared
// backends. Artifacts are keyed by everything that determines the output of
// the compiler: the environment fingerprint, the source text and the
// parameter names. Backends hold the CBOR form of an artifact.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"

	"github.com/deepnoodle-ai/gscript/bytecode"
)

// ErrNotFound is returned by a Backend when no artifact is stored under a
// key.
var ErrNotFound = errors.New("store: artifact not found")

// Entry is a stored artifact.
type Entry struct {
	Key string

	// Revision identifies one Put of the artifact. Replacing an artifact
	// produces a new revision.
	Revision uuid.UUID

	Blocks  *bytecode.ScriptBlocks
	Created time.Time
}

// Backend persists artifacts.
type Backend interface {
	// Get returns the artifact stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put stores the artifact under key, replacing any previous revision.
	Put(ctx context.Context, key string, blocks *bytecode.ScriptBlocks) (*Entry, error)
}

// Key returns the cache key of a compilation.
func Key(fingerprint, source string, params []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "env %s\n", fingerprint)
	fmt.Fprintf(h, "params %s\n", strings.Join(params, ","))
	fmt.Fprintf(h, "source %d\n", len(source))
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

func newEntry(key string, blocks *bytecode.ScriptBlocks) (*Entry, []byte, error) {
	revision, err := uuid.NewV4()
	if err != nil {
		return nil, nil, fmt.Errorf("store: revision: %w", err)
	}
	data, err := bytecode.Encode(blocks)
	if err != nil {
		return nil, nil, fmt.Errorf("store: encode %s: %w", short(key), err)
	}
	entry := &Entry{
		Key:      key,
		Revision: revision,
		Blocks:   blocks,
		Created:  time.Now().UTC(),
	}
	return entry, data, nil
}

func decodeEntry(key, revision string, data []byte, created time.Time) (*Entry, error) {
	rev, err := uuid.FromString(revision)
	if err != nil {
		return nil, fmt.Errorf("store: %s: bad revision %q: %w", short(key), revision, err)
	}
	blocks, err := bytecode.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", short(key), err)
	}
	return &Entry{Key: key, Revision: rev, Blocks: blocks, Created: created.UTC()}, nil
}

// short abbreviates a key for messages.
func short(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
