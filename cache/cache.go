// Package cache persists serialized source files on disk, keyed by the
// sha256 of their content. The editor reopens files through the cache to
// skip re-serialization of unchanged documents; a miss is never an error,
// the caller just serializes again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/tliron/commonlog"

	"github.com/marblelang/marble/source"
	"github.com/marblelang/marble/srcfile"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cache: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// record is the on-disk form of one cached file.
type record struct {
	Content  string  `cbor:"content"`
	Code     spanRec `cbor:"code"`
	IdMap    spanRec `cbor:"idmap"`
	Metadata spanRec `cbor:"metadata"`
}

type spanRec struct {
	Index int `cbor:"index"`
	Size  int `cbor:"size"`
}

func toSpanRec(s source.Span) spanRec { return spanRec{Index: s.Index, Size: s.Size} }

func (r spanRec) span() source.Span { return source.NewSpan(r.Index, r.Size) }

// Store is a content-addressed cache directory. It is safe for concurrent
// readers; writers of the same key race benignly because both write the
// same bytes.
type Store struct {
	dir string
	log commonlog.Logger
}

// NewStore opens (creating if needed) a cache directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create %s: %w", dir, err)
	}
	return &Store{
		dir: dir,
		log: commonlog.GetLogger("marble.cache"),
	}, nil
}

// Key returns the cache key for a content blob.
func Key(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".cbor")
}

// Put stores a serialized file under its content hash.
func (s *Store) Put(ser *srcfile.Serialized) error {
	rec := record{
		Content:  ser.Content,
		Code:     toSpanRec(ser.Code),
		IdMap:    toSpanRec(ser.IdMap),
		Metadata: toSpanRec(ser.Metadata),
	}
	data, err := cborEncMode.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("cache: marshal record: %w", err)
	}

	key := Key(ser.Content)
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	s.log.Debugf("stored %s (%d bytes)", key, len(data))
	return nil
}

// Get looks a content blob up by hash. The second result is false on a
// miss; a record that fails to decode or does not match its key counts as
// a miss, not an error, and is evicted.
func (s *Store) Get(content string) (*srcfile.Serialized, bool, error) {
	key := Key(content)
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache: read %s: %w", key, err)
	}

	var rec record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		s.log.Errorf("corrupt record %s: %v", key, err)
		return nil, false, s.Evict(content)
	}
	if rec.Content != content {
		s.log.Errorf("record %s does not match its key", key)
		return nil, false, s.Evict(content)
	}

	s.log.Debugf("hit %s", key)
	return &srcfile.Serialized{
		Content:  rec.Content,
		Code:     rec.Code.span(),
		IdMap:    rec.IdMap.span(),
		Metadata: rec.Metadata.span(),
	}, true, nil
}

// Evict removes the record for a content blob, if present.
func (s *Store) Evict(content string) error {
	err := os.Remove(s.path(Key(content)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache: evict: %w", err)
	}
	return nil
}
