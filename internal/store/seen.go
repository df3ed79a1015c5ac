package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"marketbot/internal/model"
)

// Key computes the deterministic identity fingerprint of a record:
// lower-cased subject, upper-cased ticker, exact date string, exact
// value/amount string. Two records for the same real-world event must
// normalize to the same key across runs.
func Key(r model.Record) string {
	return strings.ToLower(strings.TrimSpace(r.Subject)) + "|" +
		strings.ToUpper(strings.TrimSpace(r.Ticker)) + "|" +
		strings.TrimSpace(r.OccurredOn) + "|" +
		strings.TrimSpace(r.AmountField())
}

// SeenStore is the file-backed set of already-notified identity keys. It is
// the single source of truth for "already notified": single-writer,
// loaded at the start of a run, mutated during classification, written
// back only after a successful run.
type SeenStore struct {
	path    string
	maxKeys int
	keys    map[string]struct{}
}

// Open loads the persisted key set. A missing or corrupt file is an empty
// store, never an error; it gets overwritten on the next successful save.
func Open(path string, maxKeys int) *SeenStore {
	if maxKeys <= 0 {
		maxKeys = 500
	}
	s := &SeenStore{path: path, maxKeys: maxKeys, keys: make(map[string]struct{})}
	b, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return s
	}
	for _, k := range list {
		s.keys[k] = struct{}{}
	}
	return s
}

func (s *SeenStore) Len() int { return len(s.keys) }

// Seen reports whether a record's key is already in the store.
func (s *SeenStore) Seen(r model.Record) bool {
	_, ok := s.keys[Key(r)]
	return ok
}

// FilterNew partitions records into new and already-seen. New keys are
// inserted immediately, so duplicates within the same batch are caught
// too. Returns the new records in input order and the duplicate count.
func (s *SeenStore) FilterNew(records []model.Record) ([]model.Record, int) {
	fresh := make([]model.Record, 0, len(records))
	dupes := 0
	for _, r := range records {
		k := Key(r)
		if _, ok := s.keys[k]; ok {
			dupes++
			continue
		}
		s.keys[k] = struct{}{}
		fresh = append(fresh, r)
	}
	return fresh, dupes
}

// Save persists the key set, truncated to the lexically-greatest maxKeys
// entries (keys carry no timestamp, so lexical order is the stable
// eviction proxy). The write goes through a temp file and rename so a
// crashed save never leaves a half-written store.
func (s *SeenStore) Save() error {
	list := make([]string, 0, len(s.keys))
	for k := range s.keys {
		list = append(list, k)
	}
	sort.Strings(list)
	if len(list) > s.maxKeys {
		list = list[len(list)-s.maxKeys:]
	}
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
