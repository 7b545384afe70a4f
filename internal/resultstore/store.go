// Package resultstore persists TestRun records as one JSON file per run,
// independent of session memory, so reports survive session recycling
// and process restarts.
package resultstore

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"intentguard/internal/safeio"
	"intentguard/internal/testrun"
	"intentguard/internal/util/jsonutil"
)

// Store writes runs under a single directory, filename <testId>.json.
// I/O failures are logged and reported as booleans; they never propagate
// past this boundary.
type Store struct {
	root   *safeio.Dir
	mirror Mirror
}

// Mirror receives a best-effort copy of every saved run. Failures are
// logged and swallowed.
type Mirror interface {
	Put(ctx context.Context, testID string, data []byte) error
}

// New creates the results directory if needed. mirror may be nil.
func New(dir string, mirror Mirror) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = filepath.Join("data", "test-results")
	}
	root, err := safeio.NewDir(dir)
	if err != nil {
		return nil, err
	}
	return &Store{root: root, mirror: mirror}, nil
}

// Dir returns the directory backing this store.
func (s *Store) Dir() string { return s.root.Path() }

// Save serializes the run to disk, overwriting any previous file for the
// same ID. Returns false on failure.
func (s *Store) Save(testID string, run *testrun.TestRun) bool {
	if s == nil || run == nil || strings.TrimSpace(testID) == "" {
		return false
	}
	data, err := jsonutil.MarshalNoEscapeIndent(run, "", "  ")
	if err != nil {
		log.Printf("[ResultStore] marshal %s: %v", testID, err)
		return false
	}
	if err := s.root.WriteFile(testID+".json", data, 0o644); err != nil {
		log.Printf("[ResultStore] write %s: %v", testID, err)
		return false
	}
	if s.mirror != nil {
		if err := s.mirror.Put(context.Background(), testID, data); err != nil {
			log.Printf("[ResultStore] mirror %s: %v", testID, err)
		}
	}
	return true
}

// Get loads a run by ID. A missing or unreadable file is "not found";
// IDs that are not plain file names never reach the filesystem.
func (s *Store) Get(testID string) (*testrun.TestRun, bool) {
	if s == nil || strings.TrimSpace(testID) == "" {
		return nil, false
	}
	data, err := s.root.ReadFile(testID + ".json")
	if err != nil {
		if errors.Is(err, safeio.ErrBadName) {
			log.Printf("[ResultStore] rejected id %q", testID)
		} else if !os.IsNotExist(err) {
			log.Printf("[ResultStore] read %s: %v", testID, err)
		}
		return nil, false
	}
	var run testrun.TestRun
	if err := json.Unmarshal(data, &run); err != nil {
		log.Printf("[ResultStore] decode %s: %v", testID, err)
		return nil, false
	}
	return &run, true
}

// List returns all stored run IDs in lexicographic order. IDs embed a
// fixed-width millisecond timestamp, so this is also chronological order.
func (s *Store) List() []string {
	if s == nil {
		return nil
	}
	entries, err := s.root.Entries()
	if err != nil {
		log.Printf("[ResultStore] list %s: %v", s.root.Path(), err)
		return nil
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids
}

// Latest returns the most recently generated run, if any.
func (s *Store) Latest() (*testrun.TestRun, bool) {
	ids := s.List()
	if len(ids) == 0 {
		return nil, false
	}
	return s.Get(ids[len(ids)-1])
}
