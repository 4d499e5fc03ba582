package engram

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/securizon/sentinel/internal/sentinelerrors"
)

// Query filters a Store's List call.
type Query struct {
	TenantID  *uuid.UUID
	AgentID   *string
	SessionID *EngramId
	From      *time.Time
	To        *time.Time
}

// Store is a persistence backend for engrams.
type Store interface {
	// Save persists a finalized engram. Returns sentinelerrors.NotFinalized
	// if the engram has no content hash yet.
	Save(engram Engram) error
	// Get retrieves an engram by id, verifying its integrity before
	// returning it.
	Get(id EngramId) (Engram, error)
	// List returns engrams matching query, ordered by StartedAt descending.
	List(query Query) ([]Engram, error)
}

// FileStore is a filesystem-backed Store. Engrams are written as JSON
// files under root, one per session, organized by the date the session
// started:
//
//	{root}/2024/01/15/{session_id}.json
//
// This directory can be initialized as a Git repository so each commit is
// an audit checkpoint over the session records captured so far.
type FileStore struct {
	root string
}

// NewFileStore creates (or reuses) a store rooted at the given directory.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &sentinelerrors.ConfigError{Cause: err}
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) enginePath(e Engram) string {
	date := e.StartedAt.Format("2006/01/02")
	return filepath.Join(s.root, date, e.ID.String()+".json")
}

func (s *FileStore) Save(e Engram) error {
	if e.ContentHash == nil {
		return &sentinelerrors.NotFinalized{}
	}

	path := s.enginePath(e)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return &sentinelerrors.SerializationError{Cause: err}
	}

	return os.WriteFile(path, data, 0o644)
}

func (s *FileStore) Get(id EngramId) (Engram, error) {
	path, err := s.findPath(id)
	if err != nil {
		return Engram{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Engram{}, err
	}

	var e Engram
	if err := json.Unmarshal(data, &e); err != nil {
		return Engram{}, &sentinelerrors.SerializationError{Cause: err}
	}

	if !e.VerifyIntegrity() {
		return Engram{}, &sentinelerrors.IntegrityViolation{EngramID: id.String()}
	}

	return e, nil
}

func (s *FileStore) List(query Query) ([]Engram, error) {
	var results []Engram

	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var e Engram
		if err := json.Unmarshal(data, &e); err != nil {
			return &sentinelerrors.SerializationError{Cause: err}
		}

		if matchesQuery(e, query) {
			results = append(results, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartedAt.After(results[j].StartedAt)
	})

	return results, nil
}

func (s *FileStore) findPath(id EngramId) (string, error) {
	filename := id.String() + ".json"
	var found string

	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == filename {
			found = path
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", &sentinelerrors.NotFound{Label: "engram", ID: id.String()}
	}
	return found, nil
}

func matchesQuery(e Engram, q Query) bool {
	if q.TenantID != nil && e.TenantID != *q.TenantID {
		return false
	}
	if q.AgentID != nil && e.AgentID != *q.AgentID {
		return false
	}
	if q.SessionID != nil && e.ID != *q.SessionID {
		return false
	}
	if q.From != nil && e.StartedAt.Before(*q.From) {
		return false
	}
	if q.To != nil && e.StartedAt.After(*q.To) {
		return false
	}
	return true
}

var _ Store = (*FileStore)(nil)
