// Package review persists auto-accepted messages and the operator decisions
// made on them.
package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/specgate/internal/fileutil"
	"github.com/sprite-ai/specgate/internal/logger"
	"github.com/sprite-ai/specgate/internal/model"
)

// ErrMessageNotFound is returned when reviewing a message the store does not hold.
var ErrMessageNotFound = errors.New("message not found")

// Entry is one auto-accepted message.
type Entry struct {
	Category     model.Category     `json:"category"`
	Citations    []model.Citation   `json:"citations"`
	AutoAccepted bool               `json:"auto_accepted"`
	Timestamp    time.Time          `json:"timestamp"`
	ReviewStatus model.ReviewStatus `json:"review_status"`
	Notes        string             `json:"notes"`
	ReviewNotes  string             `json:"review_notes,omitempty"`
	ReviewedAt   *time.Time         `json:"reviewed_at,omitempty"`
}

// Messages maps device type to message id to entry.
type Messages map[string]map[string]*Entry

// PendingCount returns the number of pending entries for a device type.
func (m Messages) PendingCount(deviceType string) int {
	n := 0
	for _, e := range m[deviceType] {
		if e.ReviewStatus == model.ReviewPending {
			n++
		}
	}
	return n
}

// Store loads and saves the whole message set. AutoAccept and Review hold a
// process-wide lock across their load and save, since every save rewrites
// all device types.
type Store interface {
	Load() (Messages, error)
	Save(Messages) error
}

// FileStore keeps the message set in a single JSON file.
type FileStore struct {
	path string
	log  zerolog.Logger
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, log: logger.Component("review")}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Load reads the store. A missing file is an empty store, and so is a
// malformed one: review state is advisory, so it is logged and reset.
func (s *FileStore) Load() (Messages, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Messages{}, nil
		}
		return nil, fmt.Errorf("reading custom messages: %w", err)
	}

	var m Messages
	if err := json.Unmarshal(data, &m); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("custom messages file is malformed, starting empty")
		return Messages{}, nil
	}
	if m == nil {
		m = Messages{}
	}
	s.dropNull(m)
	return m, nil
}

// dropNull removes null device maps and entries, which decode without error
// but carry no review state.
func (s *FileStore) dropNull(m Messages) {
	for dev, msgs := range m {
		if msgs == nil {
			s.log.Warn().Str("path", s.path).Str("device", dev).Msg("dropping null device entry from custom messages")
			delete(m, dev)
			continue
		}
		for id, e := range msgs {
			if e == nil {
				s.log.Warn().Str("path", s.path).Str("device", dev).Str("message", id).Msg("dropping null message entry from custom messages")
				delete(msgs, id)
			}
		}
	}
}

// Save rewrites the file atomically.
func (s *FileStore) Save(m Messages) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding custom messages: %w", err)
	}
	return fileutil.WriteAtomic(s.path, data)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu sync.Mutex
	m  Messages
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: Messages{}}
}

func (s *MemoryStore) Load() (Messages, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.m), nil
}

func (s *MemoryStore) Save(m Messages) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = clone(m)
	return nil
}

func clone(m Messages) Messages {
	out := make(Messages, len(m))
	for dev, msgs := range m {
		cp := make(map[string]*Entry, len(msgs))
		for id, e := range msgs {
			if e == nil {
				continue
			}
			e2 := *e
			e2.Citations = append([]model.Citation(nil), e.Citations...)
			cp[id] = &e2
		}
		out[dev] = cp
	}
	return out
}
