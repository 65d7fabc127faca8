package review

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sprite-ai/specgate/internal/model"
)

var timeNow = time.Now

// storeMu serializes read-modify-write cycles on stores. Device locks alone
// are not enough: a save for one device rewrites every other device's
// entries too.
var storeMu sync.Mutex

// Candidate is an unrecognized message offered for auto-acceptance.
type Candidate struct {
	MessageID string
	Direction model.Direction
	Citations []model.Citation
	Malformed bool
}

// AutoAccept records each candidate as a pending vendor-specific message for
// deviceType. Messages already in the store are left alone, so re-running
// never resets a review decision. It returns the number of new entries.
func AutoAccept(s Store, deviceType string, candidates []Candidate) (int, error) {
	if deviceType == "" || len(candidates) == 0 {
		return 0, nil
	}

	storeMu.Lock()
	defer storeMu.Unlock()

	m, err := s.Load()
	if err != nil {
		return 0, err
	}
	msgs := m[deviceType]
	if msgs == nil {
		msgs = make(map[string]*Entry)
		m[deviceType] = msgs
	}

	added := 0
	now := timeNow()
	for _, c := range candidates {
		if _, ok := msgs[c.MessageID]; ok {
			continue
		}
		notes := fmt.Sprintf("Auto-accepted during spec parsing - Direction: %s", c.Direction)
		if c.Malformed {
			notes += " (malformed identifier)"
		}
		msgs[c.MessageID] = &Entry{
			Category:     model.CategoryVendorSpecific,
			Citations:    append([]model.Citation(nil), c.Citations...),
			AutoAccepted: true,
			Timestamp:    now,
			ReviewStatus: model.ReviewPending,
			Notes:        notes,
		}
		added++
	}

	if added == 0 {
		return 0, nil
	}
	if err := s.Save(m); err != nil {
		return 0, fmt.Errorf("saving custom messages: %w", err)
	}
	return added, nil
}

// Review applies an operator decision to one stored message.
func Review(s Store, deviceType, messageID string, status model.ReviewStatus, notes string) (*Entry, error) {
	storeMu.Lock()
	defer storeMu.Unlock()

	m, err := s.Load()
	if err != nil {
		return nil, err
	}
	e, ok := m[deviceType][messageID]
	if !ok || e == nil {
		return nil, fmt.Errorf("%s/%s: %w", deviceType, messageID, ErrMessageNotFound)
	}

	now := timeNow()
	e.ReviewStatus = status
	e.ReviewNotes = notes
	e.ReviewedAt = &now

	if err := s.Save(m); err != nil {
		return nil, fmt.Errorf("saving custom messages: %w", err)
	}
	return e, nil
}

// PendingMessage is a pending entry with its keys.
type PendingMessage struct {
	DeviceType string `json:"device_type"`
	MessageID  string `json:"message_id"`
	Entry      *Entry `json:"entry"`
}

// Pending lists pending entries sorted by device type, then message id.
func Pending(m Messages) []PendingMessage {
	var out []PendingMessage
	for dev, msgs := range m {
		for id, e := range msgs {
			if e.ReviewStatus == model.ReviewPending {
				out = append(out, PendingMessage{DeviceType: dev, MessageID: id, Entry: e})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DeviceType != out[j].DeviceType {
			return out[i].DeviceType < out[j].DeviceType
		}
		return out[i].MessageID < out[j].MessageID
	})
	return out
}

// Locks hands out one mutex per device type. Onboarding and update hold the
// device's lock for their duration.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Lock acquires the mutex for key and returns its unlock function.
func (l *Locks) Lock(key string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
