package tui

import (
	"fmt"
	"strings"

	"github.com/sprite-ai/specgate/internal/model"
	"github.com/sprite-ai/specgate/internal/review"
)

// Decision is one operator verdict from a review session.
type Decision struct {
	DeviceType string
	MessageID  string
	Status     model.ReviewStatus
}

// ReviewResult holds the outcome of an interactive review session.
type ReviewResult struct {
	Items     []review.PendingMessage
	Decisions map[int]model.ReviewStatus
}

// Decided returns the decisions in list order.
func (r *ReviewResult) Decided() []Decision {
	var out []Decision
	for i, it := range r.Items {
		if s, ok := r.Decisions[i]; ok {
			out = append(out, Decision{DeviceType: it.DeviceType, MessageID: it.MessageID, Status: s})
		}
	}
	return out
}

// Counts tallies the session by decision.
func (r *ReviewResult) Counts() (approved, rejected, deferred, pending int) {
	for i := range r.Items {
		switch r.Decisions[i] {
		case model.ReviewApproved:
			approved++
		case model.ReviewRejected:
			rejected++
		case model.ReviewDeferred:
			deferred++
		default:
			pending++
		}
	}
	return
}

// Summary is a one-line account of the session.
func (r *ReviewResult) Summary() string {
	a, rj, d, p := r.Counts()
	return fmt.Sprintf("%d approved, %d rejected, %d deferred, %d still pending", a, rj, d, p)
}

// Apply records every decision in s with the given notes. It stops at the
// first failure and returns how many were applied before it.
func (r *ReviewResult) Apply(s review.Store, notes string) (int, error) {
	notes = strings.TrimSpace(notes)
	n := 0
	for _, d := range r.Decided() {
		if _, err := review.Review(s, d.DeviceType, d.MessageID, d.Status, notes); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
