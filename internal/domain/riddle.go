// Package domain contains core domain types for the Riddler agent.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// RevealState tracks how much of a riddle has been disclosed to the user.
type RevealState string

const (
	// StateAsked means only the riddle text has been shown.
	StateAsked RevealState = "asked"
	// StateHintShown means the hint has been revealed.
	StateHintShown RevealState = "hint_shown"
	// StateAnswered means the answer has been revealed.
	StateAnswered RevealState = "answered"
)

// Valid reports whether s is one of the known reveal states.
func (s RevealState) Valid() bool {
	switch s {
	case StateAsked, StateHintShown, StateAnswered:
		return true
	}
	return false
}

// Riddle is the triple produced by a content provider.
type Riddle struct {
	Riddle string `json:"riddle"`
	Hint   string `json:"hint"`
	Answer string `json:"answer"`
	// Source names the upstream that produced the riddle.
	Source string `json:"source,omitempty"`
	// Fallback is set when every upstream failed and a built-in riddle was used.
	Fallback bool `json:"fallback,omitempty"`
}

// Complete returns true if the riddle, hint and answer are all non-empty.
func (r Riddle) Complete() bool {
	return r.Riddle != "" && r.Hint != "" && r.Answer != ""
}

// RiddleRecord is the riddle currently attached to a session.
// Riddle, Hint and Answer never change after creation; only State moves.
// ID identifies one generated riddle, so a state change can be tied to the
// record it was decided on.
type RiddleRecord struct {
	ID        string      `json:"id"`
	Riddle    string      `json:"riddle"`
	Hint      string      `json:"hint"`
	Answer    string      `json:"answer"`
	Source    string      `json:"source,omitempty"`
	Fallback  bool        `json:"fallback,omitempty"`
	State     RevealState `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewRiddleRecord creates a record in the Asked state from a provider riddle.
func NewRiddleRecord(r Riddle, now time.Time) *RiddleRecord {
	return &RiddleRecord{
		ID:        uuid.NewString(),
		Riddle:    r.Riddle,
		Hint:      r.Hint,
		Answer:    r.Answer,
		Source:    r.Source,
		Fallback:  r.Fallback,
		State:     StateAsked,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Expired returns true if the record has not been touched within ttl.
// A non-positive ttl never expires.
func (r *RiddleRecord) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(r.UpdatedAt) > ttl
}
