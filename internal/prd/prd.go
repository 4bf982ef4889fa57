package prd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Status represents where a feature is in its lifecycle
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "inprogress"
	StatusFailing    Status = "failing"
	StatusPassing    Status = "passing"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusFailing, StatusPassing:
		return true
	}
	return false
}

// UnmarshalJSON rejects statuses the loop does not know how to interpret
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	st := Status(raw)
	if !st.Valid() {
		return fmt.Errorf("unknown status %q", raw)
	}
	*s = st
	return nil
}

// Feature is a single entry in the task list
type Feature struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	Status             Status   `json:"status"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
}

// UnmarshalJSON accepts "name" as an alternate key for the title
func (f *Feature) UnmarshalJSON(data []byte) error {
	type plain Feature
	var aux struct {
		plain
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*f = Feature(aux.plain)
	if f.Title == "" {
		f.Title = aux.Name
	}
	if f.Status == "" {
		return fmt.Errorf("feature %q has no status", f.ID)
	}
	return nil
}

// PRD is the task list the agent works through
type PRD struct {
	Project  string    `json:"project"`
	Features []Feature `json:"features"`
}

// ErrorKind distinguishes why a task list could not be loaded
type ErrorKind int

const (
	KindIO ErrorKind = iota
	KindParse
)

func (k ErrorKind) String() string {
	if k == KindIO {
		return "io"
	}
	return "parse"
}

// LoadError is returned by Load for both unreadable and malformed files
type LoadError struct {
	Path string
	Kind ErrorKind
	Err  error
}

func (e *LoadError) Error() string {
	if e.Kind == KindIO {
		return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads and parses the task list at path
func Load(path string) (*PRD, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Kind: KindIO, Err: err}
	}

	var p PRD
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &LoadError{Path: path, Kind: KindParse, Err: err}
	}

	return &p, nil
}

// IsComplete reports whether there is at least one feature and all are passing.
// An empty task list is never complete.
func (p *PRD) IsComplete() bool {
	if p == nil || len(p.Features) == 0 {
		return false
	}
	for _, f := range p.Features {
		if f.Status != StatusPassing {
			return false
		}
	}
	return true
}

// Summarize returns the number of passing features and the total
func (p *PRD) Summarize() (passing, total int) {
	if p == nil {
		return 0, 0
	}
	for _, f := range p.Features {
		if f.Status == StatusPassing {
			passing++
		}
	}
	return passing, len(p.Features)
}

// Remaining returns the features that are not passing yet, in file order
func (p *PRD) Remaining() []Feature {
	if p == nil {
		return nil
	}
	var out []Feature
	for _, f := range p.Features {
		if f.Status != StatusPassing {
			out = append(out, f)
		}
	}
	return out
}

// NeedsInterview is true when the task list cannot be loaded or has no features
func NeedsInterview(path string) bool {
	p, err := Load(path)
	if err != nil {
		return true
	}
	return len(p.Features) == 0
}

// IsParseError reports whether err is a LoadError caused by bad content
func IsParseError(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == KindParse
}
