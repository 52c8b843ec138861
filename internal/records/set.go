package records

import (
	"fmt"
	"strings"

	"github.com/crucial707/searchsync/internal/models"
)

// DuplicatePolicy decides what happens when two rows share a name.
type DuplicatePolicy string

const (
	// DuplicatesReject fails the run on the second row with a known name.
	DuplicatesReject DuplicatePolicy = "reject"
	// DuplicatesLastWins keeps the last row for a name at the position of the first.
	DuplicatesLastWins DuplicatePolicy = "last-wins"
)

// ParseDuplicatePolicy parses a policy name; empty means reject.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DuplicatesReject:
		return DuplicatesReject, nil
	case DuplicatesLastWins:
		return DuplicatesLastWins, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q (want %q or %q)", s, DuplicatesReject, DuplicatesLastWins)
	}
}

// DuplicateError reports a name declared more than once.
type DuplicateError struct {
	Name     string
	FirstRow int
	Row      int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("row %d: duplicate name %q (first declared in row %d)", e.Row, e.Name, e.FirstRow)
}

// Set is an ordered, name-keyed collection of declared records.
type Set struct {
	policy DuplicatePolicy
	order  []string
	byName map[string]models.SearchRecord
	rows   map[string]int
}

// NewSet returns an empty set using policy for repeated names.
func NewSet(policy DuplicatePolicy) *Set {
	if policy == "" {
		policy = DuplicatesReject
	}
	return &Set{
		policy: policy,
		byName: make(map[string]models.SearchRecord),
		rows:   make(map[string]int),
	}
}

// Add inserts rec declared at the 1-based input row.
func (s *Set) Add(row int, rec models.SearchRecord) error {
	if first, ok := s.rows[rec.Name]; ok {
		if s.policy == DuplicatesReject {
			return &DuplicateError{Name: rec.Name, FirstRow: first, Row: row}
		}
		s.byName[rec.Name] = rec
		return nil
	}
	s.order = append(s.order, rec.Name)
	s.byName[rec.Name] = rec
	s.rows[rec.Name] = row
	return nil
}

// Get returns the record declared under name.
func (s *Set) Get(name string) (models.SearchRecord, bool) {
	rec, ok := s.byName[name]
	return rec, ok
}

// Len returns the number of distinct names.
func (s *Set) Len() int {
	return len(s.order)
}

// Records returns the records in first-declared order.
func (s *Set) Records() []models.SearchRecord {
	out := make([]models.SearchRecord, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// Collect builds a Set from records in input order.
func Collect(recs []models.SearchRecord, policy DuplicatePolicy) (*Set, error) {
	s := NewSet(policy)
	for i, rec := range recs {
		if err := s.Add(i+1, rec); err != nil {
			return nil, err
		}
	}
	return s, nil
}
