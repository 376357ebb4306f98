// Package rows holds the ordered, mutable collections of setup-cost and
// interest-rate rows behind a deal form. Renderers subscribe to the store and
// draw rows as they are appended; the calculator and validation engine read
// snapshots. A Store belongs to a single form session and is not safe for
// concurrent use.
package rows

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-dealform/pkg/model"
)

// Collection names one of the two repeating row groups.
type Collection string

const (
	SetupCosts    Collection = "setup_costs"
	InterestRates Collection = "interest_rates"
)

// EventKind describes what happened to a collection.
type EventKind string

const (
	EventAppended EventKind = "appended"
	EventUpdated  EventKind = "updated"
	EventReset    EventKind = "reset"
)

// Event is delivered to subscribers after the store changes.
type Event struct {
	Kind       EventKind
	Collection Collection
	Index      int
	ID         string
}

// Listener receives store events synchronously, in mutation order.
type Listener func(Event)

type setupCostEntry struct {
	id  string
	row model.SetupCostRow
}

type interestRateEntry struct {
	id  string
	row model.InterestRateRow
}

// Store keeps both row collections in page order.
type Store struct {
	setupCosts    []setupCostEntry
	interestRates []interestRateEntry
	listeners     []Listener
	newID         func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the row identifier source (uuid by default).
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New constructs an empty store.
func New(opts ...Option) *Store {
	s := &Store{newID: uuid.NewString}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() {
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
	}
}

// Load replaces both collections, typically with the rows posted back by a
// form submission.
func (s *Store) Load(setupCosts []model.SetupCostRow, interestRates []model.InterestRateRow) {
	s.setupCosts = s.setupCosts[:0]
	for _, row := range setupCosts {
		s.setupCosts = append(s.setupCosts, setupCostEntry{id: s.newID(), row: row})
	}
	s.interestRates = s.interestRates[:0]
	for _, row := range interestRates {
		s.interestRates = append(s.interestRates, interestRateEntry{id: s.newID(), row: row})
	}
	s.emit(Event{Kind: EventReset, Collection: SetupCosts, Index: -1})
	s.emit(Event{Kind: EventReset, Collection: InterestRates, Index: -1})
}

// AppendSetupCost appends row and returns its index.
func (s *Store) AppendSetupCost(row model.SetupCostRow) int {
	entry := setupCostEntry{id: s.newID(), row: row}
	s.setupCosts = append(s.setupCosts, entry)
	idx := len(s.setupCosts) - 1
	s.emit(Event{Kind: EventAppended, Collection: SetupCosts, Index: idx, ID: entry.id})
	return idx
}

// AppendInterestRate appends row and returns its index.
func (s *Store) AppendInterestRate(row model.InterestRateRow) int {
	entry := interestRateEntry{id: s.newID(), row: row}
	s.interestRates = append(s.interestRates, entry)
	idx := len(s.interestRates) - 1
	s.emit(Event{Kind: EventAppended, Collection: InterestRates, Index: idx, ID: entry.id})
	return idx
}

// UpdateSetupCost replaces the row at index.
func (s *Store) UpdateSetupCost(index int, row model.SetupCostRow) error {
	if index < 0 || index >= len(s.setupCosts) {
		return fmt.Errorf("rows: setup cost index %d out of range (%d rows)", index, len(s.setupCosts))
	}
	s.setupCosts[index].row = row
	s.emit(Event{Kind: EventUpdated, Collection: SetupCosts, Index: index, ID: s.setupCosts[index].id})
	return nil
}

// UpdateInterestRate replaces the row at index.
func (s *Store) UpdateInterestRate(index int, row model.InterestRateRow) error {
	if index < 0 || index >= len(s.interestRates) {
		return fmt.Errorf("rows: interest rate index %d out of range (%d rows)", index, len(s.interestRates))
	}
	s.interestRates[index].row = row
	s.emit(Event{Kind: EventUpdated, Collection: InterestRates, Index: index, ID: s.interestRates[index].id})
	return nil
}

// SetupCost returns the row at index.
func (s *Store) SetupCost(index int) (model.SetupCostRow, bool) {
	if index < 0 || index >= len(s.setupCosts) {
		return model.SetupCostRow{}, false
	}
	return s.setupCosts[index].row, true
}

// InterestRate returns the row at index.
func (s *Store) InterestRate(index int) (model.InterestRateRow, bool) {
	if index < 0 || index >= len(s.interestRates) {
		return model.InterestRateRow{}, false
	}
	return s.interestRates[index].row, true
}

// SetupCosts returns a copy of the setup-cost rows in page order.
func (s *Store) SetupCosts() []model.SetupCostRow {
	out := make([]model.SetupCostRow, len(s.setupCosts))
	for i, entry := range s.setupCosts {
		out[i] = entry.row
	}
	return out
}

// InterestRates returns a copy of the interest-rate rows in page order.
func (s *Store) InterestRates() []model.InterestRateRow {
	out := make([]model.InterestRateRow, len(s.interestRates))
	for i, entry := range s.interestRates {
		out[i] = entry.row
	}
	return out
}

// IDs returns the stable identifiers of a collection in page order.
func (s *Store) IDs(c Collection) []string {
	switch c {
	case SetupCosts:
		out := make([]string, len(s.setupCosts))
		for i, entry := range s.setupCosts {
			out[i] = entry.id
		}
		return out
	case InterestRates:
		out := make([]string, len(s.interestRates))
		for i, entry := range s.interestRates {
			out[i] = entry.id
		}
		return out
	default:
		return nil
	}
}

// Len reports the number of rows in a collection.
func (s *Store) Len(c Collection) int {
	switch c {
	case SetupCosts:
		return len(s.setupCosts)
	case InterestRates:
		return len(s.interestRates)
	default:
		return 0
	}
}

func (s *Store) emit(evt Event) {
	for _, fn := range s.listeners {
		if fn != nil {
			fn(evt)
		}
	}
}
