// Package session holds the search box interaction state: the query text,
// the dropdown state, the highlighted hit and the guard that drops results
// belonging to an older query.
package session

import (
	"github.com/repairhub/repair-search/internal/models"
	"github.com/repairhub/repair-search/internal/observability"
	"github.com/repairhub/repair-search/internal/textmatch"
)

type State string

const (
	// Idle shows the suggestion list when the query is empty and nothing
	// otherwise.
	Idle      State = "idle"
	Searching State = "searching"
	Results   State = "results"
	NoResults State = "no_results"
)

// Session is driven from a single goroutine, e.g. a UI event loop. Searches
// run elsewhere and report back through Complete with the sequence number
// they were started with.
type Session struct {
	query  string
	state  State
	hits   []models.Hit
	active int
	seq    uint64
}

func New() *Session {
	return &Session{state: Idle, active: -1}
}

func (s *Session) Query() string      { return s.query }
func (s *Session) State() State       { return s.state }
func (s *Session) Active() int        { return s.active }
func (s *Session) Hits() []models.Hit { return s.hits }

// ShowSuggestions reports whether the suggestion list should be visible.
func (s *Session) ShowSuggestions() bool {
	return s.state == Idle && textmatch.Normalize(s.query) == ""
}

// SetQuery records new query text. It returns the sequence number to run the
// search under, and false when the text is blank and no search should run.
func (s *Session) SetQuery(text string) (uint64, bool) {
	s.query = text
	s.seq++
	s.hits = nil
	s.active = -1
	if textmatch.Normalize(text) == "" {
		s.state = Idle
		return 0, false
	}
	s.state = Searching
	return s.seq, true
}

// Complete installs the hits of the search started under seq. Results for
// any older sequence are discarded and reported as false.
func (s *Session) Complete(seq uint64, hits []models.Hit) bool {
	if seq != s.seq || s.state != Searching {
		observability.StaleResponsesDiscarded.Inc()
		return false
	}
	s.hits = hits
	s.active = -1
	if len(hits) == 0 {
		s.state = NoResults
	} else {
		s.state = Results
	}
	return true
}

// MoveDown and MoveUp step the highlight, clamped to [-1, len(hits)-1].
func (s *Session) MoveDown() {
	if s.state != Results {
		return
	}
	if s.active < len(s.hits)-1 {
		s.active++
	}
}

func (s *Session) MoveUp() {
	if s.state != Results {
		return
	}
	if s.active > -1 {
		s.active--
	}
}

// Enter returns the URL of the highlighted hit, if any.
func (s *Session) Enter() (string, bool) {
	if s.state != Results || s.active < 0 || s.active >= len(s.hits) {
		return "", false
	}
	return s.hits[s.active].URL, true
}

// Escape clears the query and closes the dropdown.
func (s *Session) Escape() {
	s.query = ""
	s.close()
}

// ClickOutside closes the dropdown and keeps the query text.
func (s *Session) ClickOutside() {
	s.close()
}

// close also invalidates any search still in flight so its results cannot
// reopen the dropdown.
func (s *Session) close() {
	s.seq++
	s.state = Idle
	s.hits = nil
	s.active = -1
}
