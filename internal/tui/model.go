// Package tui is a terminal search box over the aggregator. It drives a
// session.Session from the bubbletea event loop and runs each search as a
// command tagged with the sequence number it was started under.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/repairhub/repair-search/internal/models"
	"github.com/repairhub/repair-search/internal/session"
)

type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) models.SearchResponse
	Suggestions() []string
}

// searchCompleted carries a finished search back into the event loop.
type searchCompleted struct {
	seq  uint64
	resp models.SearchResponse
}

type Model struct {
	ctx      context.Context
	searcher Searcher
	userID   string

	session *session.Session
	input   textinput.Model
	help    help.Model
	keys    *KeyMap
	styles  *Styles

	suggestions []string
	failed      []string
	tookMs      int64
	selected    string
	width       int
}

func New(ctx context.Context, searcher Searcher, userID string) *Model {
	ti := textinput.New()
	ti.Placeholder = "Search services, parts, shops..."
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Width = 50
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.Focus()

	return &Model{
		ctx:         ctx,
		searcher:    searcher,
		userID:      userID,
		session:     session.New(),
		input:       ti,
		help:        help.New(),
		keys:        DefaultKeyMap(),
		styles:      DefaultStyles(),
		suggestions: searcher.Suggestions(),
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// Selected is the URL chosen with enter, empty when the user quit without
// choosing.
func (m *Model) Selected() string {
	return m.selected
}

func (m *Model) Session() *session.Session {
	return m.session
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		if msg.Width > 8 {
			m.input.Width = msg.Width - 8
		}
		return m, nil

	case searchCompleted:
		if m.session.Complete(msg.seq, msg.resp.Hits) {
			m.tookMs = msg.resp.TookMs
			m.failed = failedSources(msg.resp.Sources)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.session.MoveUp()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.session.MoveDown()
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if url, ok := m.session.Enter(); ok {
			m.selected = url
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.session.Escape()
		m.input.SetValue("")
		m.failed = nil
		return m, nil

	case key.Matches(msg, m.keys.Blur):
		m.session.ClickOutside()
		return m, nil
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)

	text := m.input.Value()
	if text == m.session.Query() {
		return m, inputCmd
	}
	m.failed = nil
	seq, ok := m.session.SetQuery(text)
	if !ok {
		return m, inputCmd
	}
	return m, tea.Batch(inputCmd, m.search(seq, text))
}

func (m *Model) search(seq uint64, query string) tea.Cmd {
	ctx, searcher := m.ctx, m.searcher
	req := models.SearchRequest{Query: query, UserID: m.userID}
	return func() tea.Msg {
		return searchCompleted{seq: seq, resp: searcher.Search(ctx, req)}
	}
}

func failedSources(reports []models.SourceReport) []string {
	var names []string
	for _, r := range reports {
		if r.Status == models.SourceFailed {
			names = append(names, r.Source)
		}
	}
	return names
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Input.Render(m.input.View()))
	b.WriteString("\n")

	switch m.session.State() {
	case session.Idle:
		if m.session.ShowSuggestions() && len(m.suggestions) > 0 {
			b.WriteString(m.styles.Muted.Render("Popular searches"))
			b.WriteString("\n")
			for _, s := range m.suggestions {
				b.WriteString(m.styles.Suggestion.Render(s))
				b.WriteString("\n")
			}
		}

	case session.Searching:
		b.WriteString(m.styles.Status.Render("Searching..."))
		b.WriteString("\n")

	case session.NoResults:
		b.WriteString(m.styles.Status.Render(fmt.Sprintf("No results for %q", m.session.Query())))
		b.WriteString("\n")

	case session.Results:
		m.renderHits(&b)
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%d results in %dms", len(m.session.Hits()), m.tookMs)))
		b.WriteString("\n")
	}

	if len(m.failed) > 0 {
		b.WriteString(m.styles.Warning.Render("unavailable: " + strings.Join(m.failed, ", ")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderHits writes a category header whenever the category changes from
// the previous row.
func (m *Model) renderHits(b *strings.Builder) {
	active := m.session.Active()
	var prev models.Category = -1
	for i, h := range m.session.Hits() {
		if h.Category != prev {
			d := h.Category.Display()
			b.WriteString(m.styles.Category(h.Category).Render(fmt.Sprintf("[%s] %s", d.Icon, h.Category)))
			b.WriteString("\n")
			prev = h.Category
		}
		row := h.Name
		if i == active {
			b.WriteString(m.styles.Item.Render(m.styles.Selected.Render(row)))
		} else {
			b.WriteString(m.styles.Item.Render(row))
		}
		b.WriteString("\n")
	}
}
