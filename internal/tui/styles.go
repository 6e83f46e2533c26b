package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/repairhub/repair-search/internal/models"
)

type Styles struct {
	Prompt     lipgloss.Style
	Input      lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Item       lipgloss.Style
	Status     lipgloss.Style
	Warning    lipgloss.Style
	Suggestion lipgloss.Style
}

func DefaultStyles() *Styles {
	return &Styles{
		Prompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2563EB")).
			Bold(true),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#2563EB")).
			Bold(true),
		Item: lipgloss.NewStyle().
			PaddingLeft(2),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")).
			Italic(true),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D97706")),
		Suggestion: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")).
			PaddingLeft(2),
	}
}

// Category renders a group header in the category's display color.
func (s *Styles) Category(c models.Category) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(c.Display().Color)).
		Bold(true)
}
