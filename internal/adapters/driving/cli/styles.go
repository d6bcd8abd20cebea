package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/custodia-labs/filmsync/internal/core/domain"
)

// Palette is the colour set used for command output.
type Palette struct {
	Heading lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Border  lipgloss.Color
}

// DefaultPalette returns the default colours.
func DefaultPalette() Palette {
	return Palette{
		Heading: lipgloss.Color("#7C3AED"), // Purple
		Muted:   lipgloss.Color("#6C7086"), // Medium gray
		Success: lipgloss.Color("#A6E3A1"), // Green
		Warning: lipgloss.Color("#F9E2AF"), // Yellow
		Error:   lipgloss.Color("#F38BA8"), // Red
		Border:  lipgloss.Color("#45475A"),
	}
}

// Styles renders headings, status cells and tables for one output writer.
// Colour is dropped automatically when the writer is not a terminal.
type Styles struct {
	renderer *lipgloss.Renderer
	palette  Palette

	Heading lipgloss.Style
	Muted   lipgloss.Style
	Cell    lipgloss.Style
}

// NewStyles creates styles bound to w.
func NewStyles(w io.Writer, palette Palette) *Styles {
	r := lipgloss.NewRenderer(w)
	return &Styles{
		renderer: r,
		palette:  palette,
		Heading:  r.NewStyle().Bold(true).Foreground(palette.Heading),
		Muted:    r.NewStyle().Foreground(palette.Muted),
		Cell:     r.NewStyle().Padding(0, 1),
	}
}

// Status colours a sync status.
func (s *Styles) Status(status domain.SyncStatus) lipgloss.Style {
	style := s.Cell
	switch status {
	case domain.SyncStatusComplete:
		return style.Foreground(s.palette.Success)
	case domain.SyncStatusFailed:
		return style.Foreground(s.palette.Error)
	case domain.SyncStatusSkipped:
		return style.Foreground(s.palette.Muted)
	case domain.SyncStatusPending, domain.SyncStatusInProgress:
		return style.Foreground(s.palette.Warning)
	default:
		return style
	}
}

// Table builds a bordered table. cellStyle may be nil; it receives the data
// row index and column and returns the style for that cell.
func (s *Styles) Table(headers []string, rows [][]string, cellStyle func(row, col int) lipgloss.Style) string {
	header := s.Cell.Bold(true)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.renderer.NewStyle().Foreground(s.palette.Border)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if cellStyle != nil {
				return cellStyle(row, col)
			}
			return s.Cell
		})
	return t.String()
}
