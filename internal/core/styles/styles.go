// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

// CurrentPalette is the palette the global styles were last built from.
var CurrentPalette Palette

// Style exports.
var (
	TitleStyle   lipgloss.Style
	HeaderStyle  lipgloss.Style
	TextStyle    lipgloss.Style
	MutedStyle   lipgloss.Style
	DividerStyle lipgloss.Style

	RowCursorStyle   lipgloss.Style
	CheckedStyle     lipgloss.Style
	LeadMarkerStyle  lipgloss.Style
	BlockingStyle    lipgloss.Style
	StatusStyles     map[string]lipgloss.Style
	ErrorStyle       lipgloss.Style
	SuccessStyle     lipgloss.Style
	WarningStyle     lipgloss.Style
	SpinnerStyle     lipgloss.Style
	InputLabelStyle  lipgloss.Style
	InputFocusStyle  lipgloss.Style
	ButtonStyle      lipgloss.Style
	ButtonFocusStyle lipgloss.Style
	ButtonOffStyle   lipgloss.Style

	ModalStyle      lipgloss.Style
	ModalTitleStyle lipgloss.Style
	ModalHelpStyle  lipgloss.Style
	ToastStyle      lipgloss.Style
	HelpStyle       lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	TitleStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	HeaderStyle = lipgloss.NewStyle().Foreground(p.Secondary).Bold(true)
	TextStyle = lipgloss.NewStyle().Foreground(p.Foreground)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	DividerStyle = lipgloss.NewStyle().Foreground(p.Surface)

	RowCursorStyle = lipgloss.NewStyle().Background(p.Surface).Foreground(p.Foreground)
	CheckedStyle = lipgloss.NewStyle().Foreground(p.Success).Bold(true)
	LeadMarkerStyle = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)
	BlockingStyle = lipgloss.NewStyle().Foreground(p.Error)
	StatusStyles = map[string]lipgloss.Style{
		"pending":  lipgloss.NewStyle().Foreground(p.Warning),
		"approved": lipgloss.NewStyle().Foreground(p.Success),
		"rejected": lipgloss.NewStyle().Foreground(p.Error),
	}
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	WarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	SpinnerStyle = lipgloss.NewStyle().Foreground(p.Secondary)
	InputLabelStyle = lipgloss.NewStyle().Foreground(p.Muted).Width(14)
	InputFocusStyle = lipgloss.NewStyle().Foreground(p.Primary).Width(14).Bold(true)

	ButtonStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(p.Surface).
		Foreground(p.Foreground)
	ButtonFocusStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(p.Primary).
		Foreground(p.Background).
		Bold(true)
	ButtonOffStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(p.Muted).
		Strikethrough(true)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		Padding(1, 2)
	ModalTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Foreground)
	ModalHelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		MarginTop(1)
	ToastStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Success).
		Foreground(p.Foreground).
		Padding(0, 1)
	HelpStyle = lipgloss.NewStyle().Foreground(p.Muted)
}

// StatusStyle returns the style for an order status, falling back to the
// muted style for unknown values.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := StatusStyles[status]; ok {
		return s
	}
	return MutedStyle
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

func hexPtr(c lipgloss.Color) *string {
	if c == "" {
		return nil
	}
	s := string(c)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() ansi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig
	p := CurrentPalette

	fg := hexPtr(p.Foreground)
	primary := hexPtr(p.Primary)
	secondary := hexPtr(p.Secondary)
	muted := hexPtr(p.Muted)

	cfg.Document.Color = fg
	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = fg
	cfg.H1.BackgroundColor = hexPtr(p.Surface)
	cfg.H2.Color = primary
	cfg.H3.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted

	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary
	cfg.Code.Color = secondary
	cfg.Table.Color = fg

	return cfg
}
