package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/detail text color
	Danger  lipgloss.Color // Failure color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Danger:  lipgloss.Color("#ff5f5f"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Step   lipgloss.Style
	Detail lipgloss.Style
	Fail   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Step:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Detail: lipgloss.NewStyle().Foreground(t.Dim),
		Fail:   lipgloss.NewStyle().Bold(true).Foreground(t.Danger),
	}
}

// Progress prints step-by-step progress lines for long-running commands.
// All methods are safe on a nil receiver, so callers can pass a nil
// *Progress to disable output entirely.
type Progress struct {
	w      io.Writer
	styles Styles
	starts map[string]time.Time
	now    func() time.Time
}

// NewProgress creates a progress printer writing to w with the default theme.
func NewProgress(w io.Writer) *Progress {
	return NewProgressWithTheme(w, DefaultTheme)
}

// NewProgressWithTheme creates a progress printer with a custom theme.
func NewProgressWithTheme(w io.Writer, theme Theme) *Progress {
	return &Progress{
		w:      w,
		styles: NewStyles(theme),
		starts: make(map[string]time.Time),
		now:    time.Now,
	}
}

// StepStart marks the beginning of a named step.
func (p *Progress) StepStart(name string) {
	if p == nil {
		return
	}
	p.starts[name] = p.now()
	fmt.Fprintf(p.w, "%s %s\n", p.styles.Step.Render("▸"), name)
}

// StepDone marks a step as finished, printing the elapsed time since
// StepStart was called for the same name.
func (p *Progress) StepDone(name string) {
	if p == nil {
		return
	}
	line := fmt.Sprintf("%s %s", p.styles.Step.Render("✓"), name)
	if started, ok := p.starts[name]; ok {
		delete(p.starts, name)
		line += " " + p.styles.Detail.Render("("+FormatDuration(p.now().Sub(started))+")")
	}
	fmt.Fprintln(p.w, line)
}

// StepFail marks a step as failed.
func (p *Progress) StepFail(name string, err error) {
	if p == nil {
		return
	}
	delete(p.starts, name)
	fmt.Fprintf(p.w, "%s %s: %v\n", p.styles.Fail.Render("✗"), name, err)
}

// Detail prints an indented detail line under the current step.
func (p *Progress) Detail(format string, args ...any) {
	if p == nil {
		return
	}
	fmt.Fprintf(p.w, "  %s\n", p.styles.Detail.Render(fmt.Sprintf(format, args...)))
}
