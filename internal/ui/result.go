package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/musikremote/internal/control"
	"github.com/muurk/musikremote/internal/prefs"
	"github.com/muurk/musikremote/internal/settings"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Detail is one key/value line in a result box
type Detail struct {
	Key   string
	Value string
}

// Result represents a result box (success, failure, or warning)
type Result struct {
	Type            ResultType // Success, failure, or warning
	Title           string     // e.g. "Preferences saved"
	Details         []Detail   // Shown in order
	Steps           *Steps     // Optional step list under the details
	Error           error      // Error (for failure results)
	Troubleshooting []string   // Troubleshooting tips (for failure results)
	Width           int        // Terminal width
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string) *Result {
	return &Result{Type: ResultSuccess, Title: title, Width: GetTerminalWidth()}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, troubleshooting []string) *Result {
	return &Result{
		Type:            ResultFailure,
		Title:           title,
		Error:           err,
		Troubleshooting: troubleshooting,
		Width:           GetTerminalWidth(),
	}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string) *Result {
	return &Result{Type: ResultWarning, Title: title, Width: GetTerminalWidth()}
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail appends a detail line
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Detail{Key: key, Value: value})
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var (
		marker, word string
		title        lipgloss.Style
		color        lipgloss.Color
	)
	switch r.Type {
	case ResultFailure:
		marker, word, title, color = FailureMarker, "FAILED", ErrorTitleStyle, ErrorColor
	case ResultWarning:
		marker, word, title, color = WarningMarker, "WARNING", WarningTitleStyle, WarningColor
	default:
		marker, word, title, color = SuccessMarker, "SUCCESS", SuccessTitleStyle, SuccessColor
	}

	lines := []string{"", title.Render(fmt.Sprintf("   %s  %s  ─  %s", marker, word, r.Title)), ""}

	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+r.Error.Error()), "")
	}
	for _, d := range r.Details {
		lines = append(lines, ResultKeyStyle.Render("   "+d.Key+":")+" "+ResultValueStyle.Render(d.Value))
	}
	if len(r.Details) > 0 {
		lines = append(lines, "")
	}
	if r.Steps != nil && len(r.Steps.Items) > 0 {
		lines = append(lines, r.Steps.Render(), "")
	}
	if len(r.Troubleshooting) > 0 {
		lines = append(lines, r.renderTroubleshootingBox(width), "")
	}

	return resultBoxStyle(width, color).Render(strings.Join(lines, "\n"))
}

// renderTroubleshootingBox renders the inner troubleshooting box
func (r *Result) renderTroubleshootingBox(width int) string {
	lines := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
	for _, tip := range r.Troubleshooting {
		lines = append(lines, TroubleshootingItemStyle.Render("  • "+tip))
	}

	innerWidth := width - 12
	if innerWidth < 40 {
		innerWidth = 40
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(innerWidth).
		Padding(0, 1).
		MarginLeft(3).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}

// SaveResult builds the box shown after a commit: the changed fields and
// the outcome of each collaborator notification on success, or the store
// error with hints on failure.
func SaveResult(cr *settings.CommitResult, changes []settings.Change, choices settings.Choices) *Result {
	if !cr.Success {
		tips := []string{prefs.ShortMessage(cr.Error), "Your edits were not saved; nothing was changed"}
		if prefs.IsRetryable(cr.Error) {
			tips = append(tips, "Run the command again once the problem is fixed")
		}
		return NewFailureResult("Preferences not saved", cr.Error, tips)
	}

	r := NewSuccessResult("Preferences saved")
	if len(cr.NotificationErrors()) > 0 {
		r = NewWarningResult("Preferences saved, some components were not updated")
	}
	for _, c := range changes {
		f, ok := settings.Lookup(c.Key)
		label := string(c.Key)
		newValue := c.New.String()
		if ok {
			label = f.Label
			newValue = settings.FormatValue(f, c.New, choices)
		}
		r.AddDetail(label, newValue)
	}
	if len(changes) == 0 {
		r.AddDetail("Changes", "none")
	}
	r.Steps = NotificationSteps(cr.Notifications)
	return r
}

// notificationTip explains a failed notification
func notificationTip(err error) string {
	if control.IsUnavailable(err) {
		return "daemon not running, applies on next start"
	}
	return err.Error()
}
