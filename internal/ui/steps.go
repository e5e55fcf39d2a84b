package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/musikremote/internal/control"
	"github.com/muurk/musikremote/internal/settings"
)

// StepStatus represents the outcome of a step
type StepStatus int

const (
	StepComplete StepStatus = iota
	StepFailed
	StepSkipped
)

// Step is one line in a step list
type Step struct {
	Name    string
	Status  StepStatus
	Message string // Optional note, e.g. "daemon not running"
}

// Steps renders a list of completed, failed and skipped steps
type Steps struct {
	Items []Step
}

// Add appends a step
func (s *Steps) Add(name string, status StepStatus, message string) *Steps {
	s.Items = append(s.Items, Step{Name: name, Status: status, Message: message})
	return s
}

var notificationNames = map[string]string{
	settings.CollaboratorVolume:     "Reset output volume",
	settings.CollaboratorProxy:      "Reload stream proxy",
	settings.CollaboratorConnection: "Drop server connection",
}

// NotificationSteps turns commit notifications into a step list. A
// collaborator that is merely not running is shown as skipped.
func NotificationSteps(notifications []settings.Notification) *Steps {
	steps := &Steps{}
	for _, n := range notifications {
		name, ok := notificationNames[n.Collaborator]
		if !ok {
			name = n.Collaborator + " " + n.Action
		}
		switch {
		case n.Err == nil:
			steps.Add(name, StepComplete, "")
		case control.IsUnavailable(n.Err):
			steps.Add(name, StepSkipped, notificationTip(n.Err))
		default:
			steps.Add(name, StepFailed, notificationTip(n.Err))
		}
	}
	return steps
}

// Render returns the styled step list
func (s *Steps) Render() string {
	lines := make([]string, 0, len(s.Items))
	for _, step := range s.Items {
		lines = append(lines, renderStepLine(step))
	}
	return strings.Join(lines, "\n")
}

func renderStepLine(step Step) string {
	var marker string
	var style lipgloss.Style
	switch step.Status {
	case StepComplete:
		marker, style = SuccessMarker, StepCompleteStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	default:
		marker, style = SkippedMarker, StepSkippedStyle
	}

	var b strings.Builder
	b.WriteString("   ")
	b.WriteString(style.Render(marker))
	b.WriteString(" ")
	b.WriteString(style.Render(step.Name))
	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}
	return b.String()
}

// RenderUsageBar renders used/limit as a progress bar with a percentage.
// A zero limit renders as "disabled".
func RenderUsageBar(used, limit int64, width int) string {
	if limit <= 0 {
		return StepNoteStyle.Render("disabled")
	}
	percent := float64(used) / float64(limit)
	if percent > 1 {
		percent = 1
	}

	barWidth := width - 30
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	return fmt.Sprintf("%s %3.0f%%", bar.ViewAs(percent), percent*100)
}
