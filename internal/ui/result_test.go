package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/muurk/musikremote/internal/control"
	"github.com/muurk/musikremote/internal/prefs"
	"github.com/muurk/musikremote/internal/settings"
)

func TestSaveResult_Failure(t *testing.T) {
	storeErr := &prefs.StoreError{Type: prefs.ErrTypeIO, Op: "replace", Err: errors.New("disk full"), Retryable: true}
	cr := &settings.CommitResult{Success: false, Error: storeErr}

	r := SaveResult(cr, nil, settings.DefaultChoices())
	if r.Type != ResultFailure {
		t.Fatalf("Type = %v, want failure", r.Type)
	}
	if r.Error != storeErr {
		t.Errorf("Error = %v", r.Error)
	}
	if len(r.Troubleshooting) != 3 {
		t.Errorf("Troubleshooting = %v", r.Troubleshooting)
	}
	out := r.SetWidth(80).Render()
	if !strings.Contains(out, "FAILED") || !strings.Contains(out, "Preferences not saved") {
		t.Errorf("unexpected render:\n%s", out)
	}
}

func TestSaveResult_Success(t *testing.T) {
	changes := []settings.Change{
		{Key: settings.KeyPassword, Old: prefs.StringValue(""), New: prefs.StringValue("hunter2")},
		{Key: settings.KeyMainPort, Old: prefs.IntValue(7905), New: prefs.IntValue(8000)},
	}
	cr := &settings.CommitResult{
		Success: true,
		Entries: 11,
		Notifications: []settings.Notification{
			{Collaborator: settings.CollaboratorVolume, Action: "set_volume"},
			{Collaborator: settings.CollaboratorProxy, Action: "reload"},
			{Collaborator: settings.CollaboratorConnection, Action: "disconnect"},
		},
	}

	r := SaveResult(cr, changes, settings.DefaultChoices())
	if r.Type != ResultSuccess {
		t.Fatalf("Type = %v, want success", r.Type)
	}
	if len(r.Details) != 2 {
		t.Fatalf("Details = %+v", r.Details)
	}
	if r.Details[0].Value != "********" {
		t.Errorf("password should be masked, got %q", r.Details[0].Value)
	}
	if r.Details[1].Value != "8000" {
		t.Errorf("port = %q", r.Details[1].Value)
	}
	if len(r.Steps.Items) != 3 {
		t.Errorf("steps = %+v", r.Steps.Items)
	}
	if strings.Contains(r.SetWidth(80).Render(), "hunter2") {
		t.Error("rendered result leaks the password")
	}
}

func TestSaveResult_DaemonDownIsWarning(t *testing.T) {
	down := &control.Error{Type: control.ErrTypeUnavailable, Op: "reload", Message: "daemon is not running"}
	cr := &settings.CommitResult{
		Success: true,
		Notifications: []settings.Notification{
			{Collaborator: settings.CollaboratorProxy, Action: "reload", Err: down},
		},
	}

	r := SaveResult(cr, nil, settings.DefaultChoices())
	if r.Type != ResultWarning {
		t.Errorf("Type = %v, want warning", r.Type)
	}
	if r.Details[0].Value != "none" {
		t.Errorf("Details = %+v", r.Details)
	}
}

func TestNotificationSteps(t *testing.T) {
	down := &control.Error{Type: control.ErrTypeUnavailable, Op: "disconnect"}
	steps := NotificationSteps([]settings.Notification{
		{Collaborator: settings.CollaboratorVolume, Action: "set_volume"},
		{Collaborator: settings.CollaboratorProxy, Action: "reload", Err: errors.New("boom")},
		{Collaborator: settings.CollaboratorConnection, Action: "disconnect", Err: down},
		{Collaborator: "scrobbler", Action: "flush"},
	})

	want := []struct {
		name   string
		status StepStatus
	}{
		{"Reset output volume", StepComplete},
		{"Reload stream proxy", StepFailed},
		{"Drop server connection", StepSkipped},
		{"scrobbler flush", StepComplete},
	}
	if len(steps.Items) != len(want) {
		t.Fatalf("got %d steps", len(steps.Items))
	}
	for i, w := range want {
		got := steps.Items[i]
		if got.Name != w.name || got.Status != w.status {
			t.Errorf("step %d = %+v, want %s/%v", i, got, w.name, w.status)
		}
	}
	if steps.Items[1].Message != "boom" {
		t.Errorf("failed step message = %q", steps.Items[1].Message)
	}
	if !strings.Contains(steps.Items[2].Message, "daemon not running") {
		t.Errorf("skipped step message = %q", steps.Items[2].Message)
	}
}

func TestRenderUsageBar(t *testing.T) {
	if got := RenderUsageBar(10, 0, 80); !strings.Contains(got, "disabled") {
		t.Errorf("zero limit = %q", got)
	}
	if got := RenderUsageBar(50, 100, 80); !strings.Contains(got, "50%") {
		t.Errorf("half full = %q", got)
	}
	if got := RenderUsageBar(300, 100, 80); !strings.Contains(got, "100%") {
		t.Errorf("over limit should clamp, got %q", got)
	}
}

func TestRenderSettings(t *testing.T) {
	ws := settings.Defaults()
	ws[settings.KeyPassword] = prefs.StringValue("secret")

	out := RenderSettings(ws, settings.DefaultChoices(), 80)
	for _, want := range []string{"MUSIKREMOTE SETTINGS", "Connection", "Playback", "Security", "********"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "secret") {
		t.Error("output leaks the password")
	}
}

func TestClampWidth(t *testing.T) {
	tests := []struct {
		width int
		err   error
		want  int
	}{
		{0, errors.New("not a tty"), MinTerminalWidth},
		{20, nil, MinTerminalWidth},
		{80, nil, 80},
		{300, nil, MaxContentWidth},
	}
	for _, tt := range tests {
		if got := clampWidth(tt.width, tt.err); got != tt.want {
			t.Errorf("clampWidth(%d, %v) = %d, want %d", tt.width, tt.err, got, tt.want)
		}
	}
}
