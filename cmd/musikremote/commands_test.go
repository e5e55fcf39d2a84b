package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muurk/musikremote/internal/settings"
)

// execute runs the root command with fresh flag values against a config
// file in dir
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	configPath, storeBackend, logLevel, offline = "", "", "", false
	outputFormat, assumeYes, noInput, verify = "", false, false, false
	scanTimeout, quickScan, applyServer, listenAddr, reconnect, forceInit = 0, false, "", "", false, false
	t.Setenv("MUSIKREMOTE_LOG_LEVEL", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(dir, "config.yaml")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func showJSON(t *testing.T, dir string) map[string]any {
	t.Helper()
	out, err := execute(t, dir, "show", "--format", "json")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	var view map[string]any
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("show output is not JSON: %v\n%s", err, out)
	}
	return view
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		arg     string
		key     string
		value   string
		wantErr bool
	}{
		{"address=media-pc", "address", "media-pc", false},
		{"password=a=b", "password", "a=b", false},
		{"password=", "password", "", false},
		{" main_port =7905", "main_port", "7905", false},
		{"address", "", "", true},
		{"=value", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			key, value, err := parseAssignment(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseAssignment(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if string(key) != tt.key || value != tt.value {
				t.Errorf("parseAssignment(%q) = %q, %q, want %q, %q", tt.arg, key, value, tt.key, tt.value)
			}
		})
	}
}

func TestShow_Defaults(t *testing.T) {
	view := showJSON(t, t.TempDir())

	if view["address"] != settings.DefaultAddress {
		t.Errorf("address = %v, want %q", view["address"], settings.DefaultAddress)
	}
	if view["main_port"] != float64(settings.DefaultMainPort) {
		t.Errorf("main_port = %v, want %d", view["main_port"], settings.DefaultMainPort)
	}
	if view["password"] != false {
		t.Errorf("password = %v, want false (not set)", view["password"])
	}
}

func TestShow_UnknownFormat(t *testing.T) {
	_, err := execute(t, t.TempDir(), "show", "--format", "xml")
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestSet_NormalizesAndPersists(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "--offline", "set", "address=media-pc", "main_port=abc", "password=secret")
	if err != nil {
		t.Fatalf("set failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Preferences saved") {
		t.Errorf("expected save result in output:\n%s", out)
	}
	if strings.Contains(out, "secret") {
		t.Errorf("password leaked into output:\n%s", out)
	}

	view := showJSON(t, dir)
	if view["address"] != "media-pc" {
		t.Errorf("address = %v, want media-pc", view["address"])
	}
	if view["main_port"] != float64(0) {
		t.Errorf("main_port = %v, want 0 for unparseable input", view["main_port"])
	}
	if view["password"] != true {
		t.Errorf("password = %v, want true (set)", view["password"])
	}
}

func TestSet_GatedToggle(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"declined without input", []string{"--no-input"}, false},
		{"affirmed with yes", []string{"--yes"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			args := append([]string{"--offline", "set", "ssl_enabled=on"}, tt.args...)
			if out, err := execute(t, dir, args...); err != nil {
				t.Fatalf("set failed: %v\n%s", err, out)
			}
			if got := showJSON(t, dir)["ssl_enabled"]; got != tt.want {
				t.Errorf("ssl_enabled = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSet_Verify(t *testing.T) {
	out, err := execute(t, t.TempDir(), "--offline", "set", "transcoder_bitrate_index=192 kbps", "--verify")
	if err != nil {
		t.Fatalf("set --verify failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Settings verified.") {
		t.Errorf("expected verification message:\n%s", out)
	}
}

func TestSet_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, "--offline", "set", "volume=11")
	if !errors.Is(err, settings.ErrUnknownKey) {
		t.Errorf("unknown key error = %v, want ErrUnknownKey", err)
	}

	_, err = execute(t, dir, "--offline", "set", "album_art_enabled=maybe")
	if err == nil {
		t.Error("expected error for invalid toggle value")
	}

	_, err = execute(t, dir, "--offline", "set", "address")
	if err == nil {
		t.Error("expected error for missing '='")
	}
}

func TestSet_NoChanges(t *testing.T) {
	out, err := execute(t, t.TempDir(), "--offline", "set", "address="+settings.DefaultAddress)
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !strings.Contains(out, "No changes to save.") {
		t.Errorf("expected no-changes message:\n%s", out)
	}
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, dir, "--offline", "set", "address=media-pc"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, err := execute(t, dir, "--offline", "reset"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if got := showJSON(t, dir)["address"]; got != settings.DefaultAddress {
		t.Errorf("address after reset = %v, want %q", got, settings.DefaultAddress)
	}
}

func TestKeys(t *testing.T) {
	out, err := execute(t, t.TempDir(), "keys")
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	for _, key := range settings.Keys() {
		if !strings.Contains(out, string(key)) {
			t.Errorf("keys output missing %s", key)
		}
	}
}

func TestConfigInitAndPath(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, filepath.Join(dir, "config.yaml")) {
		t.Errorf("config init output = %q", out)
	}

	if _, err := execute(t, dir, "config", "init"); err == nil {
		t.Error("expected second init to refuse overwriting")
	}
	if _, err := execute(t, dir, "config", "init", "--force"); err != nil {
		t.Errorf("config init --force failed: %v", err)
	}

	out, err = execute(t, dir, "config", "path")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if !strings.Contains(out, filepath.Join(dir, "prefs.yaml")) {
		t.Errorf("config path output missing prefs file:\n%s", out)
	}
}

func TestScan_QuickAndTimeoutAreExclusive(t *testing.T) {
	_, err := execute(t, t.TempDir(), "scan", "--quick", "--timeout", "10")
	if err == nil {
		t.Fatal("expected --quick and --timeout to be rejected together")
	}
}

func TestStoreFlagRejectsUnknownBackend(t *testing.T) {
	_, err := execute(t, t.TempDir(), "--store", "redis", "show")
	if err == nil || !strings.Contains(err.Error(), "unknown store backend") {
		t.Fatalf("expected backend error, got %v", err)
	}
}
