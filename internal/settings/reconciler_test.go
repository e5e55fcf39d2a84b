package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/muurk/musikremote/internal/prefs"
)

func TestLoad_AbsentKeysUseDefaults(t *testing.T) {
	r, _ := newTestReconciler(prefs.NewMemoryStore(nil))

	if diff := cmp.Diff(Defaults(), r.Load()); diff != "" {
		t.Errorf("Load() on empty store mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_StoredValuesOverrideDefaults(t *testing.T) {
	store := prefs.NewMemoryStore(map[prefs.Key]prefs.Value{
		KeyAddress:        prefs.StringValue("music.local"),
		KeyMainPort:       prefs.IntValue(9000),
		KeySoftwareVolume: prefs.BoolValue(true),
	})
	r, _ := newTestReconciler(store)

	want := Defaults()
	want[KeyAddress] = prefs.StringValue("music.local")
	want[KeyMainPort] = prefs.IntValue(9000)
	want[KeySoftwareVolume] = prefs.BoolValue(true)

	if diff := cmp.Diff(want, r.Load()); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_NormalizesStoredValues(t *testing.T) {
	store := prefs.NewMemoryStore(map[prefs.Key]prefs.Value{
		KeyMainPort:               prefs.StringValue("9000"), // wrong kind
		KeyTranscoderBitrateIndex: prefs.IntValue(99),
		KeyDiskCacheSizeIndex:     prefs.IntValue(-1),
	})
	r, _ := newTestReconciler(store)
	ws := r.Load()

	if got := ws.Int(KeyMainPort); got != DefaultMainPort {
		t.Errorf("wrong-kind main_port should load as default, got %d", got)
	}
	if got := ws.Int(KeyTranscoderBitrateIndex); got != 0 {
		t.Errorf("out-of-range bitrate index should load as 0, got %d", got)
	}
	if got := ws.Int(KeyDiskCacheSizeIndex); got != 2 {
		t.Errorf("out-of-range cache index should load as 2, got %d", got)
	}
}

func TestValidateAndNormalize_Numeric(t *testing.T) {
	r, _ := newTestReconciler(prefs.NewMemoryStore(nil))

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"letters", "abc", 0},
		{"trailing junk", "80ab", 0},
		{"leading space", " 80", 0},
		{"decimal", "80.5", 0},
		{"hex", "0x1F", 0},
		{"valid", "8080", 8080},
		{"negative", "-1", -1},
		{"leading zero", "007905", 7905},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := r.ValidateAndNormalize(Defaults(), RawEdits{KeyMainPort: Text(tt.text)})
			if got := ws.Int(KeyMainPort); got != tt.want {
				t.Errorf("main_port from %q = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestValidateAndNormalize_Choices(t *testing.T) {
	r, _ := newTestReconciler(prefs.NewMemoryStore(nil))

	tests := []struct {
		key  prefs.Key
		idx  int
		want int
	}{
		{KeyTranscoderBitrateIndex, 0, 0},
		{KeyTranscoderBitrateIndex, 7, 7},
		{KeyTranscoderBitrateIndex, 8, 0},
		{KeyTranscoderBitrateIndex, -1, 0},
		{KeyDiskCacheSizeIndex, 5, 5},
		{KeyDiskCacheSizeIndex, 6, 2},
		{KeyDiskCacheSizeIndex, -3, 2},
		{KeyDiskCacheSizeIndex, 1000, 2},
	}
	for _, tt := range tests {
		base := Defaults()
		base[tt.key] = prefs.IntValue(1)
		ws := r.ValidateAndNormalize(base, RawEdits{tt.key: Index(tt.idx)})
		if got := ws.Int(tt.key); got != tt.want {
			t.Errorf("%s index %d normalized to %d, want %d", tt.key, tt.idx, got, tt.want)
		}
	}
}

func TestValidateAndNormalize_CustomChoices(t *testing.T) {
	r := NewReconciler(Options{
		Store: prefs.NewMemoryStore(nil),
		Choices: Choices{
			KeyTranscoderBitrateIndex: BitrateChoices[:2],
			KeyDiskCacheSizeIndex:     CacheSizeChoices,
		},
	})
	ws := r.ValidateAndNormalize(Defaults(), RawEdits{KeyTranscoderBitrateIndex: Index(2)})
	if got := ws.Int(KeyTranscoderBitrateIndex); got != 0 {
		t.Errorf("index past a shortened list should reset to default, got %d", got)
	}
}

func TestValidateAndNormalize_TextAndToggles(t *testing.T) {
	r, _ := newTestReconciler(prefs.NewMemoryStore(nil))

	edits := NewEditsBuilder().
		SetAddress("").
		SetPassword("  spaced  ").
		SetAlbumArt(false).
		SetSoftwareVolume(true).
		Build()
	ws := r.ValidateAndNormalize(Defaults(), edits)

	if got := ws.Str(KeyAddress); got != "" {
		t.Errorf("empty address should pass through, got %q", got)
	}
	if got := ws.Str(KeyPassword); got != "  spaced  " {
		t.Errorf("password should pass through unchanged, got %q", got)
	}
	if ws.Bool(KeyAlbumArtEnabled) {
		t.Error("album_art_enabled should be false")
	}
	if !ws.Bool(KeySoftwareVolume) {
		t.Error("software_volume should be true")
	}
}

func TestValidateAndNormalize_IgnoresMismatchedInput(t *testing.T) {
	r, _ := newTestReconciler(prefs.NewMemoryStore(nil))

	base := Defaults()
	ws := r.ValidateAndNormalize(base, RawEdits{
		KeyAlbumArtEnabled:        Text("false"),
		KeyAddress:                Toggle(true),
		KeyMainPort:               Index(3),
		KeyTranscoderBitrateIndex: Text("4"),
		"not_a_key":               Text("x"),
	})

	if diff := cmp.Diff(base, ws); diff != "" {
		t.Errorf("mismatched input should be ignored (-want +got):\n%s", diff)
	}
}

func TestValidateAndNormalize_CompletesAndDoesNotMutateBase(t *testing.T) {
	r, _ := newTestReconciler(prefs.NewMemoryStore(nil))

	base := WorkingSet{KeyAddress: prefs.StringValue("a")}
	ws := r.ValidateAndNormalize(base, RawEdits{KeyAddress: Text("b")})

	if len(ws) != len(Schema()) {
		t.Errorf("Expected complete set of %d keys, got %d", len(Schema()), len(ws))
	}
	if base.Str(KeyAddress) != "a" || len(base) != 1 {
		t.Error("base was modified")
	}
	if ws.Int(KeyAudioPort) != DefaultAudioPort {
		t.Errorf("missing base key should take default, got %d", ws.Int(KeyAudioPort))
	}
}

func TestCommit_NotifiesInOrder(t *testing.T) {
	store := prefs.NewMemoryStore(nil)
	r, rec := newTestReconciler(store)

	result := r.Commit(Defaults())
	if !result.Success {
		t.Fatalf("Commit() failed: %v", result.Error)
	}

	want := []string{"set_volume", "reload", "disconnect"}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("notification order mismatch (-want +got):\n%s", diff)
	}
	if len(rec.volumes) != 1 || rec.volumes[0] != 1.0 {
		t.Errorf("Expected exactly one SetVolume(1.0), got %v", rec.volumes)
	}
	if result.Entries != len(Schema()) {
		t.Errorf("Entries = %d, want %d", result.Entries, len(Schema()))
	}
	if len(result.Notifications) != 3 {
		t.Errorf("Expected 3 notifications, got %d", len(result.Notifications))
	}
}

func TestCommit_SoftwareVolumeSkipsSetVolume(t *testing.T) {
	r, rec := newTestReconciler(prefs.NewMemoryStore(nil))

	ws := Defaults()
	ws[KeySoftwareVolume] = prefs.BoolValue(true)
	if result := r.Commit(ws); !result.Success {
		t.Fatalf("Commit() failed: %v", result.Error)
	}

	if n := rec.count("set_volume"); n != 0 {
		t.Errorf("SetVolume called %d times with software volume on", n)
	}
	if rec.count("reload") != 1 || rec.count("disconnect") != 1 {
		t.Errorf("Expected one reload and one disconnect, got %v", rec.calls)
	}
}

func TestCommit_EveryCommitReloadsAndDisconnectsOnce(t *testing.T) {
	store := prefs.NewMemoryStore(nil)
	r, rec := newTestReconciler(store)

	// Unchanged values still notify.
	for i := 1; i <= 3; i++ {
		r.Commit(r.Load())
		if got := rec.count("reload"); got != i {
			t.Errorf("after %d commits reload count = %d", i, got)
		}
		if got := rec.count("disconnect"); got != i {
			t.Errorf("after %d commits disconnect count = %d", i, got)
		}
	}
}

func TestCommit_CollaboratorFailuresAreIndependent(t *testing.T) {
	r, rec := newTestReconciler(prefs.NewMemoryStore(nil))
	rec.volumeErr = errors.New("no audio device")
	rec.reloadErr = errors.New("proxy down")

	result := r.Commit(Defaults())
	if !result.Success {
		t.Fatalf("collaborator failures must not fail the commit: %v", result.Error)
	}
	if diff := cmp.Diff([]string{"set_volume", "reload", "disconnect"}, rec.calls); diff != "" {
		t.Errorf("all collaborators should be called (-want +got):\n%s", diff)
	}

	errs := result.NotificationErrors()
	if len(errs) != 2 {
		t.Fatalf("Expected 2 notification errors, got %d", len(errs))
	}
	if !errors.Is(errs[1], rec.reloadErr) {
		t.Errorf("second error should wrap the reload failure, got %v", errs[1])
	}
}

type panickingProxy struct{}

func (panickingProxy) Reload() error { panic("cache directory vanished") }

func TestCommit_PanickingCollaboratorDoesNotStopOthers(t *testing.T) {
	rec := &recorder{}
	r := NewReconciler(Options{
		Store:      prefs.NewMemoryStore(nil),
		Volume:     rec,
		Proxy:      panickingProxy{},
		Connection: rec,
	})

	result := r.Commit(Defaults())
	if !result.Success {
		t.Fatalf("Commit() failed: %v", result.Error)
	}
	if diff := cmp.Diff([]string{"set_volume", "disconnect"}, rec.calls); diff != "" {
		t.Errorf("collaborators after the panic should still be called (-want +got):\n%s", diff)
	}
	if len(result.Notifications) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(result.Notifications))
	}
	proxy := result.Notifications[1]
	if proxy.Collaborator != CollaboratorProxy || proxy.Err == nil {
		t.Fatalf("proxy notification = %+v, want a recorded error", proxy)
	}
	if !strings.Contains(proxy.Err.Error(), "cache directory vanished") {
		t.Errorf("proxy error = %v, want the panic value", proxy.Err)
	}
}

func TestCommit_NilCollaboratorsAreSkipped(t *testing.T) {
	r := NewReconciler(Options{Store: prefs.NewMemoryStore(nil)})
	result := r.Commit(Defaults())
	if !result.Success {
		t.Fatalf("Commit() failed: %v", result.Error)
	}
	if len(result.Notifications) != 0 {
		t.Errorf("Expected no notifications, got %d", len(result.Notifications))
	}
}

func TestCommit_StoreFailureSendsNoNotifications(t *testing.T) {
	store := &failingStore{MemoryStore: prefs.NewMemoryStore(nil)}
	r, rec := newTestReconciler(store)

	ws := Defaults()
	ws[KeyAddress] = prefs.StringValue("new.host")
	before := ws.Clone()

	result := r.Commit(ws)
	if result.Success {
		t.Fatal("Expected commit to fail")
	}
	if !errors.Is(result.Error, errDiskFull) {
		t.Errorf("Error should wrap the store failure, got %v", result.Error)
	}
	if len(rec.calls) != 0 {
		t.Errorf("Expected no notifications, got %v", rec.calls)
	}
	if len(result.Notifications) != 0 {
		t.Errorf("Expected empty Notifications, got %v", result.Notifications)
	}
	if diff := cmp.Diff(before, ws); diff != "" {
		t.Errorf("WorkingSet must be retained for retry (-want +got):\n%s", diff)
	}
}

func TestCommit_FailedWriteLeavesPriorValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	store, err := prefs.OpenFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	r, rec := newTestReconciler(store)

	first := Defaults()
	first[KeyAddress] = prefs.StringValue("first.host")
	if result := r.Commit(first); !result.Success {
		t.Fatalf("first commit failed: %v", result.Error)
	}
	rec.calls = nil

	// Replace the file with a directory so the atomic rename fails.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(path, 0o700); err != nil {
		t.Fatal(err)
	}

	second := r.Load()
	second[KeyAddress] = prefs.StringValue("second.host")
	second[KeyMainPort] = prefs.IntValue(1)
	if result := r.Commit(second); result.Success {
		t.Fatal("Expected second commit to fail")
	}
	if len(rec.calls) != 0 {
		t.Errorf("failed commit notified %v", rec.calls)
	}

	if diff := cmp.Diff(first, r.Load()); diff != "" {
		t.Errorf("Load after failed commit should return pre-commit values (-want +got):\n%s", diff)
	}
}

func TestReset(t *testing.T) {
	store := prefs.NewMemoryStore(map[prefs.Key]prefs.Value{
		KeyAddress:    prefs.StringValue("custom"),
		KeySSLEnabled: prefs.BoolValue(true),
	})
	r, rec := newTestReconciler(store)

	if result := r.Reset(); !result.Success {
		t.Fatalf("Reset() failed: %v", result.Error)
	}
	if diff := cmp.Diff(Defaults(), r.Load()); diff != "" {
		t.Errorf("Load after Reset mismatch (-want +got):\n%s", diff)
	}
	if rec.count("disconnect") != 1 {
		t.Errorf("Reset should notify like any commit, got %v", rec.calls)
	}
}
