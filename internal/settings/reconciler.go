package settings

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/muurk/musikremote/internal/logging"
	"github.com/muurk/musikremote/internal/prefs"
)

// VolumeControl is the playback volume subsystem
type VolumeControl interface {
	// SetVolume sets the normalized output level (0.0-1.0)
	SetVolume(level float64) error
}

// StreamingProxy is the local audio proxy
type StreamingProxy interface {
	// Reload picks up new bitrate, cache, SSL and certificate settings
	Reload() error
}

// ConnectionService owns the websocket connection to the server
type ConnectionService interface {
	// Disconnect drops the current connection so the next use reconnects
	// with the new address, port, SSL and password settings
	Disconnect() error
}

// Collaborator names used in notifications and logs
const (
	CollaboratorVolume     = "volume"
	CollaboratorProxy      = "streaming_proxy"
	CollaboratorConnection = "connection"
)

// MaxVolume is the level forced when software volume is disabled
const MaxVolume = 1.0

// Options configures a Reconciler
type Options struct {
	Store prefs.Store

	// Collaborators. A nil collaborator is skipped.
	Volume     VolumeControl
	Proxy      StreamingProxy
	Connection ConnectionService

	// Choices supplies the choice lists. Defaults to DefaultChoices().
	Choices Choices
}

// Reconciler loads, validates and commits preferences
type Reconciler struct {
	store      prefs.Store
	volume     VolumeControl
	proxy      StreamingProxy
	connection ConnectionService
	choices    Choices
}

// NewReconciler creates a reconciler. opts.Store is required.
func NewReconciler(opts Options) *Reconciler {
	if opts.Store == nil {
		panic("settings: NewReconciler requires a Store")
	}
	choices := opts.Choices
	if choices == nil {
		choices = DefaultChoices()
	}
	return &Reconciler{
		store:      opts.Store,
		volume:     opts.Volume,
		proxy:      opts.Proxy,
		connection: opts.Connection,
		choices:    choices,
	}
}

// Choices returns the choice lists in use
func (r *Reconciler) Choices() Choices {
	return r.choices
}

// Load reads every key from the store. Absent keys, and keys stored with
// the wrong kind, take their default. Choice indices are normalized.
func (r *Reconciler) Load() WorkingSet {
	ws := make(WorkingSet, len(schema))
	for _, f := range schema {
		v, ok := r.store.Get(f.Key, f.Kind)
		if !ok {
			v = f.Default
		}
		ws[f.Key] = r.normalizeStored(f, v)
	}
	return ws
}

// ValidateAndNormalize applies raw edits on top of base and returns a
// complete WorkingSet. base is not modified; keys missing from it take
// their default.
//
// Gated toggles pass through like any other toggle. Callers that take
// user input should go through a Session, which applies the gates.
func (r *Reconciler) ValidateAndNormalize(base WorkingSet, edits RawEdits) WorkingSet {
	ws := r.complete(base)

	for key, in := range edits {
		f, ok := Lookup(key)
		if !ok {
			logging.Warn("Ignoring edit for unknown preference", zap.String("key", string(key)))
			continue
		}
		v, ok := r.normalizeInput(f, in)
		if !ok {
			logging.Warn("Ignoring edit with mismatched input",
				zap.String("key", string(key)),
				zap.String("field", f.Input.String()),
				zap.String("input", in.shape.String()),
			)
			continue
		}
		ws[key] = v
	}
	return ws
}

// complete copies base, filling in missing or wrong-kind keys with defaults
func (r *Reconciler) complete(base WorkingSet) WorkingSet {
	ws := make(WorkingSet, len(schema))
	for _, f := range schema {
		v, ok := base[f.Key]
		if !ok || v.Kind() != f.Kind {
			v = f.Default
		}
		ws[f.Key] = r.normalizeStored(f, v)
	}
	return ws
}

func (r *Reconciler) normalizeStored(f Field, v prefs.Value) prefs.Value {
	if f.Input == InputChoice {
		return prefs.IntValue(r.normalizeChoice(f, v.Int()))
	}
	return v
}

func (r *Reconciler) normalizeInput(f Field, in RawInput) (prefs.Value, bool) {
	switch f.Input {
	case InputText:
		if in.shape == shapeText {
			return prefs.StringValue(in.text), true
		}
	case InputNumeric:
		if in.shape == shapeText {
			return prefs.IntValue(parseNumber(in.text)), true
		}
	case InputToggle, InputGatedToggle:
		if in.shape == shapeToggle {
			return prefs.BoolValue(in.flag), true
		}
	case InputChoice:
		if in.shape == shapeIndex {
			return prefs.IntValue(r.normalizeChoice(f, in.index)), true
		}
	}
	return prefs.Value{}, false
}

// parseNumber parses base-10 text. Empty or invalid text is 0.
func parseNumber(text string) int {
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return n
}

func (r *Reconciler) normalizeChoice(f Field, idx int) int {
	if r.choices[f.Key].Contains(idx) {
		return idx
	}
	return f.Default.Int()
}

// Notification records one collaborator call made after a commit
type Notification struct {
	Collaborator string
	Action       string
	Err          error
}

// CommitResult reports the outcome of Commit
type CommitResult struct {
	// Success indicates the batch reached the store
	Success bool

	// Error is the store failure when Success is false
	Error error

	// Entries is the number of preferences written
	Entries int

	// Notifications lists collaborator calls in the order they were made.
	// Empty when the commit failed.
	Notifications []Notification
}

// NotificationErrors returns the collaborator failures, if any
func (cr *CommitResult) NotificationErrors() []error {
	var errs []error
	for _, n := range cr.Notifications {
		if n.Err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", n.Collaborator, n.Action, n.Err))
		}
	}
	return errs
}

// Commit writes ws to the store as one batch and notifies collaborators.
// On failure ws is untouched and nothing is notified.
func (r *Reconciler) Commit(ws WorkingSet) *CommitResult {
	complete := r.complete(ws)
	entries := complete.Entries()

	if err := r.store.CommitBatch(entries); err != nil {
		logging.LogCommit(len(entries), err)
		return &CommitResult{
			Success: false,
			Error:   fmt.Errorf("commit preferences: %w", err),
		}
	}
	logging.LogCommit(len(entries), nil)

	return &CommitResult{
		Success:       true,
		Entries:       len(entries),
		Notifications: r.notify(complete),
	}
}

// notify calls each collaborator in order. A failure is recorded and the
// remaining collaborators are still called.
func (r *Reconciler) notify(ws WorkingSet) []Notification {
	var out []Notification

	call := func(collaborator, action string, fn func() error) {
		err := guard(collaborator, fn)
		logging.LogNotification(collaborator, action, err)
		out = append(out, Notification{Collaborator: collaborator, Action: action, Err: err})
	}

	if r.volume != nil && !ws.Bool(KeySoftwareVolume) {
		call(CollaboratorVolume, "set_volume", func() error { return r.volume.SetVolume(MaxVolume) })
	}
	if r.proxy != nil {
		call(CollaboratorProxy, "reload", r.proxy.Reload)
	}
	if r.connection != nil {
		call(CollaboratorConnection, "disconnect", r.connection.Disconnect)
	}
	return out
}

// guard runs fn and turns a panic into an error
func guard(collaborator string, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s panicked: %v", collaborator, p)
		}
	}()
	return fn()
}

// Reset commits the defaults for every key
func (r *Reconciler) Reset() *CommitResult {
	return r.Commit(Defaults())
}
