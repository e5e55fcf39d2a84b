package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/musikremote/internal/logging"
	"github.com/muurk/musikremote/internal/prefs"
)

var (
	// ErrSessionClosed is returned by a session that was saved or cancelled
	ErrSessionClosed = errors.New("settings session is closed")

	// ErrUnknownKey is returned for keys outside the schema
	ErrUnknownKey = errors.New("unknown preference")

	// ErrWrongInput is returned when a setter does not match the field type
	ErrWrongInput = errors.New("wrong input type for preference")
)

// Session is one editing session: a WorkingSet loaded at Open, the raw
// edits made since, and a Gate per gated toggle.
type Session struct {
	rec    *Reconciler
	base   WorkingSet
	edits  RawEdits
	gates  map[prefs.Key]*Gate
	closed bool
}

// Open loads the current preferences and starts a session
func Open(rec *Reconciler) *Session {
	base := rec.Load()
	gates := make(map[prefs.Key]*Gate)
	for _, f := range schema {
		if f.Input == InputGatedToggle {
			gates[f.Key] = NewGate(base.Bool(f.Key))
		}
	}
	return &Session{
		rec:   rec,
		base:  base,
		edits: RawEdits{},
		gates: gates,
	}
}

// Base returns the WorkingSet as loaded
func (s *Session) Base() WorkingSet {
	return s.base.Clone()
}

func (s *Session) field(key prefs.Key, inputs ...InputType) (Field, error) {
	if s.closed {
		return Field{}, ErrSessionClosed
	}
	f, ok := Lookup(key)
	if !ok {
		return Field{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	for _, in := range inputs {
		if f.Input == in {
			return f, nil
		}
	}
	return Field{}, fmt.Errorf("%w: %s is a %s", ErrWrongInput, key, f.Input)
}

func (s *Session) record(f Field, in RawInput) {
	before := s.Current()[f.Key]
	s.edits[f.Key] = in
	after := s.Current()[f.Key]
	logging.LogSettingChange(string(f.Key), displayForLog(f, before), displayForLog(f, after))
}

// SetText edits a text field
func (s *Session) SetText(key prefs.Key, text string) error {
	f, err := s.field(key, InputText)
	if err != nil {
		return err
	}
	s.record(f, Text(text))
	return nil
}

// SetNumber edits a numeric field from user text
func (s *Session) SetNumber(key prefs.Key, text string) error {
	f, err := s.field(key, InputNumeric)
	if err != nil {
		return err
	}
	s.record(f, Text(text))
	return nil
}

// SetChoice edits a choice field
func (s *Session) SetChoice(key prefs.Key, idx int) error {
	f, err := s.field(key, InputChoice)
	if err != nil {
		return err
	}
	s.record(f, Index(idx))
	return nil
}

// SetToggle edits a toggle. For gated toggles it returns true when the
// risk warning must be shown; the ON state is held back until Affirm.
func (s *Session) SetToggle(key prefs.Key, on bool) (bool, error) {
	f, err := s.field(key, InputToggle, InputGatedToggle)
	if err != nil {
		return false, err
	}
	if g, ok := s.gates[key]; ok {
		before := g.Value()
		prompt := g.ApplyUserEdit(on)
		logging.LogSettingChange(string(key), strconv.FormatBool(before), g.State().String())
		return prompt, nil
	}
	s.record(f, Toggle(on))
	return false, nil
}

// Affirm accepts the pending ON edit of a gated toggle
func (s *Session) Affirm(key prefs.Key) error {
	g, err := s.gate(key)
	if err != nil {
		return err
	}
	if g.Affirm() {
		logging.LogSettingChange(string(key), GatePending.String(), g.State().String())
	}
	return nil
}

// Decline rejects the pending ON edit of a gated toggle, resetting it to off
func (s *Session) Decline(key prefs.Key) error {
	g, err := s.gate(key)
	if err != nil {
		return err
	}
	if g.Decline() {
		logging.LogSettingChange(string(key), GatePending.String(), g.State().String())
	}
	return nil
}

func (s *Session) gate(key prefs.Key) (*Gate, error) {
	if _, err := s.field(key, InputGatedToggle); err != nil {
		return nil, err
	}
	return s.gates[key], nil
}

// Gate returns the gate for a gated toggle, nil for any other key
func (s *Session) Gate(key prefs.Key) *Gate {
	return s.gates[key]
}

// Pending lists gated toggles awaiting affirmation, in schema order
func (s *Session) Pending() []prefs.Key {
	var keys []prefs.Key
	for _, key := range Keys() {
		if g, ok := s.gates[key]; ok && g.State() == GatePending {
			keys = append(keys, key)
		}
	}
	return keys
}

// SetString edits any field from command-line text. Toggles accept
// true/false, on/off and yes/no; choices accept a label or an index.
func (s *Session) SetString(key prefs.Key, raw string) (bool, error) {
	f, err := s.field(key, InputText, InputNumeric, InputToggle, InputGatedToggle, InputChoice)
	if err != nil {
		return false, err
	}
	switch f.Input {
	case InputText:
		return false, s.SetText(key, raw)
	case InputNumeric:
		return false, s.SetNumber(key, raw)
	case InputChoice:
		idx, err := s.rec.choices[key].Parse(raw)
		if err != nil {
			return false, fmt.Errorf("%s: %w", key, err)
		}
		return false, s.SetChoice(key, idx)
	default:
		on, err := parseToggle(raw)
		if err != nil {
			return false, fmt.Errorf("%s: %w", key, err)
		}
		return s.SetToggle(key, on)
	}
}

func parseToggle(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "yes", "y", "enable", "enabled":
		return true, nil
	case "off", "no", "n", "disable", "disabled":
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid toggle value %q (use on/off)", raw)
	}
	return b, nil
}

// Current returns the WorkingSet that Save would commit
func (s *Session) Current() WorkingSet {
	edits := make(RawEdits, len(s.edits)+len(s.gates))
	for k, v := range s.edits {
		edits[k] = v
	}
	for key, g := range s.gates {
		edits[key] = Toggle(g.Value())
	}
	return s.rec.ValidateAndNormalize(s.base, edits)
}

// Changes lists what Save would change relative to the loaded values
func (s *Session) Changes() []Change {
	return s.base.Diff(s.Current())
}

// Save validates and commits the session. The session ends when the commit
// succeeds; on failure it stays open so the caller can retry.
func (s *Session) Save() (*CommitResult, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	result := s.rec.Commit(s.Current())
	if result.Success {
		s.closed = true
	}
	return result, nil
}

// Cancel discards the session without touching the store
func (s *Session) Cancel() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	s.edits = nil
	return nil
}

// Closed reports whether the session has ended
func (s *Session) Closed() bool {
	return s.closed
}
