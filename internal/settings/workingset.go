package settings

import (
	"github.com/muurk/musikremote/internal/prefs"
)

// WorkingSet is an in-memory snapshot of the preferences being edited
type WorkingSet map[prefs.Key]prefs.Value

// Clone returns an independent copy
func (ws WorkingSet) Clone() WorkingSet {
	out := make(WorkingSet, len(ws))
	for k, v := range ws {
		out[k] = v
	}
	return out
}

// Str returns the string value of key, "" if missing or not a string
func (ws WorkingSet) Str(key prefs.Key) string {
	return ws[key].Str()
}

// Int returns the int value of key, 0 if missing or not an int
func (ws WorkingSet) Int(key prefs.Key) int {
	return ws[key].Int()
}

// Bool returns the bool value of key, false if missing or not a bool
func (ws WorkingSet) Bool(key prefs.Key) bool {
	return ws[key].Bool()
}

// Entries returns the set as a commit batch in schema order.
// Keys outside the schema follow in lexical order.
func (ws WorkingSet) Entries() []prefs.Entry {
	entries := make([]prefs.Entry, 0, len(ws))
	seen := make(map[prefs.Key]bool, len(ws))
	for _, key := range Keys() {
		if v, ok := ws[key]; ok {
			entries = append(entries, prefs.Entry{Key: key, Value: v})
			seen[key] = true
		}
	}
	for _, key := range prefs.SortedKeys(ws) {
		if !seen[key] {
			entries = append(entries, prefs.Entry{Key: key, Value: ws[key]})
		}
	}
	return entries
}

// Change describes one key whose value differs between two working sets
type Change struct {
	Key prefs.Key
	Old prefs.Value
	New prefs.Value
}

// Diff lists the keys whose value in next differs from ws, in schema order
func (ws WorkingSet) Diff(next WorkingSet) []Change {
	var changes []Change
	for _, key := range Keys() {
		oldV, newV := ws[key], next[key]
		if !oldV.Equal(newV) {
			changes = append(changes, Change{Key: key, Old: oldV, New: newV})
		}
	}
	return changes
}
