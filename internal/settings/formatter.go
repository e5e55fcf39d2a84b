package settings

import (
	"fmt"
	"strings"

	"github.com/muurk/musikremote/internal/prefs"
)

const secretMask = "********"

// FormatValue renders a stored value the way a user would enter it
func FormatValue(f Field, v prefs.Value, choices Choices) string {
	switch f.Input {
	case InputChoice:
		if label := choices[f.Key].Label(v.Int()); label != "" {
			return label
		}
		return fmt.Sprintf("index %d", v.Int())
	case InputToggle, InputGatedToggle:
		if v.Bool() {
			return "on"
		}
		return "off"
	default:
		if f.Secret {
			if v.Str() == "" {
				return "(none)"
			}
			return secretMask
		}
		if f.Kind == prefs.KindString && v.Str() == "" {
			return "(empty)"
		}
		return v.String()
	}
}

func displayForLog(f Field, v prefs.Value) string {
	if f.Secret {
		return secretMask
	}
	return v.String()
}

// Summary returns a one-line summary of where ws connects
func Summary(ws WorkingSet) string {
	scheme := "ws"
	if ws.Bool(KeySSLEnabled) {
		scheme = "wss"
	}
	return fmt.Sprintf("musikcube @ %s://%s:%d (audio %d)",
		scheme, ws.Str(KeyAddress), ws.Int(KeyMainPort), ws.Int(KeyAudioPort))
}

// FormatCompact returns one "label: value" line per field
func FormatCompact(ws WorkingSet, choices Choices) string {
	var b strings.Builder

	width := 0
	for _, f := range schema {
		if len(f.Label) > width {
			width = len(f.Label)
		}
	}
	for _, f := range schema {
		b.WriteString(fmt.Sprintf("%-*s  %s\n", width+1, f.Label+":", FormatValue(f, ws[f.Key], choices)))
	}
	return b.String()
}

// Section is a titled group of fields for display
type Section struct {
	Title string
	Keys  []prefs.Key
}

// Sections returns the display grouping of the schema
func Sections() []Section {
	return []Section{
		{"Connection", []prefs.Key{KeyAddress, KeyMainPort, KeyAudioPort, KeyPassword, KeyMessageCompression}},
		{"Playback", []prefs.Key{KeyAlbumArtEnabled, KeySoftwareVolume, KeyTranscoderBitrateIndex, KeyDiskCacheSizeIndex}},
		{"Security", []prefs.Key{KeySSLEnabled, KeyCertValidationDisabled}},
	}
}

// FormatDetailed groups fields into connection, playback and security sections
func FormatDetailed(ws WorkingSet, choices Choices) string {
	var b strings.Builder

	b.WriteString(Summary(ws))
	b.WriteString("\n\n")
	for _, sec := range Sections() {
		b.WriteString(fmt.Sprintf("=== %s ===\n", sec.Title))
		for _, key := range sec.Keys {
			f, _ := Lookup(key)
			b.WriteString(fmt.Sprintf("%-31s %s\n", f.Label+":", FormatValue(f, ws[key], choices)))
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// FormatChanges renders a diff as "key: old -> new" lines
func FormatChanges(changes []Change, choices Choices) string {
	if len(changes) == 0 {
		return "No changes\n"
	}
	var b strings.Builder
	for _, c := range changes {
		f, ok := Lookup(c.Key)
		if !ok {
			b.WriteString(fmt.Sprintf("%s: %s -> %s\n", c.Key, c.Old, c.New))
			continue
		}
		b.WriteString(fmt.Sprintf("%s: %s -> %s\n", c.Key,
			FormatValue(f, c.Old, choices), FormatValue(f, c.New, choices)))
	}
	return b.String()
}
