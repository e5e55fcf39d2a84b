package settings

import (
	"github.com/muurk/musikremote/internal/prefs"
)

type rawShape int

const (
	shapeText rawShape = iota
	shapeToggle
	shapeIndex
)

func (s rawShape) String() string {
	switch s {
	case shapeText:
		return "text"
	case shapeToggle:
		return "toggle"
	default:
		return "index"
	}
}

// RawInput is unvalidated user input for one field: text for text and
// numeric fields, a flag for toggles, an index for choices.
type RawInput struct {
	shape rawShape
	text  string
	flag  bool
	index int
}

// Text returns raw text input
func Text(s string) RawInput { return RawInput{shape: shapeText, text: s} }

// Toggle returns raw toggle input
func Toggle(b bool) RawInput { return RawInput{shape: shapeToggle, flag: b} }

// Index returns raw choice input
func Index(i int) RawInput { return RawInput{shape: shapeIndex, index: i} }

// RawEdits maps keys to raw user input
type RawEdits map[prefs.Key]RawInput

// EditsBuilder provides a fluent API for assembling raw edits.
//
// Example usage:
//
//	edits := settings.NewEditsBuilder().
//	    SetServer("music.local", "7905", "7906").
//	    SetPassword("secret").
//	    SetBitrateIndex(4).
//	    Build()
type EditsBuilder struct {
	edits RawEdits
}

// NewEditsBuilder creates an empty builder
func NewEditsBuilder() *EditsBuilder {
	return &EditsBuilder{edits: RawEdits{}}
}

// Set records raw input for any key
func (b *EditsBuilder) Set(key prefs.Key, in RawInput) *EditsBuilder {
	b.edits[key] = in
	return b
}

// SetAddress sets the server hostname or IP address
func (b *EditsBuilder) SetAddress(address string) *EditsBuilder {
	return b.Set(KeyAddress, Text(address))
}

// SetMainPort sets the metadata port from user text
func (b *EditsBuilder) SetMainPort(text string) *EditsBuilder {
	return b.Set(KeyMainPort, Text(text))
}

// SetAudioPort sets the audio port from user text
func (b *EditsBuilder) SetAudioPort(text string) *EditsBuilder {
	return b.Set(KeyAudioPort, Text(text))
}

// SetServer sets address and both ports at once
func (b *EditsBuilder) SetServer(address, mainPort, audioPort string) *EditsBuilder {
	return b.SetAddress(address).SetMainPort(mainPort).SetAudioPort(audioPort)
}

// SetPassword sets the server password
func (b *EditsBuilder) SetPassword(password string) *EditsBuilder {
	return b.Set(KeyPassword, Text(password))
}

// SetAlbumArt enables or disables album art
func (b *EditsBuilder) SetAlbumArt(enabled bool) *EditsBuilder {
	return b.Set(KeyAlbumArtEnabled, Toggle(enabled))
}

// SetMessageCompression enables or disables websocket compression
func (b *EditsBuilder) SetMessageCompression(enabled bool) *EditsBuilder {
	return b.Set(KeyMessageCompression, Toggle(enabled))
}

// SetSoftwareVolume enables or disables local volume control
func (b *EditsBuilder) SetSoftwareVolume(enabled bool) *EditsBuilder {
	return b.Set(KeySoftwareVolume, Toggle(enabled))
}

// SetBitrateIndex selects a transcoder bitrate
func (b *EditsBuilder) SetBitrateIndex(idx int) *EditsBuilder {
	return b.Set(KeyTranscoderBitrateIndex, Index(idx))
}

// SetCacheSizeIndex selects a disk cache size
func (b *EditsBuilder) SetCacheSizeIndex(idx int) *EditsBuilder {
	return b.Set(KeyDiskCacheSizeIndex, Index(idx))
}

// HasChanges returns true if any edit has been recorded
func (b *EditsBuilder) HasChanges() bool {
	return len(b.edits) > 0
}

// Reset discards every recorded edit
func (b *EditsBuilder) Reset() *EditsBuilder {
	b.edits = RawEdits{}
	return b
}

// Build returns a copy of the recorded edits.
//
// Gated toggles have no setter here; they go through a Session so the
// risk confirmation cannot be skipped by accident.
func (b *EditsBuilder) Build() RawEdits {
	out := make(RawEdits, len(b.edits))
	for k, v := range b.edits {
		out[k] = v
	}
	return out
}
