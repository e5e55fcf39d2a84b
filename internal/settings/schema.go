package settings

import (
	"fmt"

	"github.com/muurk/musikremote/internal/prefs"
)

// Preference keys
const (
	KeyAddress                prefs.Key = "address"
	KeyMainPort               prefs.Key = "main_port"
	KeyAudioPort              prefs.Key = "audio_port"
	KeyPassword               prefs.Key = "password"
	KeyAlbumArtEnabled        prefs.Key = "album_art_enabled"
	KeyMessageCompression     prefs.Key = "message_compression_enabled"
	KeySoftwareVolume         prefs.Key = "software_volume"
	KeySSLEnabled             prefs.Key = "ssl_enabled"
	KeyCertValidationDisabled prefs.Key = "cert_validation_disabled"
	KeyTranscoderBitrateIndex prefs.Key = "transcoder_bitrate_index"
	KeyDiskCacheSizeIndex     prefs.Key = "disk_cache_size_index"
)

// Default values for fields whose defaults are referenced elsewhere
const (
	DefaultAddress   = "192.168.1.100"
	DefaultMainPort  = 7905
	DefaultAudioPort = 7906
)

// InputType describes how raw user input for a field is interpreted
type InputType int

const (
	// InputText passes text through unchanged
	InputText InputType = iota
	// InputNumeric parses text as a base-10 integer
	InputNumeric
	// InputToggle is a plain two-state flag
	InputToggle
	// InputGatedToggle is a flag whose ON transition needs user affirmation
	InputGatedToggle
	// InputChoice is an index into a choice list
	InputChoice
)

// String returns a short name for the input type
func (t InputType) String() string {
	switch t {
	case InputText:
		return "text"
	case InputNumeric:
		return "number"
	case InputToggle:
		return "toggle"
	case InputGatedToggle:
		return "gated toggle"
	case InputChoice:
		return "choice"
	default:
		return fmt.Sprintf("InputType(%d)", int(t))
	}
}

// Field is one entry of the preference schema
type Field struct {
	Key         prefs.Key
	Kind        prefs.Kind
	Input       InputType
	Default     prefs.Value
	Label       string
	Description string
	Secret      bool // mask in output and logs
}

var schema = []Field{
	{
		Key:         KeyAddress,
		Kind:        prefs.KindString,
		Input:       InputText,
		Default:     prefs.StringValue(DefaultAddress),
		Label:       "Address",
		Description: "Hostname or IP of the musikcube server",
	},
	{
		Key:         KeyMainPort,
		Kind:        prefs.KindInt,
		Input:       InputNumeric,
		Default:     prefs.IntValue(DefaultMainPort),
		Label:       "Main port",
		Description: "Metadata (websocket) port",
	},
	{
		Key:         KeyAudioPort,
		Kind:        prefs.KindInt,
		Input:       InputNumeric,
		Default:     prefs.IntValue(DefaultAudioPort),
		Label:       "Audio port",
		Description: "Audio streaming (http) port",
	},
	{
		Key:         KeyPassword,
		Kind:        prefs.KindString,
		Input:       InputText,
		Default:     prefs.StringValue(""),
		Label:       "Password",
		Description: "Server password",
		Secret:      true,
	},
	{
		Key:         KeyAlbumArtEnabled,
		Kind:        prefs.KindBool,
		Input:       InputToggle,
		Default:     prefs.BoolValue(true),
		Label:       "Album art",
		Description: "Fetch album art from the server",
	},
	{
		Key:         KeyMessageCompression,
		Kind:        prefs.KindBool,
		Input:       InputToggle,
		Default:     prefs.BoolValue(true),
		Label:       "Message compression",
		Description: "Compress websocket messages",
	},
	{
		Key:         KeySoftwareVolume,
		Kind:        prefs.KindBool,
		Input:       InputToggle,
		Default:     prefs.BoolValue(false),
		Label:       "Software volume",
		Description: "Control volume locally instead of on the server",
	},
	{
		Key:         KeySSLEnabled,
		Kind:        prefs.KindBool,
		Input:       InputGatedToggle,
		Default:     prefs.BoolValue(false),
		Label:       "SSL",
		Description: "Connect with TLS (server must be set up for it)",
	},
	{
		Key:         KeyCertValidationDisabled,
		Kind:        prefs.KindBool,
		Input:       InputGatedToggle,
		Default:     prefs.BoolValue(false),
		Label:       "Disable certificate validation",
		Description: "Accept self-signed or mismatched certificates",
	},
	{
		Key:         KeyTranscoderBitrateIndex,
		Kind:        prefs.KindInt,
		Input:       InputChoice,
		Default:     prefs.IntValue(0),
		Label:       "Transcoder bitrate",
		Description: "Ask the server to transcode streams",
	},
	{
		Key:         KeyDiskCacheSizeIndex,
		Kind:        prefs.KindInt,
		Input:       InputChoice,
		Default:     prefs.IntValue(2),
		Label:       "Disk cache size",
		Description: "Size of the local stream cache",
	},
}

var schemaIndex = func() map[prefs.Key]Field {
	m := make(map[prefs.Key]Field, len(schema))
	for _, f := range schema {
		m[f.Key] = f
	}
	return m
}()

// Schema returns every field in display order
func Schema() []Field {
	out := make([]Field, len(schema))
	copy(out, schema)
	return out
}

// Lookup returns the schema field for key
func Lookup(key prefs.Key) (Field, bool) {
	f, ok := schemaIndex[key]
	return f, ok
}

// Keys returns every preference key in display order
func Keys() []prefs.Key {
	keys := make([]prefs.Key, len(schema))
	for i, f := range schema {
		keys[i] = f.Key
	}
	return keys
}

// Defaults returns a WorkingSet holding the default value of every key
func Defaults() WorkingSet {
	ws := make(WorkingSet, len(schema))
	for _, f := range schema {
		ws[f.Key] = f.Default
	}
	return ws
}

// IsGated reports whether key is a toggle that needs risk confirmation
func IsGated(key prefs.Key) bool {
	f, ok := schemaIndex[key]
	return ok && f.Input == InputGatedToggle
}
