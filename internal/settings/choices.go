package settings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/musikremote/internal/prefs"
)

// Choice is one labeled entry of a choice list
type Choice struct {
	Label string
	Value int64
}

// ChoiceList is an ordered list of choices. Fields store an index into it.
type ChoiceList []Choice

// Contains reports whether idx is a valid index into the list
func (l ChoiceList) Contains(idx int) bool {
	return idx >= 0 && idx < len(l)
}

// Label returns the label at idx, or "" when idx is out of range
func (l ChoiceList) Label(idx int) string {
	if !l.Contains(idx) {
		return ""
	}
	return l[idx].Label
}

// Parse resolves user text to an index. It accepts a label (case and space
// insensitive, "kbps" optional) or a plain index.
func (l ChoiceList) Parse(text string) (int, error) {
	want := normalizeLabel(text)
	for i, c := range l {
		label := normalizeLabel(c.Label)
		if label == want || strings.TrimSuffix(label, "kbps") == want {
			return i, nil
		}
	}
	if idx, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
		return idx, nil
	}
	return 0, fmt.Errorf("unknown choice %q (valid: %s)", text, strings.Join(l.Labels(), ", "))
}

// Labels returns every label in order
func (l ChoiceList) Labels() []string {
	labels := make([]string, len(l))
	for i, c := range l {
		labels[i] = c.Label
	}
	return labels
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

// Choices maps each choice field to its list
type Choices map[prefs.Key]ChoiceList

const (
	mib = int64(1) << 20
	gib = int64(1) << 30
)

// BitrateChoices are the transcoder bitrates offered by musikcube.
// Value is kbps; 0 means no transcoding.
var BitrateChoices = ChoiceList{
	{Label: "off", Value: 0},
	{Label: "32 kbps", Value: 32},
	{Label: "64 kbps", Value: 64},
	{Label: "96 kbps", Value: 96},
	{Label: "128 kbps", Value: 128},
	{Label: "192 kbps", Value: 192},
	{Label: "256 kbps", Value: 256},
	{Label: "320 kbps", Value: 320},
}

// CacheSizeChoices are the disk cache sizes. Value is bytes.
var CacheSizeChoices = ChoiceList{
	{Label: "128 MB", Value: 128 * mib},
	{Label: "256 MB", Value: 256 * mib},
	{Label: "512 MB", Value: 512 * mib},
	{Label: "1 GB", Value: 1 * gib},
	{Label: "2 GB", Value: 2 * gib},
	{Label: "4 GB", Value: 4 * gib},
}

// DefaultChoices returns the built-in choice lists
func DefaultChoices() Choices {
	return Choices{
		KeyTranscoderBitrateIndex: BitrateChoices,
		KeyDiskCacheSizeIndex:     CacheSizeChoices,
	}
}

// TranscoderBitrate returns the bitrate in kbps selected by ws, 0 for off
func (c Choices) TranscoderBitrate(ws WorkingSet) int64 {
	return c.value(KeyTranscoderBitrateIndex, ws)
}

// DiskCacheSize returns the cache size in bytes selected by ws
func (c Choices) DiskCacheSize(ws WorkingSet) int64 {
	return c.value(KeyDiskCacheSizeIndex, ws)
}

func (c Choices) value(key prefs.Key, ws WorkingSet) int64 {
	list := c[key]
	idx := ws.Int(key)
	if !list.Contains(idx) {
		f, _ := Lookup(key)
		idx = f.Default.Int()
	}
	if !list.Contains(idx) {
		return 0
	}
	return list[idx].Value
}
