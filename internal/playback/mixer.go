// Package playback holds the local playback state the daemon owns.
package playback

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/musikremote/internal/logging"
)

// Mixer holds the daemon's volume level, as set through SetVolume and
// reported by GET /status. It is safe for concurrent use.
type Mixer struct {
	mu    sync.RWMutex
	level float64
	sets  int
}

// NewMixer creates a mixer at full volume
func NewMixer() *Mixer {
	return &Mixer{level: 1.0}
}

// SetVolume sets the normalized level. Levels outside 0.0-1.0 are rejected.
func (m *Mixer) SetVolume(level float64) error {
	if math.IsNaN(level) || level < 0 || level > 1 {
		return fmt.Errorf("volume level %v out of range 0.0-1.0", level)
	}

	m.mu.Lock()
	prev := m.level
	m.level = level
	m.sets++
	m.mu.Unlock()

	logging.Debug("Volume set",
		zap.Float64("previous", prev),
		zap.Float64("level", level),
	)
	return nil
}

// Volume returns the current level
func (m *Mixer) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.level
}

// Changes returns how many times SetVolume succeeded
func (m *Mixer) Changes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets
}
