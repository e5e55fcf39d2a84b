package config

import (
	"fmt"

	"github.com/muurk/musikremote/internal/prefs"
)

// OpenStore opens the configured preference backend. The returned function
// releases it and is safe to call once.
func (c *Config) OpenStore() (prefs.Store, func() error, error) {
	nop := func() error { return nil }

	switch c.Store.Backend {
	case BackendFile:
		s, err := prefs.OpenFileStore(c.PrefsPath())
		if err != nil {
			return nil, nil, err
		}
		return s, nop, nil

	case BackendSQLite:
		s, err := prefs.OpenSQLiteStore(c.PrefsPath())
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case BackendMemory:
		return prefs.NewMemoryStore(nil), nop, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
}
