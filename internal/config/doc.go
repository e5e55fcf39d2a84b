// Package config manages the musikremote application configuration.
//
// The application config says where preferences are stored and how the
// daemon runs. It is separate from the preferences themselves, which are
// edited through the settings package and live in their own store.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/musikremote/config.yaml or $HOME/.config/musikremote/config.yaml
//   - macOS: $HOME/.config/musikremote/config.yaml
//   - Windows: %LOCALAPPDATA%\musikremote\config.yaml
//
// Preferences default to prefs.yaml (or prefs.db for the sqlite backend) in
// the same directory.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	store, closeStore, err := cfg.OpenStore()
//	if err != nil {
//	    return err
//	}
//	defer closeStore()
//
// # Security
//
// The config file never holds the server password. That is a preference and
// is written with user-only permissions by the preference store.
package config
