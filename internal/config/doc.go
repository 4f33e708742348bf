// Package config handles loading and parsing minedeck configuration.
//
// # Overview
//
// This package resolves everything minedeck needs to reach the Mineworks
// API and to decide where local state (session, log) lives. Configuration
// is layered: hardcoded defaults, then the TOML config file, then
// MINEDECK_* environment variables. Later layers win.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/minedeck/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//  5. Apply MINEDECK_* environment overrides last
//
// # Default Values
//
//   - Config file: ~/.config/minedeck/config.toml
//   - API endpoint: https://api.mineworks.gg
//   - Data directory: ~/.local/share/minedeck
//   - Session file: <data_dir>/session.toml
//   - Log file: <data_dir>/minedeck.log
//   - Foreground poll interval: 15s
//   - Background poll interval: 2m
//   - Request timeout: 10s
//
// # TOML Format
//
// Example minedeck config.toml:
//
//	api_url = "https://api.mineworks.gg"
//	data_dir = "~/.local/share/minedeck"
//	log_level = "debug"
//	poll_foreground = "15s"
//	poll_background = "2m"
//	request_timeout = "10s"
//
// All fields are optional. Durations use Go syntax ("15s", "2m"); values
// that fail to parse fall back to the defaults rather than aborting
// startup. Tilde expansion is performed automatically on paths.
//
// # Environment Overrides
//
// Every field can be overridden without touching the file, which keeps
// staging and test runs out of the user's config:
//
//	MINEDECK_API_URL=https://staging.mineworks.gg minedeck
//	MINEDECK_POLL_FOREGROUND=5s minedeck
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors
//
// Missing config files are NOT an error - defaults are used instead.
// This allows minedeck to work out-of-the-box with only a sign-in.
//
// # Design Philosophy
//
// The config package is read-only and stateless - it loads configuration
// once at startup and returns an immutable Config struct. No global state
// or singleton patterns are used.
package config
