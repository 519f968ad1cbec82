// Package config loads the console's TOML configuration.
//
// Load reads ~/.config/shelf/config.toml unless a path is given. A missing
// file is not an error; every field has a default, and empty or
// non-positive values fall back to it. Paths may start with ~.
//
//	api_url = "http://127.0.0.1:3000"
//	session_path = "~/.local/state/shelf/session.toml"
//	log_file = "~/.local/state/shelf/shelf.log"
//	log_level = "info"
//	request_timeout_seconds = 15
//	lookup_timeout_seconds = 10
//	page_size = 20
//	scanner_prefix = "%"
//	refresh_seconds = 30   # 0 disables background refresh
//	requests_per_second = 10
//	burst = 5
//
// Command-line flags are applied on top of the loaded Config by the caller.
package config
