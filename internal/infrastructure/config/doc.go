// Package config provides configuration management for the operator console.
//
// Values are resolved in layers: struct defaults, then environment
// variables, then an optional TOML file, then CLI flags applied by the
// caller. Durations accept Go syntax ("10s", "5m") in both env and file.
//
// Configuration Sections:
//   - Server: listen address and inference route
//   - Upstream: model backend URL and timeout
//   - Render: rendezvous wait bounds and target size
//   - Store: turn history and dashboard stream limits
//   - Agent: supervised process command and timings
//   - Run: log base, auto-pause and static assets
//   - Helpers: preview and debug executor commands
//   - Screen, Logging, RateLimit
//
// Example Usage:
//
//	cfg, err := config.Load("panel.toml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Example File:
//
//	[upstream]
//	url = "http://127.0.0.1:1235/v1/chat/completions"
//
//	[render]
//	timeout = "15s"
package config
