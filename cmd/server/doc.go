// Package main is the entry point for the operator console.
//
// The console sits between a desktop agent and its vision-language model:
//
//	Agent (main.py) → Console → Upstream model (chat completions)
//	                     ↕
//	           Dashboard / Canvas renderer
//
// The server provides:
//   - A transparent proxy for the agent's inference calls
//   - Screenshot annotation through an external canvas renderer
//   - A live dashboard fed by server-sent events
//   - Pause, crop and tool controls persisted in the run directory
//   - Supervision of the agent process
//
// Configuration:
//   - Defaults, then environment variables (12-factor)
//   - Optional TOML file (-config)
//   - CLI flags (override everything)
//
// Usage:
//
//	./server -config panel.toml
//
//	# Development mode (colored logs, debug level), agent started by hand
//	./server -dev -no-agent -upstream http://127.0.0.1:1235/v1/chat/completions
//
// Signals:
//   - SIGINT, SIGTERM: stop the agent, then shut down gracefully
package main
