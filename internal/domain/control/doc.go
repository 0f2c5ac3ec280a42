// Package control holds the operator's levers over the agent.
//
// PauseController mediates the pause signal through a sentinel file in the
// most recent run directory. The agent polls that file and suspends its own
// loop; the proxy behaves the same whether paused or not.
//
// Settings persists the crop region and the tool allow-list the operator
// chose for the current run.
package control
