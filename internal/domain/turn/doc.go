// Package turn records inference round trips.
//
// Every call the agent makes through the proxy becomes one Record with a
// unique, strictly increasing turn number. Records live in a bounded Store
// for the dashboard, are appended to the run journal (turns.jsonl) and have
// their annotated screenshot written next to it.
//
// Components:
//   - Counter: atomic turn numbering starting at 1
//   - Store: bounded map, evicts the lowest turn number first
//   - Journal: append-only JSONL log, screenshots, gzip export
//   - Summarize: latency statistics over stored turns
package turn
