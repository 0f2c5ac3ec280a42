// Package chat reads and rewrites chat-completion bodies.
//
// The proxy never interprets a conversation. It pulls out the few fields
// the dashboard shows, finds the screenshot in the last user message and,
// when the renderer produced an annotated copy, swaps it in place. Parse
// failures are reported in the result rather than returned as errors so a
// malformed body still flows upstream untouched.
package chat
