// Package action extracts drawable desktop actions from model replies.
//
// A reply is scanned line by line. Each line may carry a section prefix
// ("PART 2 -- Actions") and trailing out-of-band markers; both are removed
// and the remainder is parsed as a single call expression such as
// click(500, 300) or ui.drag(10, 10, 900, -20).
//
// Only the drawable vocabulary is kept:
//   - click, right_click, double_click: one point
//   - drag: start and end points
//
// Integer and negated integer literal arguments are collected in order,
// anything else is skipped. Lines that are prose, unknown calls or more
// than one statement produce nothing.
//
// Example Usage:
//
//	actions := action.Extract(reply)
//	memory.Set(actions)
package action
