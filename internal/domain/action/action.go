package action

// Drawable action names.
const (
	Click       = "click"
	RightClick  = "right_click"
	DoubleClick = "double_click"
	Drag        = "drag"
)

// Tool names the execution engine understands. The drawable subset is what
// the renderer can mark on a screenshot.
var (
	drawable = map[string]struct{}{
		Click:       {},
		RightClick:  {},
		DoubleClick: {},
		Drag:        {},
	}

	allTools = []string{Click, RightClick, DoubleClick, Drag, "write", "remember", "recall"}
)

// Action is one drawable call proposed by the model. Args are coordinates in
// the normalized 0-1000 space.
type Action struct {
	Name string `json:"name"`
	Args []int  `json:"args"`
}

// IsDrawable reports whether name belongs to the drawable vocabulary.
func IsDrawable(name string) bool {
	_, ok := drawable[name]
	return ok
}

// AllTools returns every tool name the execution engine accepts.
func AllTools() []string {
	out := make([]string, len(allTools))
	copy(out, allTools)
	return out
}

// IsTool reports whether name is a known tool.
func IsTool(name string) bool {
	for _, t := range allTools {
		if t == name {
			return true
		}
	}
	return false
}
