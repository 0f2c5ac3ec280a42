package control

import (
	"fmt"
	"os"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/action"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/shared/paths"
)

// Settings persists operator choices in a run directory.
type Settings struct {
	dir string
	mu  sync.Mutex
}

// NewSettings creates settings stored in runDir.
func NewSettings(runDir string) *Settings {
	return &Settings{dir: runDir}
}

// Crop returns the stored crop region, or an empty object when none is
// set.
func (s *Settings) Crop() any {
	var v any
	if err := s.read(paths.CropFile, &v); err != nil || empty(v) {
		return map[string]any{}
	}
	return v
}

// SetCrop stores v as the crop region.
func (s *Settings) SetCrop(v any) error {
	return s.write(paths.CropFile, v)
}

// AllowedTools returns the stored allow-list. A missing or malformed file
// means every tool is allowed.
func (s *Settings) AllowedTools() []string {
	var v any
	if err := s.read(paths.AllowedToolsFile, &v); err != nil {
		return action.AllTools()
	}
	list, ok := v.([]any)
	if !ok {
		return action.AllTools()
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if name, ok := item.(string); ok {
			out = append(out, name)
		}
	}
	return out
}

// SetAllowedTools stores the known tool names found in v. A value that is
// not a list resets to every tool. The stored list is returned.
func (s *Settings) SetAllowedTools(v any) ([]string, error) {
	tools := FilterTools(v)
	return tools, s.write(paths.AllowedToolsFile, tools)
}

// FilterTools keeps the known tool names in v, in order.
func FilterTools(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return action.AllTools()
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if name, ok := item.(string); ok && action.IsTool(name) {
			out = append(out, name)
		}
	}
	return out
}

func (s *Settings) read(name string, v any) error {
	s.mu.Lock()
	data, err := os.ReadFile(paths.In(s.dir, name))
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return sonic.Unmarshal(data, v)
}

func (s *Settings) write(name string, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(paths.In(s.dir, name), data)
}

// empty mirrors JSON falsiness: null, false, 0, "" and empty containers.
func empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case float64:
		return x == 0
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}
