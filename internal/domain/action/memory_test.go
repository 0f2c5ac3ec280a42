package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	assert.Empty(t, m.Snapshot())

	in := []Action{{Name: Click, Args: []int{1, 2}}}
	m.Set(in)
	in[0].Name = Drag

	snap := m.Snapshot()
	assert.Equal(t, Click, snap[0].Name)

	snap[0].Name = RightClick
	assert.Equal(t, Click, m.Snapshot()[0].Name)
}
