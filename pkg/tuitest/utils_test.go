package tuitest

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestStripANSI(t *testing.T) {
	in := "\x1b[1;34mOrder order-1\x1b[0m   \n\x1b[31merror\x1b[0m\n\n"
	assert.Equal(t, "Order order-1\nerror", StripANSI(in))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "dup", Type("dup").String())
	assert.Equal(t, " ", Key(tea.KeySpace).String())
	assert.Equal(t, "enter", Key(tea.KeyEnter).String())
	assert.Equal(t, "ctrl+a", Key(tea.KeyCtrlA).String())
}
