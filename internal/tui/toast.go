package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/cams/internal/core/styles"
)

const (
	defaultToastTTL   = 5 * time.Second
	defaultMaxToasts  = 3
	toastTickInterval = 250 * time.Millisecond
)

type toastLevel int

const (
	toastInfo toastLevel = iota
	toastError
)

type toast struct {
	message   string
	level     toastLevel
	remaining time.Duration
}

type toastTickMsg struct{}

// ToastController manages the lifecycle of active toast notifications.
type ToastController struct {
	toasts  []toast
	ticking bool
}

func NewToastController() *ToastController {
	return &ToastController{}
}

// Push adds a toast. The oldest toast is evicted past defaultMaxToasts.
func (c *ToastController) Push(level toastLevel, message string) {
	c.toasts = append(c.toasts, toast{message: message, level: level, remaining: defaultToastTTL})
	if len(c.toasts) > defaultMaxToasts {
		c.toasts = c.toasts[len(c.toasts)-defaultMaxToasts:]
	}
}

// Tick decrements the remaining TTL on all toasts by d and removes
// any that have expired.
func (c *ToastController) Tick(d time.Duration) {
	alive := c.toasts[:0]
	for _, t := range c.toasts {
		t.remaining -= d
		if t.remaining > 0 {
			alive = append(alive, t)
		}
	}
	c.toasts = alive
}

// Dismiss removes the newest toast.
func (c *ToastController) Dismiss() {
	if len(c.toasts) > 0 {
		c.toasts = c.toasts[:len(c.toasts)-1]
	}
}

func (c *ToastController) HasToasts() bool {
	return len(c.toasts) > 0
}

// StartTicking returns the tick command unless one is already running.
func (c *ToastController) StartTicking() tea.Cmd {
	if c.ticking || !c.HasToasts() {
		return nil
	}
	c.ticking = true
	return toastTick()
}

// HandleTick advances the toasts and schedules the next tick while any
// remain.
func (c *ToastController) HandleTick() tea.Cmd {
	c.Tick(toastTickInterval)
	if !c.HasToasts() {
		c.ticking = false
		return nil
	}
	return toastTick()
}

func (c *ToastController) View() string {
	if !c.HasToasts() {
		return ""
	}
	lines := make([]string, 0, len(c.toasts))
	for _, t := range c.toasts {
		style := styles.ToastStyle
		if t.level == toastError {
			style = style.BorderForeground(styles.CurrentPalette.Error)
		}
		lines = append(lines, style.Render(t.message))
	}
	return strings.Join(lines, "\n")
}

func toastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(time.Time) tea.Msg { return toastTickMsg{} })
}
