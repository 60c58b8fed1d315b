package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/core/review"
)

// Messages produced by the review orchestrator through commandQueue.
type (
	controlMsg struct {
		control  review.Control
		disabled bool
	}
	showConfirmMsg    struct{ ctx review.ConfirmationContext }
	confirmErrorMsg   struct{ message string }
	clearSelectionMsg struct{}
	stateChangedMsg   struct{}
	orderUpdatedMsg   struct{ order consolidation.Order }

	// commandBatchMsg carries every command queued since the last drain.
	commandBatchMsg []tea.Msg
)

// commandQueue adapts review.UICommands to the bubbletea update loop.
// Commands are appended to a slice and never block the orchestrator; the
// program drains them with wait.
type commandQueue struct {
	mu      sync.Mutex
	pending []tea.Msg
	ready   chan struct{}
}

var _ review.UICommands = (*commandQueue)(nil)

func newCommandQueue() *commandQueue {
	return &commandQueue{ready: make(chan struct{}, 1)}
}

func (q *commandQueue) push(msg tea.Msg) {
	q.mu.Lock()
	q.pending = append(q.pending, msg)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// drain returns the queued commands and empties the queue.
func (q *commandQueue) drain() []tea.Msg {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// wait returns a command that resolves once at least one command is queued.
func (q *commandQueue) wait() tea.Cmd {
	return func() tea.Msg {
		<-q.ready
		return commandBatchMsg(q.drain())
	}
}

func (q *commandQueue) SetControlDisabled(control review.Control, disabled bool) {
	q.push(controlMsg{control: control, disabled: disabled})
}

func (q *commandQueue) ShowConfirmation(ctx review.ConfirmationContext) {
	q.push(showConfirmMsg{ctx: ctx})
}

func (q *commandQueue) ShowConfirmationError(message string) {
	q.push(confirmErrorMsg{message: message})
}

func (q *commandQueue) ClearSelectionWidgets() { q.push(clearSelectionMsg{}) }

func (q *commandQueue) StateChanged() { q.push(stateChangedMsg{}) }

func (q *commandQueue) orderUpdated(o consolidation.Order) {
	q.push(orderUpdatedMsg{order: o})
}
