// Package lock provides a registry of named, non-queueing mutexes used to
// make operations single-flight.
//
// A caller registers a name once and then asks for a ticket. Only the holder
// of the ticket can release the lock; a second caller is turned away with
// ErrLocked instead of waiting.
package lock

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrLocked is returned by TryLock when the mutex is already held.
	ErrLocked = errors.New("lock is held")
	// ErrTicketMismatch is returned by Unlock when the ticket does not own the lock.
	ErrTicketMismatch = errors.New("ticket does not hold the lock")
)

// Ticket proves ownership of a held lock.
type Ticket struct {
	Name  string
	Token string
}

// Mutex is a named single-slot lock.
type Mutex interface {
	Name() string
	// TryLock acquires the lock or returns ErrLocked without waiting.
	TryLock(ctx context.Context) (Ticket, error)
	// Unlock releases the lock held by ticket.
	Unlock(ctx context.Context, ticket Ticket) error
}

// Registry hands out named mutexes. Registering the same name twice returns
// mutexes that share one lock.
type Registry interface {
	Register(name string) Mutex
}

// MemoryRegistry is a process-local Registry.
type MemoryRegistry struct {
	mu    sync.Mutex
	locks map[string]*memoryMutex
}

var _ Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry creates an empty in-process registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{locks: make(map[string]*memoryMutex)}
}

// Register returns the mutex for name, creating it on first use.
func (r *MemoryRegistry) Register(name string) Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.locks[name]
	if !ok {
		m = &memoryMutex{name: name}
		r.locks[name] = m
	}
	return m
}

type memoryMutex struct {
	name  string
	mu    sync.Mutex
	token string
}

func (m *memoryMutex) Name() string { return m.name }

func (m *memoryMutex) TryLock(context.Context) (Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" {
		return Ticket{}, ErrLocked
	}
	m.token = uuid.NewString()
	return Ticket{Name: m.name, Token: m.token}, nil
}

func (m *memoryMutex) Unlock(_ context.Context, ticket Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ticket.Name != m.name || ticket.Token == "" || ticket.Token != m.token {
		return ErrTicketMismatch
	}
	m.token = ""
	return nil
}
