// Package cams wires the stores, lock registry and configuration into the
// services used by the commands and the TUI.
package cams

import (
	"context"
	"fmt"

	"github.com/colonyops/cams/internal/core/config"
	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/core/lock"
	"github.com/colonyops/cams/internal/core/review"
	"github.com/colonyops/cams/internal/data/db"
	"github.com/colonyops/cams/internal/data/stores"
)

// App is the central entry point for all cams operations.
// Commands and TUI consume App instead of cherry-picking raw dependencies.
type App struct {
	Config      *config.Config
	DB          *db.DB
	Cases       *stores.CaseStore
	Assignments *stores.AssignmentStore
	Orders      *stores.OrderStore
	Locks       lock.Registry
}

// NewApp constructs an App from explicit dependencies.
func NewApp(cfg *config.Config, database *db.DB, locks lock.Registry) *App {
	return &App{
		Config:      cfg,
		DB:          database,
		Cases:       stores.NewCaseStore(database),
		Assignments: stores.NewAssignmentStore(database),
		Orders:      stores.NewOrderStore(database),
		Locks:       locks,
	}
}

// NewReview starts a review session for order. onUpdate may be nil. The
// options built from the config can be adjusted with tweaks.
func (a *App) NewReview(order consolidation.Order, ui review.UICommands, onUpdate func(consolidation.Order), tweaks ...func(*review.Options)) *review.Orchestrator {
	opts := review.Options{
		Registry:      a.Cases,
		Assignments:   a.Assignments,
		Orders:        a.Orders,
		UI:            ui,
		Locks:         a.Locks,
		OnOrderUpdate: onUpdate,
		Debounce:      a.Config.Review.Debounce,
		LookupTimeout: a.Config.Review.LookupTimeout,
	}
	for _, tweak := range tweaks {
		tweak(&opts)
	}
	return review.New(order, opts)
}

// PendingOrder loads an order and checks that it can still be reviewed.
func (a *App) PendingOrder(ctx context.Context, id string) (consolidation.Order, error) {
	o, err := a.Orders.Get(ctx, id)
	if err != nil {
		return consolidation.Order{}, err
	}
	if o.Status != consolidation.StatusPending {
		return consolidation.Order{}, fmt.Errorf("%w: %s is %s", stores.ErrOrderNotPending, id, o.Status)
	}
	return o, nil
}

// NewLockRegistry builds the lock registry selected by cfg. The returned
// closer releases any connection the registry holds.
func NewLockRegistry(cfg config.LocksConfig) (lock.Registry, func() error, error) {
	switch cfg.Backend {
	case config.LockBackendRedis:
		r, err := lock.NewRedisRegistry(cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	case config.LockBackendMemory, "":
		return lock.NewMemoryRegistry(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}
