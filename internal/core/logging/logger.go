// Package logging holds zerolog helpers shared across cams components.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// ForOrder creates a component logger scoped to one consolidation order.
func ForOrder(component, orderID string) zerolog.Logger {
	return log.With().Str("cmp", component).Str("order_id", orderID).Logger()
}
