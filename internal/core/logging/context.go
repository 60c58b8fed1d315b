package logging

import "context"

type contextKey string

const (
	orderIDKey  contextKey = "order_id"
	reviewerKey contextKey = "reviewer"
)

// WithOrderID adds a consolidation order ID to the context.
func WithOrderID(ctx context.Context, orderID string) context.Context {
	return context.WithValue(ctx, orderIDKey, orderID)
}

// WithReviewer adds the reviewer's name to the context.
func WithReviewer(ctx context.Context, reviewer string) context.Context {
	return context.WithValue(ctx, reviewerKey, reviewer)
}

// GetOrderID retrieves the order ID from the context.
// Returns empty string if not present.
func GetOrderID(ctx context.Context) string {
	if id, ok := ctx.Value(orderIDKey).(string); ok {
		return id
	}
	return ""
}

// GetReviewer retrieves the reviewer from the context.
// Returns empty string if not present.
func GetReviewer(ctx context.Context) string {
	if r, ok := ctx.Value(reviewerKey).(string); ok {
		return r
	}
	return ""
}
