package scheduler

import (
	"context"

	"github.com/parago-go/parago/future"
)

// groupKey is the unexported context key under which the ambient
// cancellation group travels. Carrying it on the context (instead of, say,
// a goroutine-local) means a nested Fork correctly picks up its caller's
// group without the caller threading it through explicitly.
type groupKey struct{}

// withGroup returns a context carrying group as the ambient cancellation
// group for any nested Fork calls.
func withGroup(ctx context.Context, group *future.Group) context.Context {
	return context.WithValue(ctx, groupKey{}, group)
}

// groupFromContext returns the ambient group carried by ctx, and whether one
// was present.
func groupFromContext(ctx context.Context) (*future.Group, bool) {
	g, ok := ctx.Value(groupKey{}).(*future.Group)
	return g, ok && g != nil
}
