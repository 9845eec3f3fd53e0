package testutil

import (
	"context"
	"time"

	"studbook/pkg/requestcontext"
)

// FrozenContext pins the request-scoped clock so assertions on timestamps are
// deterministic.
func FrozenContext(at time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), at)
}
