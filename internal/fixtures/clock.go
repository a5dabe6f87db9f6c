package fixtures

import (
	"context"
	"time"

	"github.com/tilinna/clock"
)

// NewPinnedClock attaches a mock clock to the context, pinned at a fixed
// known time. Code under test which defaults timestamps from the context
// clock becomes deterministic.
func NewPinnedClock(ctx context.Context, at time.Time) (context.Context, *clock.Mock) {
	clck := clock.NewMock(at)
	return clock.Context(ctx, clck), clck
}
