package sites

import (
	"context"
	"errors"
	"time"
)

// PollInterval is the yield between probes, about one animation frame.
const PollInterval = 16 * time.Millisecond

var ErrPollTimeout = errors.New("poll budget exhausted")

// Poll calls probe until it reports done, the budget runs out or ctx is
// cancelled. The probe always runs at least once.
func Poll(ctx context.Context, budget time.Duration, probe func(ctx context.Context) (bool, error)) error {
	deadline := time.Now().Add(budget)
	timer := time.NewTimer(PollInterval)
	defer timer.Stop()

	for {
		done, err := probe(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrPollTimeout
		}

		timer.Reset(PollInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}
