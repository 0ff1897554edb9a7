package exec

import (
	"context"
	"fmt"

	hostpkg "github.com/xycloo/zephyr-vm-go/host"
)

// EventSource resolves an inclusive range [fromSeq, toSeq] of ledger
// sequences to the individual event/ledger-close-meta payloads the catch-up
// loop replays, one payload per sequence, in order.
// Fetching and applying the upstream event source's own internals are out
// of scope (spec.md §1); this is the seam the Job Manager drives.
type EventSource interface {
	Head() (uint32, error)
	Fetch(fromSeq, toSeq uint32) ([][]byte, error)
}

// RunCatchup implements the catch-up live-tail convergence loop (spec.md
// §9, SPEC_FULL.md §D.1): while head-last > 0, fetch the next batch,
// apply each payload through w.Run, and advance last to the highest
// applied sequence, until the gap closes.
func (w *Wrapper) RunCatchup(ctx context.Context, identity hostpkg.Identity, binaryID uint32, source EventSource, last uint32) (applied uint32, err error) {
	for {
		head, headErr := source.Head()
		if headErr != nil {
			return last, fmt.Errorf("exec: catchup head: %w", headErr)
		}
		if head <= last {
			return last, nil
		}

		batch, fetchErr := source.Fetch(last+1, head)
		if fetchErr != nil {
			return last, fmt.Errorf("exec: catchup fetch: %w", fetchErr)
		}
		if len(batch) == 0 {
			return last, nil
		}

		for _, payload := range batch {
			_, runErr := w.Run(ctx, Request{
				Mode:     ModeEventCatchup,
				BinaryID: binaryID,
				Identity: identity,
				Input:    payload,
			})
			if runErr != nil {
				return last, fmt.Errorf("exec: catchup apply seq %d: %w", last+1, runErr)
			}
			last++
		}
	}
}
