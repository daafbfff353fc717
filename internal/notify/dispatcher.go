package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Dispatcher fans a status change out to every configured channel.
type Dispatcher struct {
	channels []Channel
}

// NewDispatcher creates a dispatcher for channels.
func NewDispatcher(channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

// Len returns the number of channels.
func (d *Dispatcher) Len() int {
	return len(d.channels)
}

// NotifyStatusChange sends change to all channels concurrently and waits for
// them. Unchanged statuses are skipped. Send failures are logged and counted,
// never returned.
func (d *Dispatcher) NotifyStatusChange(ctx context.Context, change *StatusChange) (failed int) {
	if !change.Changed() || len(d.channels) == 0 {
		return 0
	}
	msg := FormatStatusChange(change)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, ch := range d.channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			if err := ch.Send(ctx, msg); err != nil {
				slog.Error("notification send failed",
					"channel_type", ch.Type(),
					"error", err,
				)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			slog.Debug("notification sent",
				"channel_type", ch.Type(),
				"section", change.Section,
				"member", change.Member,
				"status", change.NewStatus,
			)
		}(ch)
	}
	wg.Wait()
	return failed
}
