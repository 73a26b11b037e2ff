package audioio

import "context"

// watchCancel stops the source when ctx is cancelled, and returns
// without acting once stopped is closed.
func watchCancel(ctx context.Context, stopped <-chan struct{}, stop func()) {
	select {
	case <-ctx.Done():
		stop()
	case <-stopped:
	}
}
