// ABOUTME: Fire-and-forget recorder for the append-only team activity log
// ABOUTME: Recording failures are logged and never propagated to the caller

package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Animus004/ideahub/internal/store"
)

// recordTimeout bounds each background append independently of the
// request that triggered it.
const recordTimeout = 5 * time.Second

// Recorder writes activity entries without blocking the operations that
// produce them. Appends happen on background goroutines with their own
// timeout; a failed append costs a log line, never the operation.
type Recorder struct {
	store  store.ActivityStore
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewRecorder creates a recorder backed by the given activity store.
func NewRecorder(st store.ActivityStore) *Recorder {
	return &Recorder{
		store:  st,
		logger: slog.Default().With("component", "activity"),
	}
}

// Record appends an entry asynchronously. The caller's context is not
// used: the append must survive the request completing first.
func (r *Recorder) Record(teamID, actorID, action string, detail map[string]any) {
	entry := &store.ActivityEntry{
		TeamID:  teamID,
		ActorID: actorID,
		Action:  action,
		Detail:  detail,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := r.store.AppendActivity(ctx, entry); err != nil {
			r.logger.Warn("failed to record activity",
				"team_id", teamID,
				"action", action,
				"error", err,
			)
		}
	}()
}

// Flush blocks until all in-flight appends have finished. Used at
// shutdown and in tests.
func (r *Recorder) Flush() {
	r.wg.Wait()
}

// List returns a team's activity entries matching the filter, newest
// first.
func (r *Recorder) List(ctx context.Context, teamID string, f store.ActivityFilter) ([]store.ActivityEntry, error) {
	return r.store.ListActivity(ctx, teamID, f)
}
