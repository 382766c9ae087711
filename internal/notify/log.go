package notify

import (
	"context"

	"github.com/nrazek/mcellgo/internal/kernel"
)

// LogNotifier writes every event through an injected kernel.Logger. It has
// no achemdb equivalent; it exists so a Partition always has somewhere to
// send events without standing up a websocket or webhook endpoint,
// following the same Logger shape the kernel itself is built against
// (SPEC_FULL.md §4.10).
type LogNotifier struct {
	id     string
	logger kernel.Logger
}

// NewLogNotifier creates a notifier that logs every event at Info level.
func NewLogNotifier(id string, logger kernel.Logger) *LogNotifier {
	if logger == nil {
		logger = kernel.NewNoOpLogger()
	}
	return &LogNotifier{id: id, logger: logger}
}

func (ln *LogNotifier) ID() string   { return ln.id }
func (ln *LogNotifier) Type() string { return "log" }

// Notify logs event's kind and partition id; failures to marshal are
// themselves logged rather than returned, since a logging notifier has
// nothing more actionable to do with an error.
func (ln *LogNotifier) Notify(ctx context.Context, event Event) error {
	data, err := event.JSON()
	if err != nil {
		ln.logger.Errorf("notify: failed to marshal event for partition %s: %v", event.PartitionID, err)
		return err
	}
	ln.logger.Infof("notify: partition=%s kind=%s payload=%s", event.PartitionID, event.Kind, data)
	return nil
}

// Close is a no-op: a LogNotifier owns no resources to release.
func (ln *LogNotifier) Close() error {
	return nil
}
