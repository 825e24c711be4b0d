// Package notifier delivers rendered payloads to one or more chat sinks.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Houeta/heidi/internal/models"
)

// Notifier delivers a payload to a chat sink.
type Notifier interface {
	Notify(ctx context.Context, payload models.NotificationPayload) error
}

// Sink pairs a Notifier with a name used in logs and errors.
type Sink struct {
	Name     string
	Notifier Notifier
}

// Fanout delivers every payload to all sinks. A failing sink does not stop the others.
type Fanout struct {
	log   *slog.Logger
	sinks []Sink
}

func NewFanout(log *slog.Logger, sinks ...Sink) *Fanout {
	return &Fanout{log: log, sinks: sinks}
}

// Len returns the number of configured sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

func (f *Fanout) Notify(ctx context.Context, payload models.NotificationPayload) error {
	const opn = "notifier.Fanout.Notify"
	log := f.log.With("op", opn)

	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Notifier.Notify(ctx, payload); err != nil {
			log.ErrorContext(ctx, "sink failed to deliver notification", "sink", sink.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name, err))
			continue
		}
		log.DebugContext(ctx, "notification delivered", "sink", sink.Name)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	return nil
}
