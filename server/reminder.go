package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/echoapp/echo/server/metrics"
	"github.com/echoapp/echo/store"
)

const reminderSweepInterval = time.Minute

// reminderDispatcher periodically sweeps for due event reminders and marks
// them sent. Delivery is a structured log line; the sweep exists so a
// reminder fires once even across restarts.
type reminderDispatcher struct {
	store   *store.Store
	metrics *metrics.Exporter
	done    chan struct{}
}

func newReminderDispatcher(store *store.Store, exporter *metrics.Exporter) *reminderDispatcher {
	return &reminderDispatcher{
		store:   store,
		metrics: exporter,
		done:    make(chan struct{}),
	}
}

func (d *reminderDispatcher) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(reminderSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.sweep(ctx)
			case <-d.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (d *reminderDispatcher) Stop() {
	close(d.done)
}

func (d *reminderDispatcher) sweep(ctx context.Context) {
	now := time.Now().UTC()
	reminders, err := d.store.ListPendingEventReminders(ctx, now)
	if err != nil {
		slog.Error("failed to list pending reminders", "error", err)
		return
	}

	for _, reminder := range reminders {
		slog.Info("event reminder due",
			"reminder", reminder.ID,
			"event", reminder.EventID,
			"method", reminder.Method,
			"minutes_before", reminder.MinutesBefore,
		)
		if err := d.store.MarkEventReminderSent(ctx, reminder.ID, now); err != nil {
			slog.Error("failed to mark reminder sent", "reminder", reminder.ID, "error", err)
			continue
		}
		d.metrics.ReminderSent()
	}
}
