package notify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"taskhub/pkg/task"
)

// Watch consumes task events and writes a notification for each interested
// party: the client always, the tasker once one is set. It returns when the
// context is cancelled or the channel closes.
func Watch(ctx context.Context, events <-chan task.Event, store Store, log *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			for _, n := range notificationsFor(e) {
				if _, err := store.Create(ctx, &n); err != nil {
					log.WithError(err).WithField("taskId", e.Task.ID).Warn("write notification")
				}
			}
		}
	}
}

func notificationsFor(e task.Event) []Notification {
	var out []Notification

	add := func(userID, title, msg string) {
		if userID == "" {
			return
		}
		priority := "normal"
		if e.Task.IsUrgent {
			priority = "high"
		}
		out = append(out, Notification{
			UserID:   userID,
			Type:     string(e.Kind),
			Title:    title,
			Message:  msg,
			Priority: priority,
		})
	}

	switch e.Kind {
	case task.EventCreated:
		add(e.Task.ClientID, "Task posted", fmt.Sprintf("%q is live and visible to taskers", e.Task.Title))
	case task.EventAssigned:
		add(e.Task.ClientID, "Tasker assigned", fmt.Sprintf("A tasker accepted %q", e.Task.Title))
		if e.Task.TaskerID != nil {
			add(*e.Task.TaskerID, "Task assigned to you", fmt.Sprintf("You accepted %q", e.Task.Title))
		}
	case task.EventStatusChanged:
		msg := fmt.Sprintf("%q is now %s", e.Task.Title, e.To.Label())
		add(e.Task.ClientID, "Task update", msg)
		if e.Task.TaskerID != nil {
			add(*e.Task.TaskerID, "Task update", msg)
		}
	}
	return out
}
