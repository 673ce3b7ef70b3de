// Package notify delivers recorded clips to the household.
package notify

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Notification is sent to all NotifyListeners registered with Notifier.
type Notification struct {
	Subject string
	From    string
	To      string

	// AttachmentPath is the clip to attach.
	AttachmentPath string

	Source string
	Time   time.Time
}

type NotifyListener interface {
	Notify(n *Notification) error
}

// Notifier delivers a notification to each listener in turn, stopping at
// the first failure so that later listeners only hear about delivered
// notifications. Delivery is not retried.
type Notifier struct {
	Listeners []NotifyListener
}

func (n *Notifier) Notify(notification *Notification) error {
	for _, l := range n.Listeners {
		if err := l.Notify(notification); err != nil {
			log.Errorf("Failed to send notification: %v", err)
			return errors.WithMessagef(err, "notify %s", notification.To)
		}
	}
	return nil
}
