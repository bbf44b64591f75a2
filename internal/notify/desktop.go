package notify

import "github.com/gen2brain/beeep"

// Desktop delivers notifications through the platform notification service
// (Notification Center, D-Bus, or toast depending on the OS).
type Desktop struct {
	// Icon is an optional path to the notification icon.
	Icon string
}

// Deliver shows a desktop notification.
func (d Desktop) Deliver(title, body string) error {
	return beeep.Notify(title, body, d.Icon)
}

// Discard is a Deliverer that drops every notification.
type Discard struct{}

// Deliver does nothing.
func (Discard) Deliver(title, body string) error { return nil }
