package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

// SessionComplete sends a desktop notification for a finished session.
// Notification failures are irrelevant to the session outcome; callers log
// the error at most.
func SessionComplete(title string, minutes int) error {
	beeep.AppName = "stillmind"
	body := fmt.Sprintf("%d minute meditation finished", minutes)
	if title != "" {
		body = fmt.Sprintf("%s: %s", title, body)
	}
	return beeep.Notify("Session complete", body, "")
}
