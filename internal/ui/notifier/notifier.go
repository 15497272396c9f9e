// Package notifier delivers break warnings through Fyne.
package notifier

import (
	"fmt"

	"blinkbreak/internal/core/notify"

	"fyne.io/fyne/v2"
)

// Notifier sends advance warnings as system notifications and
// forwards in-app countdown values to an indicator callback.
type Notifier struct {
	app       fyne.App
	indicator func(seconds int)
}

// New creates a notifier. indicator may be nil.
func New(app fyne.App, indicator func(seconds int)) *Notifier {
	return &Notifier{app: app, indicator: indicator}
}

// Deliver implements notify.Notifier.
func (notifier *Notifier) Deliver(kind notify.Kind, value int) {
	switch kind {
	case notify.KindAdvanceWarning:
		notification := fyne.NewNotification("blinkbreak", warningText(value))
		fyne.Do(func() {
			notifier.app.SendNotification(notification)
		})
	case notify.KindInAppIndicator:
		if notifier.indicator != nil {
			notifier.indicator(value)
		}
	}
}

func warningText(minutes int) string {
	if minutes == 1 {
		return "Break in 1 minute"
	}
	return fmt.Sprintf("Break in %d minutes", minutes)
}
