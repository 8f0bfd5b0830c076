package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// StatusBar displays persistent profile/session status.
type StatusBar struct {
	*tview.TextView
	profile string
	status  string
	flash   string
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv}
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetStatus updates the session status display.
func (sb *StatusBar) SetStatus(status string) {
	sb.status = status
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	clock := time.Now().Format("15:04")

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | %s", sb.profile, sb.status, clock)
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", sb.flash)
	}

	_, _ = fmt.Fprint(sb, line)
}
