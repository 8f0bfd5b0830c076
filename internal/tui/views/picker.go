package views

import (
	"github.com/rivo/tview"
)

// Picker is a modal list used for reply templates and AI suggestions:
// pick an entry to insert it into the composer.
type Picker struct {
	*tview.List
	onPick   func(text string)
	onCancel func()
}

// NewPicker creates an empty picker.
func NewPicker(title string) *Picker {
	list := tview.NewList().ShowSecondaryText(false)
	list.SetBorder(true).SetTitle(" " + title + " ")

	p := &Picker{List: list}
	list.SetDoneFunc(func() {
		if p.onCancel != nil {
			p.onCancel()
		}
	})
	return p
}

// SetOnPick sets the callback for a chosen entry.
func (p *Picker) SetOnPick(fn func(text string)) {
	p.onPick = fn
}

// SetOnCancel sets the callback for dismissal.
func (p *Picker) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Update replaces the entries. Each item carries the text inserted on
// selection, which may differ from the label shown.
func (p *Picker) Update(labels, values []string) {
	p.Clear()
	for i, label := range labels {
		value := values[i]
		p.AddItem(label, "", 0, func() {
			if p.onPick != nil {
				p.onPick(value)
			}
		})
	}
}
