package views

import (
	"github.com/rivo/tview"
)

// Login is the email/password authentication form shown whenever the
// console has no valid session.
type Login struct {
	*tview.Form
	onSubmit func(email, password string)
}

// NewLogin creates the login form.
func NewLogin() *Login {
	form := tview.NewForm()
	form.SetBorder(true).SetTitle(" Sign In ")

	l := &Login{Form: form}
	form.AddInputField("Email", "", 40, nil, nil).
		AddPasswordField("Password", "", 40, '*', nil).
		AddButton("Sign In", func() {
			if l.onSubmit == nil {
				return
			}
			email := form.GetFormItemByLabel("Email").(*tview.InputField).GetText()
			password := form.GetFormItemByLabel("Password").(*tview.InputField).GetText()
			l.onSubmit(email, password)
		})

	return l
}

// SetOnSubmit sets the callback invoked with the entered credentials.
func (l *Login) SetOnSubmit(fn func(email, password string)) {
	l.onSubmit = fn
}

// Reset clears the password field, e.g. after a failed attempt.
func (l *Login) Reset() {
	l.GetFormItemByLabel("Password").(*tview.InputField).SetText("")
}
