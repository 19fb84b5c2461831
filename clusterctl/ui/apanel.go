// Copyright 2026 The Gocluster Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/views"
)

const (
	fieldWidth = 16
	fieldMax   = 256
)

var focusStyle = tcell.StyleDefault.
	Foreground(tcell.ColorWhite).
	Background(tcell.ColorNavy)

// credential is one editable line of the login form.
type credential struct {
	value  []rune
	secret bool
	view   *views.Text
}

// display renders the tail of the value, masked if secret, with a
// cursor when focused.
func (c *credential) display(focused bool) string {
	r := make([]rune, 0, len(c.value)+1)
	for _, ch := range c.value {
		if c.secret {
			ch = '*'
		}
		r = append(r, ch)
	}
	if focused {
		r = append(r, '_')
	}
	return pad(r, fieldWidth)
}

func (c *credential) edit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlU, tcell.KeyCtrlW:
		c.value = c.value[:0]
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(c.value); n > 0 {
			c.value = c.value[:n-1]
		}
	case tcell.KeyRune:
		if len(c.value) < fieldMax {
			c.value = append(c.value, ev.Rune())
		}
	default:
		return false
	}
	return true
}

// pad fits r into width cells, keeping the tail visible.
func pad(r []rune, width int) string {
	if len(r) > width {
		r = append([]rune{'<'}, r[len(r)-width+1:]...)
	}
	for len(r) < width {
		r = append(r, ' ')
	}
	return string(r)
}

// AuthPanel asks for credentials after the status API refuses us.
type AuthPanel struct {
	user  credential
	pass  credential
	focus *credential

	Panel
}

func NewAuthPanel(app *App, server string) *AuthPanel {
	a := &AuthPanel{}
	a.init(app)
	a.user.view = views.NewText()
	a.pass.view = views.NewText()
	a.pass.secret = true
	a.focus = &a.user

	prompts := views.NewBoxLayout(views.Vertical)
	fields := views.NewBoxLayout(views.Vertical)
	form := views.NewBoxLayout(views.Horizontal)

	prompts.AddWidget(views.NewSpacer(), 1.0)
	fields.AddWidget(views.NewSpacer(), 1.0)
	for _, c := range []*credential{&a.user, &a.pass} {
		label := views.NewText()
		label.SetStyle(StyleNormal)
		if c.secret {
			label.SetText("Password: ")
		} else {
			label.SetText("Username: ")
		}
		prompts.AddWidget(label, 0.0)
		fields.AddWidget(c.view, 0.0)
	}
	prompts.AddWidget(views.NewSpacer(), 1.0)
	fields.AddWidget(views.NewSpacer(), 1.0)

	form.AddWidget(views.NewSpacer(), 1.0)
	form.AddWidget(prompts, 0.0)
	form.AddWidget(fields, 0.0)
	form.AddWidget(views.NewSpacer(), 1.0)
	for _, l := range []*views.BoxLayout{prompts, fields, form} {
		l.SetStyle(StyleNormal)
	}

	a.SetTitle(server)
	a.SetKeys("[ESC] Quit", "[TAB] Next", "[ENTER] Login")
	a.SetContent(form)
	a.update()
	return a
}

func (a *AuthPanel) ResetFields() {
	a.user.value = a.user.value[:0]
	a.pass.value = a.pass.value[:0]
	a.focus = &a.user
}

func (a *AuthPanel) Draw() {
	a.update()
	a.Panel.Draw()
}

func (a *AuthPanel) HandleEvent(ev tcell.Event) bool {
	kev, ok := ev.(*tcell.EventKey)
	if !ok {
		return a.Panel.HandleEvent(ev)
	}
	switch kev.Key() {
	case tcell.KeyEsc:
		a.App().Quit()
	case tcell.KeyTab, tcell.KeyEnter:
		if a.focus == &a.pass {
			a.App().SetUserPassword(string(a.user.value), string(a.pass.value))
			a.App().ShowMain()
		} else {
			a.focus = &a.pass
		}
	case tcell.KeyBacktab:
		a.focus = &a.user
	default:
		return a.focus.edit(kev)
	}
	return true
}

func (a *AuthPanel) update() {
	a.SetStatus("Authentication Required", healthError)
	for _, c := range []*credential{&a.user, &a.pass} {
		focused := c == a.focus
		c.view.SetText(c.display(focused))
		if focused {
			c.view.SetStyle(focusStyle)
		} else {
			c.view.SetStyle(StyleNormal)
		}
	}
}
