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

// Panel is a screen: title on top, status line beneath it, content, and
// the key legend at the bottom.
type Panel struct {
	title  *views.SimpleStyledTextBar
	status *StatusBar
	keys   *views.SimpleStyledTextBar
	app    *App

	views.Panel
}

func (p *Panel) init(app *App) {
	p.app = app
	p.title = newBar()
	p.title.SetRight(app.GetAppName())
	p.title.SetCenter(" ")
	p.status = NewStatusBar()
	p.keys = newBar()

	p.Panel.SetTitle(p.title)
	p.Panel.SetMenu(p.status)
	p.Panel.SetStatus(p.keys)
}

func (p *Panel) SetTitle(title string) {
	p.title.SetCenter(title)
}

func (p *Panel) SetKeys(words ...string) {
	p.keys.SetLeft(markup(words))
}

func (p *Panel) SetStatus(text string, h health) {
	p.status.Set(text, h)
}

func (p *Panel) App() *App {
	return p.app
}

// navigate handles the keys every secondary screen shares.
func (p *Panel) navigate(ev tcell.Event) bool {
	kev, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}
	switch kev.Key() {
	case tcell.KeyEsc:
		p.app.ShowMain()
		return true
	case tcell.KeyF1:
		p.app.ShowHelp()
		return true
	case tcell.KeyRune:
		switch kev.Rune() {
		case 'Q', 'q':
			p.app.ShowMain()
			return true
		case 'H', 'h':
			p.app.ShowHelp()
			return true
		case 'L', 'l':
			p.app.ShowLog()
			return true
		}
	}
	return false
}
