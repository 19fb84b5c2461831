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

var helpText = []string{
	"Keys (not every key works on every screen)",
	"",
	"  <ESC>          : back to the worker list",
	"  <CTRL-C>       : quit",
	"  <CTRL-L>       : redraw the screen",
	"  <H>, <F1>      : this help",
	"  <UP>, <DOWN>   : select a worker",
	"  <I>, <ENTER>   : details for the selected worker",
	"  <R>            : restart the selected worker",
	"  <L>            : follow the master log",
	"",
	"Restarting retires the worker and forks a replacement with a new id.",
	"",
	"This program is distributed under the Apache 2.0 License",
	"Copyright 2026 The Gocluster Authors",
}

type HelpPanel struct {
	Panel
}

func NewHelpPanel(app *App) *HelpPanel {
	h := &HelpPanel{}
	h.init(app)

	text := views.NewTextArea()
	text.EnableCursor(false)
	text.SetStyle(StyleNormal)
	text.SetLines(helpText)
	h.SetContent(text)

	h.SetTitle("Help")
	h.SetKeys("[ESC] Main")
	return h
}

func (h *HelpPanel) HandleEvent(ev tcell.Event) bool {
	if h.navigate(ev) {
		return true
	}
	return h.Panel.HandleEvent(ev)
}
