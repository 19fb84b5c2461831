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
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/views"
)

// LogPanel follows the master's log buffer.
type LogPanel struct {
	text *views.TextArea

	Panel
}

func NewLogPanel(app *App) *LogPanel {
	p := &LogPanel{text: views.NewTextArea()}
	p.init(app)
	p.text.EnableCursor(false)
	p.text.SetStyle(StyleNormal)
	p.SetContent(p.text)
	p.SetTitle("Master Log")
	p.SetKeys("[ESC] Main", "[H] Help")
	return p
}

func (p *LogPanel) Reset() {
	p.text.SetLines(nil)
}

func (p *LogPanel) Draw() {
	p.update()
	p.Panel.Draw()
}

func (p *LogPanel) HandleEvent(ev tcell.Event) bool {
	if p.navigate(ev) {
		return true
	}
	return p.Panel.HandleEvent(ev)
}

func (p *LogPanel) update() {
	info, e := p.App().Log()
	switch {
	case info != nil:
	case e != nil:
		p.SetStatus(fmt.Sprintf("No data: %v", e), healthError)
		p.text.SetLines(nil)
		return
	default:
		p.SetStatus("Loading ...", healthNormal)
		p.text.SetLines(nil)
		return
	}

	p.SetStatus(fmt.Sprintf("%d records", len(info.Records)), healthNormal)
	lines := make([]string, len(info.Records))
	for i, r := range info.Records {
		lines[i] = fmt.Sprintf("%s %-5s %s: %s",
			r.Time.Format(time.StampMilli), r.Severity, r.Facility, r.Text)
	}
	p.text.SetLines(lines)
}
