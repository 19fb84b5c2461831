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
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/views"

	"github.com/gdamore/gocluster/clusterctl/util"
	"github.com/gdamore/gocluster/rest"
)

// InfoPanel shows the details of a single worker.
type InfoPanel struct {
	text   *views.TextArea
	id     int
	worker *rest.WorkerInfo

	Panel
}

func NewInfoPanel(app *App) *InfoPanel {
	p := &InfoPanel{text: views.NewTextArea()}
	p.init(app)
	p.text.EnableCursor(false)
	p.text.SetStyle(StyleNormal)
	p.SetContent(p.text)
	return p
}

func (p *InfoPanel) SetWorker(id int) {
	p.id = id
	p.worker = nil
	p.SetTitle(fmt.Sprintf("Details for worker %d", id))
}

func (p *InfoPanel) Draw() {
	p.update()
	p.Panel.Draw()
}

func (p *InfoPanel) HandleEvent(ev tcell.Event) bool {
	if kev, ok := ev.(*tcell.EventKey); ok && kev.Key() == tcell.KeyRune {
		switch kev.Rune() {
		case 'R', 'r':
			if w := p.worker; w != nil && !w.Stopping {
				p.App().RestartWorker(w.ID)
				return true
			}
		}
	}
	if p.navigate(ev) {
		return true
	}
	return p.Panel.HandleEvent(ev)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.StampMilli)
}

func (p *InfoPanel) update() {
	w, e := p.App().Worker(p.id)
	p.worker = w

	if w == nil {
		switch {
		case e == ErrNoWorker:
			// restarted or crashed; the replacement has a new id
			p.SetStatus("Worker is no longer running", healthWarn)
		case e != nil:
			p.SetStatus(fmt.Sprintf("No data: %v", e), healthError)
		default:
			p.SetStatus("Loading...", healthNormal)
		}
		p.text.SetLines(nil)
		p.SetKeys("[ESC] Main", "[H] Help", "[L] Log")
		return
	}

	p.SetStatus(util.Status(w), healthOf(w))

	addrs := make([]string, 0, len(w.Addresses))
	for _, a := range w.Addresses {
		addrs = append(addrs, a.String())
	}
	if len(addrs) == 0 {
		addrs = append(addrs, "-")
	}

	field := func(name string, v interface{}) string {
		return fmt.Sprintf("%12s %v", name+":", v)
	}
	lines := []string{
		field("Worker", w.ID),
		field("Pid", w.Pid),
		field("Status", util.Status(w)),
		field("Connected", w.Connected),
		field("Forked", stamp(w.Forked)),
		field("Online", stamp(w.OnlineAt)),
		field("Uptime", util.FormatDuration(util.Uptime(w))),
		field("Listening", strings.Join(addrs, ", ")),
	}
	if w.Exit != nil {
		lines = append(lines, field("Exit", fmt.Sprintf("%s (%s)", w.Exit, w.Cause)))
	}
	p.text.SetLines(lines)

	if w.Stopping {
		p.SetKeys("[ESC] Main", "[H] Help", "[L] Log")
	} else {
		p.SetKeys("[ESC] Main", "[H] Help", "[L] Log", "[R] Restart")
	}
}
