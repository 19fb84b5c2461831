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

	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/views"

	"github.com/gdamore/gocluster/clusterctl/util"
	"github.com/gdamore/gocluster/rest"
)

type row struct {
	text   string
	health health
	worker *rest.WorkerInfo
}

// workerList is the CellModel behind the main screen.  The cursor moves
// by whole rows; selected is false until the user first moves it.
type workerList struct {
	rows     []row
	width    int
	cur      int
	left     int
	selected bool
}

func (l *workerList) GetCell(x, y int) (rune, tcell.Style, []rune, int) {
	if y < 0 || y >= len(l.rows) {
		return ' ', StyleNormal, nil, 1
	}
	r := l.rows[y]
	st := rowStyles[r.health]
	if l.selected && y == l.cur {
		st = st.Reverse(true)
	}
	ch := ' '
	if x >= 0 && x < len(r.text) {
		ch = rune(r.text[x])
	}
	return ch, st, nil, 1
}

func (l *workerList) GetBounds() (int, int) {
	return l.width, len(l.rows)
}

func (l *workerList) GetCursor() (int, int, bool, bool) {
	return l.left, l.cur, true, false
}

func (l *workerList) MoveCursor(offx, offy int) {
	l.SetCursor(l.left+offx, l.cur+offy)
}

func (l *workerList) SetCursor(x, y int) {
	l.left = clamp(x, l.width-1)
	l.cur = clamp(y, len(l.rows)-1)
	l.selected = len(l.rows) > 0
}

func clamp(v, max int) int {
	if v > max {
		v = max
	}
	if v < 0 {
		v = 0
	}
	return v
}

func (l *workerList) current() *rest.WorkerInfo {
	if !l.selected || l.cur >= len(l.rows) {
		return nil
	}
	return l.rows[l.cur].worker
}

// load replaces the rows, keeping the cursor on the same worker id.
func (l *workerList) load(workers []*rest.WorkerInfo) {
	prev := l.current()

	l.rows = l.rows[:0]
	l.width = 0
	for _, w := range workers {
		text := fmt.Sprintf("worker-%-4d %8d %-12s %10s   %s",
			w.ID, w.Pid, util.Status(w),
			util.FormatDuration(util.Uptime(w)), util.Addresses(w))
		if len(text) > l.width {
			l.width = len(text)
		}
		l.rows = append(l.rows, row{text: text, health: healthOf(w), worker: w})
	}

	if prev == nil {
		return
	}
	l.selected = false
	for y, r := range l.rows {
		if r.worker.ID == prev.ID {
			l.cur = y
			l.selected = true
		}
	}
}

// MainPanel lists the workers of the master we talk to.
type MainPanel struct {
	list    *workerList
	content *views.CellView

	Panel
}

func NewMainPanel(app *App, server string) *MainPanel {
	m := &MainPanel{list: &workerList{}}
	m.init(app)

	m.content = views.NewCellView()
	m.content.SetModel(m.list)
	m.content.SetStyle(StyleNormal)
	m.SetContent(m.content)

	m.SetTitle(server)
	m.SetKeys("[Q] Quit")
	return m
}

func (m *MainPanel) Draw() {
	m.update()
	m.Panel.Draw()
}

func (m *MainPanel) HandleEvent(ev tcell.Event) bool {
	app := m.App()
	w := m.list.current()
	if kev, ok := ev.(*tcell.EventKey); ok {
		switch kev.Key() {
		case tcell.KeyEsc:
			m.list.selected = false
			return true
		case tcell.KeyF1:
			app.ShowHelp()
			return true
		case tcell.KeyEnter:
			if w != nil {
				app.ShowInfo(w.ID)
				return true
			}
		case tcell.KeyRune:
			switch kev.Rune() {
			case 'Q', 'q':
				app.Quit()
				return true
			case 'H', 'h':
				app.ShowHelp()
				return true
			case 'L', 'l':
				app.ShowLog()
				return true
			case 'I', 'i':
				if w != nil {
					app.ShowInfo(w.ID)
					return true
				}
			case 'R', 'r':
				if w != nil && !w.Stopping {
					app.RestartWorker(w.ID)
					return true
				}
			}
		}
	}
	return m.Panel.HandleEvent(ev)
}

// update is called with the AppLock held.
func (m *MainPanel) update() {
	app := m.App()
	workers, err := app.Workers()
	if err != nil {
		if e, ok := err.(*rest.Error); ok && e.Code == 401 {
			app.ShowAuth()
			return
		}
		m.list.load(nil)
		m.SetStatus(fmt.Sprintf("Cannot load workers: %v", err), healthError)
		m.SetKeys("[Q] Quit", "[H] Help")
		return
	}
	m.list.load(workers)

	counts := map[string]int{}
	for _, w := range workers {
		counts[util.Status(w)]++
	}
	bad := len(workers) - counts["online"] - counts["starting"] - counts["stopping"]

	status := fmt.Sprintf("%6d Workers %6d Online %6d Starting %6d Stopping",
		len(workers), counts["online"], counts["starting"], counts["stopping"])
	h := healthNormal
	master := app.Master()
	if master != nil {
		m.SetTitle(fmt.Sprintf("%s (pid %d)", master.Name, master.Pid))
		status += fmt.Sprintf(" %6d Respawns", master.Respawns)
	}
	switch {
	case bad > 0:
		h = healthError
	case master != nil && (master.ShuttingDown || len(workers) < master.Instances):
		h = healthWarn
	case counts["starting"] > 0 || counts["stopping"] > 0:
		h = healthWarn
	case counts["online"] > 0:
		h = healthGood
	}
	m.SetStatus(status, h)

	keys := []string{"[Q] Quit", "[H] Help", "[L] Log"}
	if w := m.list.current(); w != nil {
		keys = append(keys, "[I] Info")
		if !w.Stopping {
			keys = append(keys, "[R] Restart")
		}
	}
	m.SetKeys(keys...)
}
