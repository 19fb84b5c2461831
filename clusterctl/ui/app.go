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
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/views"

	"github.com/gdamore/gocluster/clusterctl/util"
	"github.com/gdamore/gocluster/rest"
)

var ErrNoWorker = errors.New("worker not found")

// App is the root widget.  It delegates to whichever panel is on screen,
// and keeps a snapshot of the master's state that panels render from.
type App struct {
	views.Widget

	app    *views.Application
	view   views.View
	client *rest.Client
	logger *log.Logger
	wake   chan struct{}

	main *MainPanel
	info *InfoPanel
	log  *LogPanel
	help *HelpPanel
	auth *AuthPanel

	mx      sync.Mutex // guards the snapshot below
	master  *rest.Info
	workers []*rest.WorkerInfo
	err     error

	logInfo   *rest.LogInfo
	logErr    error
	logCancel context.CancelFunc
}

func NewApp(client *rest.Client, url string) *App {
	a := &App{
		app:    &views.Application{},
		client: client,
		wake:   make(chan struct{}, 1),
	}
	a.main = NewMainPanel(a, url)
	a.info = NewInfoPanel(a)
	a.log = NewLogPanel(a)
	a.help = NewHelpPanel(a)
	a.auth = NewAuthPanel(a, url)
	a.Widget = a.main

	go a.refresh()
	return a
}

func (a *App) GetAppName() string {
	return "Gocluster v1.0"
}

func (a *App) SetLogger(logger *log.Logger) {
	a.logger = logger
}

func (a *App) Logf(fmt string, v ...interface{}) {
	if a.logger != nil {
		a.logger.Printf(fmt, v...)
	}
}

func (a *App) show(w views.Widget) {
	if w != a.Widget {
		a.Widget.SetView(nil)
		a.Widget = w
	}
	a.Widget.SetView(a.view)
	a.Widget.Resize()
	a.app.Refresh()
}

func (a *App) SetView(view views.View) {
	a.view = view
	a.Widget.SetView(view)
}

func (a *App) HandleEvent(ev tcell.Event) bool {
	if kev, ok := ev.(*tcell.EventKey); ok {
		switch kev.Key() {
		case tcell.KeyCtrlC:
			a.Quit()
			return true
		case tcell.KeyCtrlL:
			a.app.Refresh()
			return true
		}
	}
	return a.Widget.HandleEvent(ev)
}

func (a *App) stopLog() {
	if a.logCancel != nil {
		a.logCancel()
		a.logCancel = nil
	}
}

func (a *App) ShowMain() {
	a.stopLog()
	a.show(a.main)
}

func (a *App) ShowHelp() {
	a.show(a.help)
}

func (a *App) ShowInfo(id int) {
	a.info.SetWorker(id)
	a.show(a.info)
}

func (a *App) ShowAuth() {
	a.auth.ResetFields()
	a.show(a.auth)
}

// ShowLog displays the master's log, following it while the panel is on
// screen.
func (a *App) ShowLog() {
	a.stopLog()
	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	a.logCancel = cancel
	a.mx.Lock()
	a.logInfo = nil
	a.logErr = nil
	a.mx.Unlock()
	a.log.Reset()
	go a.followLog(ctx)

	a.show(a.log)
}

func (a *App) RestartWorker(id int) {
	if e := a.client.RestartWorker(id); e != nil {
		a.Logf("restart worker %d: %v", id, e)
	}
}

func (a *App) SetUserPassword(user, pass string) {
	a.client.SetAuth(user, pass)
	// forget the 401 until the next poll says otherwise
	a.mx.Lock()
	a.err = nil
	a.workers = nil
	a.mx.Unlock()
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *App) Quit() {
	a.app.Quit()
}

func (a *App) Master() *rest.Info {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.master
}

func (a *App) Workers() ([]*rest.WorkerInfo, error) {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.workers, a.err
}

func (a *App) Worker(id int) (*rest.WorkerInfo, error) {
	a.mx.Lock()
	defer a.mx.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	for _, w := range a.workers {
		if w.ID == id {
			return w, nil
		}
	}
	return nil, ErrNoWorker
}

func (a *App) Log() (*rest.LogInfo, error) {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.logInfo, a.logErr
}

func (a *App) load() (*rest.Info, []*rest.WorkerInfo, error) {
	info, e := a.client.Info()
	if e != nil {
		return nil, nil, e
	}
	ids, e := a.client.Workers()
	if e != nil {
		return nil, nil, e
	}
	workers := make([]*rest.WorkerInfo, 0, len(ids))
	for _, id := range ids {
		// a worker can vanish between the two requests
		if w, e := a.client.GetWorker(id); e == nil {
			workers = append(workers, w)
		}
	}
	util.SortWorkers(workers)
	return info, workers, nil
}

// refresh reloads the snapshot every time the master's serial moves.
func (a *App) refresh() {
	etag := ""
	for {
		info, workers, err := a.load()
		a.mx.Lock()
		a.master = info
		a.workers = workers
		a.err = err
		a.mx.Unlock()
		a.app.Update()

		var e error
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
			etag, e = a.client.Watch(ctx, etag)
			cancel()
		}
		if err != nil || e != nil {
			select {
			case <-a.wake:
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func (a *App) followLog(ctx context.Context) {
	info, err := a.client.GetLog()
	for ctx.Err() == nil {
		a.mx.Lock()
		if ctx.Err() == nil {
			a.logInfo = info
			a.logErr = err
		}
		a.mx.Unlock()
		a.app.Update()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
			info, err = a.client.GetLog()
			continue
		}
		info, err = a.client.WatchLog(ctx, info)
	}
}

func (a *App) Run() {
	a.Logf("starting user interface")
	a.app.SetRootWidget(a)
	a.ShowMain()
	go func() {
		// uptimes tick even when nothing changes
		for {
			a.app.Update()
			time.Sleep(time.Second)
		}
	}()
	if e := a.app.Run(); e != nil {
		a.Logf("user interface: %v", e)
	}
}
