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

package cluster

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/spf13/pflag"
)

// App is the default Host.  Options are registered on a pflag.FlagSet,
// and log lines go both to an in-memory LogBuffer and to any number of
// destination loggers (standard error, to begin with).
type App struct {
	name         string
	flags        *pflag.FlagSet
	level        Severity
	fanout       *LogFanout
	stderr       *log.Logger
	buffer       *LogBuffer
	logFilters   []Filter
	titleFilters []Filter
	title        string
	props        map[PropertyName]interface{}
	ints         map[string]*int
	onShutdown   []func()
	shutOnce     sync.Once
	daemonized   bool
	killing      bool
	mx           sync.Mutex
}

func NewApp(name string) *App {
	a := &App{
		name:   name,
		flags:  pflag.NewFlagSet(name, pflag.ContinueOnError),
		level:  SevInfo,
		fanout: NewLogFanout(),
		stderr: log.New(os.Stderr, "", log.LstdFlags),
		buffer: NewLogBuffer(MaxLogRecords),
		props:  make(map[PropertyName]interface{}),
		ints:   make(map[string]*int),
	}
	a.fanout.Add(a.stderr)
	return a
}

func (a *App) Name() string {
	return a.name
}

// Flags returns the flag set options are registered on.  The application
// parses it (or merges it into its own) before starting the cluster.
func (a *App) Flags() *pflag.FlagSet {
	return a.flags
}

// IntOption registers an integer flag.  Registering the same name twice
// returns the same value.
func (a *App) IntOption(name string, def int, usage string) *int {
	a.mx.Lock()
	defer a.mx.Unlock()
	if p, ok := a.ints[name]; ok {
		return p
	}
	p := a.flags.Int(name, def, usage)
	a.ints[name] = p
	return p
}

func (a *App) SetLevel(sev Severity) {
	a.mx.Lock()
	a.level = sev
	a.mx.Unlock()
}

func (a *App) Level() Severity {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.level
}

// Log formats a line as "SEVERITY facility: message", runs it through
// the log filters, and delivers it.  Lines below the current level are
// dropped.
func (a *App) Log(facility string, sev Severity, msg string) {
	a.mx.Lock()
	if sev < a.level {
		a.mx.Unlock()
		return
	}
	line := fmt.Sprintf("%s %s: %s", sev, facility, msg)
	for _, f := range a.logFilters {
		line = f(line)
	}
	a.mx.Unlock()

	a.buffer.Append(sev, facility, line)
	a.fanout.Print(line)
}

func (a *App) Logf(facility string, sev Severity, format string, args ...interface{}) {
	a.Log(facility, sev, fmt.Sprintf(format, args...))
}

// AddLogger adds a destination for log lines.
func (a *App) AddLogger(l *log.Logger) {
	a.fanout.Add(l)
}

func (a *App) DelLogger(l *log.Logger) {
	a.fanout.Remove(l)
}

// SetLogWriter replaces standard error as the default destination.  A
// nil writer discards.
func (a *App) SetLogWriter(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	a.stderr.SetOutput(w)
}

// LogBuffer returns the in-memory record of recent log lines.
func (a *App) LogBuffer() *LogBuffer {
	return a.buffer
}

func (a *App) AddLogFilter(f Filter) {
	a.mx.Lock()
	a.logFilters = append(a.logFilters, f)
	a.mx.Unlock()
}

func (a *App) AddTitleFilter(f Filter) {
	a.mx.Lock()
	a.titleFilters = append(a.titleFilters, f)
	a.mx.Unlock()
}

// SetTitle sets the process title, after applying the title filters, and
// returns what was set.  The title is also published as PropTitle.
func (a *App) SetTitle(base string) string {
	a.mx.Lock()
	title := base
	for _, f := range a.titleFilters {
		title = f(title)
	}
	a.title = title
	a.mx.Unlock()

	if err := setProcessTitle(title); err != nil {
		a.Logf(Facility, SevDebug, "set process title: %v", err)
	}
	a.Publish(PropTitle, title)
	return title
}

func (a *App) Title() string {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.title
}

func (a *App) Publish(name PropertyName, v interface{}) {
	a.mx.Lock()
	a.props[name] = v
	a.mx.Unlock()
}

// Property returns a published value.
func (a *App) Property(name PropertyName) (interface{}, bool) {
	a.mx.Lock()
	defer a.mx.Unlock()
	v, ok := a.props[name]
	return v, ok
}

// OnShutdown registers a function run by Shutdown.
func (a *App) OnShutdown(fn func()) {
	a.mx.Lock()
	a.onShutdown = append(a.onShutdown, fn)
	a.mx.Unlock()
}

// Shutdown runs the shutdown hooks, in order.  Only the first call has
// any effect.
func (a *App) Shutdown() {
	a.shutOnce.Do(func() {
		a.mx.Lock()
		hooks := append([]func(){}, a.onShutdown...)
		a.mx.Unlock()
		for _, fn := range hooks {
			fn()
		}
	})
}

func (a *App) SetDaemonized(b bool) {
	a.mx.Lock()
	a.daemonized = b
	a.mx.Unlock()
}

func (a *App) SetKillingDaemon(b bool) {
	a.mx.Lock()
	a.killing = b
	a.mx.Unlock()
}

func (a *App) Daemonized() bool {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.daemonized
}

func (a *App) KillingDaemon() bool {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.killing
}
