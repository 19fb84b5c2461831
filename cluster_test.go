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
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type testLog struct {
	t *testing.T
}

func (tl *testLog) Write(p []byte) (n int, err error) {
	s := string(p)
	s = strings.Trim(s, "\n")
	tl.t.Log(s)
	return len(p), nil
}

func newTestApp(t *testing.T) *App {
	a := NewApp("test")
	a.SetLogWriter(&testLog{t})
	a.SetLevel(SevTrace)
	return a
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.DrainInterval = 5 * time.Millisecond
	cfg.ForkRetryMin = 5 * time.Millisecond
	cfg.ForkRetryMax = 20 * time.Millisecond
	return cfg
}

// countLines counts buffered log lines at sev containing text.
func countLines(a *App, sev Severity, text string) int {
	recs, _ := a.LogBuffer().Records(0)
	n := 0
	for _, r := range recs {
		if r.Severity == sev.String() && strings.Contains(r.Text, text) {
			n++
		}
	}
	return n
}

func waitFor(d time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

type fakeForker struct {
	role     Role
	parent   Channel
	events   chan Event
	forks    []int
	failNext int
	children map[int]*fakeChild

	// applied to every child forked
	exitOnDisconnect bool
	deaf             bool
	immortal         bool

	mx sync.Mutex
}

func newFakeForker() *fakeForker {
	return &fakeForker{
		role:     Role{Master: true},
		events:   make(chan Event, 1024),
		children: make(map[int]*fakeChild),
	}
}

func (f *fakeForker) Role() Role {
	return f.role
}

func (f *fakeForker) ClusterID() string {
	return "test-cluster"
}

func (f *fakeForker) Events() <-chan Event {
	return f.events
}

func (f *fakeForker) Parent() (Channel, error) {
	if f.parent == nil {
		return nil, ErrNoChannel
	}
	return f.parent, nil
}

func (f *fakeForker) Fork(id int) (Child, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.forks = append(f.forks, id)
	if f.failNext > 0 {
		f.failNext--
		return nil, errors.New("Injected fork failure")
	}
	c := &fakeChild{
		f:                f,
		id:               id,
		pid:              1000 + id,
		exitOnDisconnect: f.exitOnDisconnect,
		deaf:             f.deaf,
		immortal:         f.immortal,
	}
	f.children[id] = c
	return c, nil
}

func (f *fakeForker) forkCount() int {
	f.mx.Lock()
	defer f.mx.Unlock()
	return len(f.forks)
}

func (f *fakeForker) child(id int) *fakeChild {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.children[id]
}

func (f *fakeForker) emit(ev Event) {
	ev.Time = time.Now()
	f.events <- ev
}

type fakeChild struct {
	f                *fakeForker
	id               int
	pid              int
	sent             []*Message
	signals          []os.Signal
	disconnected     bool
	exited           bool
	exitOnDisconnect bool
	deaf             bool // ignores SIGTERM
	immortal         bool // ignores everything
	mx               sync.Mutex
}

func (c *fakeChild) Pid() int {
	return c.pid
}

func (c *fakeChild) Send(m *Message) error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.disconnected {
		return ErrNotConnected
	}
	c.sent = append(c.sent, m)
	return nil
}

func (c *fakeChild) Disconnect() error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.disconnected {
		return nil
	}
	c.disconnected = true
	c.f.emit(Event{Kind: EventDisconnect, ID: c.id})
	if c.exitOnDisconnect {
		c.exit(&ExitInfo{Code: 0})
	}
	return nil
}

func (c *fakeChild) Signal(sig os.Signal) error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.exited {
		return errors.New("os: process already finished")
	}
	c.signals = append(c.signals, sig)
	if c.immortal || (c.deaf && sig == syscall.SIGTERM) {
		return nil
	}
	name := "SIGTERM"
	if sig == syscall.SIGKILL {
		name = "SIGKILL"
	}
	c.exit(&ExitInfo{Code: -1, Signal: name})
	return nil
}

// exit must be called with the lock held.
func (c *fakeChild) exit(e *ExitInfo) {
	if c.exited {
		return
	}
	c.exited = true
	if !c.disconnected {
		c.disconnected = true
		c.f.emit(Event{Kind: EventDisconnect, ID: c.id})
	}
	c.f.emit(Event{Kind: EventExit, ID: c.id, Exit: e})
}

// crash simulates the worker dying on its own.
func (c *fakeChild) crash(code int) {
	c.mx.Lock()
	c.exit(&ExitInfo{Code: code})
	c.mx.Unlock()
}

func (c *fakeChild) messages() []*Message {
	c.mx.Lock()
	defer c.mx.Unlock()
	return append([]*Message{}, c.sent...)
}

func (c *fakeChild) signalCount() int {
	c.mx.Lock()
	defer c.mx.Unlock()
	return len(c.signals)
}

func TestClusterDisabled(t *testing.T) {
	Convey("With no instances configured", t, func() {
		app := newTestApp(t)
		f := newFakeForker()
		c := New(app, f, testConfig())
		So(app.Flags().Parse([]string{"--cluster=0"}), ShouldBeNil)
		So(c.Start(), ShouldBeNil)

		Convey("The cluster is inert", func() {
			So(c.Mode(), ShouldEqual, ModeDisabled)
			So(c.Supervisor(), ShouldBeNil)
			So(f.forkCount(), ShouldEqual, 0)
			r, err := c.Stop(context.Background())
			So(err, ShouldBeNil)
			So(r.Workers, ShouldEqual, 0)
		})
		Convey("The mode is still published", func() {
			v, ok := app.Property(PropMode)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, ModeDisabled)
			_, ok = app.Property(PropCluster)
			So(ok, ShouldBeFalse)
		})
		Convey("Logs and titles are not decorated", func() {
			app.Log("test", SevInfo, "hello")
			So(countLines(app, SevInfo, "hello"), ShouldEqual, 1)
			recs, _ := app.LogBuffer().Records(0)
			So(recs[len(recs)-1].Text, ShouldEqual, "INFO test: hello")
			So(app.SetTitle("test"), ShouldEqual, "test")
		})
		Convey("Starting twice fails", func() {
			So(c.Start(), ShouldEqual, ErrAlreadyActive)
		})
	})

	Convey("When running as a daemon", t, func() {
		app := newTestApp(t)
		app.SetDaemonized(true)
		f := newFakeForker()
		cfg := testConfig()
		cfg.Instances = 4
		c := New(app, f, cfg)
		So(c.Start(), ShouldBeNil)
		So(c.Mode(), ShouldEqual, ModeDisabled)
		So(f.forkCount(), ShouldEqual, 0)
	})

	Convey("When killing the daemon", t, func() {
		app := newTestApp(t)
		app.SetKillingDaemon(true)
		f := newFakeForker()
		cfg := testConfig()
		cfg.Instances = 4
		c := New(app, f, cfg)
		So(c.Start(), ShouldBeNil)
		So(c.Mode(), ShouldEqual, ModeDisabled)
		So(f.forkCount(), ShouldEqual, 0)
	})
}

func TestClusterMaster(t *testing.T) {
	Convey("Given a master with two instances", t, func() {
		app := newTestApp(t)
		f := newFakeForker()
		f.exitOnDisconnect = true
		c := New(app, f, testConfig())
		So(app.Flags().Parse([]string{"--cluster", "2"}), ShouldBeNil)
		So(c.Start(), ShouldBeNil)
		defer c.Stop(context.Background())

		Convey("Two workers are forked", func() {
			So(c.Mode(), ShouldEqual, ModeMaster)
			So(c.Supervisor(), ShouldNotBeNil)
			So(f.forkCount(), ShouldEqual, 2)
			ws, _ := c.Supervisor().Workers()
			So(len(ws), ShouldEqual, 2)
		})
		Convey("Role information is published", func() {
			v, _ := app.Property(PropMode)
			So(v, ShouldEqual, ModeMaster)
			v, _ = app.Property(PropCluster)
			So(v, ShouldEqual, c)
		})
		Convey("Logs and titles carry the role", func() {
			app.Log("test", SevInfo, "hello")
			recs, _ := app.LogBuffer().Records(0)
			So(recs[len(recs)-1].Text, ShouldEqual, "[MASTER]: INFO test: hello")
			So(app.SetTitle("test"), ShouldEqual, "test [MASTER]")
			v, _ := app.Property(PropTitle)
			So(v, ShouldEqual, "test [MASTER]")
		})
		Convey("Stop drains the pool", func() {
			r, err := c.Stop(context.Background())
			So(err, ShouldBeNil)
			So(r.Clean(), ShouldBeTrue)
			So(r.Workers, ShouldEqual, 2)
			So(f.forkCount(), ShouldEqual, 2)
		})
	})
}

func TestClusterWorker(t *testing.T) {
	Convey("Given a worker connected to a master", t, func() {
		app := newTestApp(t)
		shutdowns := make(chan struct{}, 4)
		app.OnShutdown(func() { shutdowns <- struct{}{} })

		ours, theirs := net.Pipe()
		master := NewChannel(ours)
		f := newFakeForker()
		f.role = Role{WorkerID: 3}
		f.parent = NewChannel(theirs)

		cfg := testConfig()
		cfg.Instances = 2
		c := New(app, f, cfg)

		online := make(chan *Message, 1)
		go func() {
			m, err := master.Recv()
			if err == nil {
				online <- m
			}
		}()
		So(c.Start(), ShouldBeNil)
		defer master.Close()

		Convey("The master is told we are online", func() {
			So(c.Mode(), ShouldEqual, ModeWorker)
			So(c.WorkerID(), ShouldEqual, 3)
			var m *Message
			select {
			case m = <-online:
			case <-time.After(time.Second):
			}
			So(m, ShouldNotBeNil)
			So(m.Type, ShouldEqual, MsgOnline)
			So(m.Cluster, ShouldEqual, "test-cluster")
		})

		Convey("Logs and titles carry the worker id", func() {
			app.Log("test", SevWarn, "careful")
			recs, _ := app.LogBuffer().Records(0)
			So(recs[len(recs)-1].Text, ShouldEqual, "[WORKER-3]: WARN test: careful")
			So(app.SetTitle("srv"), ShouldEqual, "srv [WORKER-3]")
		})

		Convey("A shutdown directive shuts the host down once", func() {
			<-online
			So(master.Send(&Message{Type: MsgShutdown}), ShouldBeNil)
			So(master.Close(), ShouldBeNil)
			select {
			case <-shutdowns:
			case <-time.After(time.Second):
				So("no shutdown", ShouldBeEmpty)
			}
			<-c.agent.Done()
			So(len(shutdowns), ShouldEqual, 0)
			So(countLines(app, SevInfo, "received shutdown directive"), ShouldEqual, 1)
		})

		Convey("Unknown and misdirected messages do not shut it down", func() {
			<-online
			_, err := ours.Write([]byte(`{"type":"bogus"}` + "\n"))
			So(err, ShouldBeNil)
			So(master.Send(&Message{Type: MsgOnline, Cluster: "other"}), ShouldBeNil)
			So(waitFor(time.Second, func() bool {
				return countLines(app, SevDebug, "ignoring online message") == 1
			}), ShouldBeTrue)
			So(countLines(app, SevWarn, "discarding message from master"), ShouldEqual, 1)
			So(len(shutdowns), ShouldEqual, 0)
		})

		Convey("Losing the master also shuts down", func() {
			<-online
			So(master.Close(), ShouldBeNil)
			select {
			case <-shutdowns:
			case <-time.After(time.Second):
				So("no shutdown", ShouldBeEmpty)
			}
			So(countLines(app, SevInfo, "lost connection to master"), ShouldEqual, 1)
		})

		Convey("Listening is reported to the master", func() {
			<-online
			got := make(chan *Message, 1)
			go func() {
				m, err := master.Recv()
				if err == nil {
					got <- m
				}
			}()
			l, err := c.Listen("tcp", "127.0.0.1:0")
			So(err, ShouldBeNil)
			defer l.Close()
			var m *Message
			select {
			case m = <-got:
			case <-time.After(time.Second):
			}
			So(m, ShouldNotBeNil)
			So(m.Type, ShouldEqual, MsgListening)
			So(m.Address.Family, ShouldEqual, "IPv4")
			So(m.Address.Port, ShouldEqual, l.Addr().(*net.TCPAddr).Port)
		})

		Convey("Stop does nothing in a worker", func() {
			r, err := c.Stop(context.Background())
			So(err, ShouldBeNil)
			So(r.Workers, ShouldEqual, 0)
		})
	})

	Convey("A worker without a master channel fails to start", t, func() {
		app := newTestApp(t)
		f := newFakeForker()
		f.role = Role{WorkerID: 1}
		cfg := testConfig()
		cfg.Instances = 1
		c := New(app, f, cfg)
		err := c.Start()
		So(errors.Is(err, ErrNoChannel), ShouldBeTrue)
	})
}

func TestListenReusePort(t *testing.T) {
	Convey("Two listeners can share an address", t, func() {
		app := newTestApp(t)
		cfg := testConfig()
		cfg.MaxConns = 4
		c := New(app, newFakeForker(), cfg)
		So(c.Start(), ShouldBeNil)

		l1, err := c.Listen("tcp", "127.0.0.1:0")
		So(err, ShouldBeNil)
		defer l1.Close()
		l2, err := c.Listen("tcp", l1.Addr().String())
		So(err, ShouldBeNil)
		defer l2.Close()
	})
}
