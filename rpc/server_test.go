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

package rpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"

	"github.com/gdamore/gocluster"
	"github.com/gdamore/gocluster/rest"
)

type testLog struct {
	t *testing.T
}

func (tl *testLog) Write(p []byte) (n int, err error) {
	tl.t.Log(strings.Trim(string(p), "\n"))
	return len(p), nil
}

// stubForker hands out children that exit as soon as they are
// disconnected or signalled.
type stubForker struct {
	events chan cluster.Event
}

func (f *stubForker) Role() cluster.Role {
	return cluster.Role{Master: true}
}

func (f *stubForker) ClusterID() string {
	return "rpc-test"
}

func (f *stubForker) Events() <-chan cluster.Event {
	return f.events
}

func (f *stubForker) Parent() (cluster.Channel, error) {
	return nil, cluster.ErrNoChannel
}

func (f *stubForker) Fork(id int) (cluster.Child, error) {
	return &stubChild{f: f, id: id}, nil
}

type stubChild struct {
	f    *stubForker
	id   int
	once sync.Once
}

func (c *stubChild) Pid() int {
	return 100 + c.id
}

func (c *stubChild) Send(m *cluster.Message) error {
	return nil
}

func (c *stubChild) Disconnect() error {
	c.exit()
	return nil
}

func (c *stubChild) Signal(sig os.Signal) error {
	c.exit()
	return nil
}

func (c *stubChild) exit() {
	c.once.Do(func() {
		c.f.events <- cluster.Event{Kind: cluster.EventDisconnect, ID: c.id}
		c.f.events <- cluster.Event{Kind: cluster.EventExit, ID: c.id, Exit: &cluster.ExitInfo{}}
	})
}

func newTestServer(t *testing.T) (*cluster.Supervisor, *cluster.App, *Handler, *httptest.Server) {
	app := cluster.NewApp("rpc")
	app.SetLogWriter(&testLog{t})
	app.SetLevel(cluster.SevTrace)
	f := &stubForker{events: make(chan cluster.Event, 64)}
	cfg := cluster.DefaultConfig()
	cfg.DrainInterval = 5 * time.Millisecond
	s := cluster.NewSupervisor("rpc", f, app, cfg, 2)
	h := NewHandler(s, app.LogBuffer())
	srv := httptest.NewServer(h)
	return s, app, h, srv
}

func TestHandler(t *testing.T) {
	Convey("Given a master serving the status API", t, func() {
		s, app, h, srv := newTestServer(t)
		defer srv.Close()
		So(s.Start(), ShouldBeNil)
		defer s.Stop(context.Background())
		c := rest.NewClient(nil, srv.URL)

		Convey("Info describes the master", func() {
			info, err := c.Info()
			So(err, ShouldBeNil)
			So(info.Name, ShouldEqual, "rpc")
			So(info.Instances, ShouldEqual, 2)
			So(info.Workers, ShouldEqual, 2)
			So(info.ClusterID, ShouldEqual, "rpc-test")

			again, err := c.Info()
			So(err, ShouldBeNil)
			So(again, ShouldEqual, info)
		})

		Convey("Workers are listed and described", func() {
			ids, err := c.Workers()
			So(err, ShouldBeNil)
			So(ids, ShouldResemble, []int{1, 2})
			w, err := c.GetWorker(2)
			So(err, ShouldBeNil)
			So(w.Pid, ShouldEqual, 102)
			So(w.Alive, ShouldBeTrue)

			_, err = c.GetWorker(7)
			var re *rest.Error
			So(errors.As(err, &re), ShouldBeTrue)
			So(re.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Restart replaces a worker", func() {
			So(c.RestartWorker(1), ShouldBeNil)
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			ids, err := c.Workers()
			So(err, ShouldBeNil)
			for len(ids) != 2 || ids[0] != 2 {
				ids, err = c.WatchWorkers(ctx)
				So(err, ShouldBeNil)
			}
			So(ids, ShouldResemble, []int{2, 3})
		})

		Convey("Watch wakes on change", func() {
			tag, err := c.Watch(context.Background(), "")
			So(err, ShouldBeNil)
			So(tag, ShouldNotBeEmpty)
			go func() {
				time.Sleep(10 * time.Millisecond)
				s.Restart(2)
			}()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			ntag, err := c.Watch(ctx, tag)
			So(err, ShouldBeNil)
			So(ntag, ShouldNotEqual, tag)
		})

		Convey("The log is served", func() {
			l, err := c.GetLog()
			So(err, ShouldBeNil)
			So(len(l.Records), ShouldBeGreaterThan, 0)
			go func() {
				time.Sleep(10 * time.Millisecond)
				app.Log("test", cluster.SevInfo, "news")
			}()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			nl, err := c.WatchLog(ctx, l)
			So(err, ShouldBeNil)
			last := nl.Records[len(nl.Records)-1]
			So(last.Text, ShouldEqual, "INFO test: news")
		})

		Convey("Shutdown runs the hook", func() {
			So(c.Shutdown(), ShouldNotBeNil)
			done := make(chan struct{})
			h.OnShutdown(func() { close(done) })
			So(c.Shutdown(), ShouldBeNil)
			select {
			case <-done:
			case <-time.After(time.Second):
				So("no shutdown", ShouldBeEmpty)
			}
		})

		Convey("Authentication is enforced", func() {
			hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
			So(err, ShouldBeNil)
			h.SetAuth("admin", string(hash))

			_, err = c.Info()
			var re *rest.Error
			So(errors.As(err, &re), ShouldBeTrue)
			So(re.Code, ShouldEqual, http.StatusUnauthorized)

			c.SetAuth("admin", "wrong")
			_, err = c.Info()
			So(err, ShouldNotBeNil)

			c.SetAuth("admin", "secret")
			_, err = c.Info()
			So(err, ShouldBeNil)
		})

		Convey("A user without a hash leaves the API open", func() {
			h.SetAuth("admin", "")
			_, err := c.Info()
			So(err, ShouldBeNil)
		})
	})
}
