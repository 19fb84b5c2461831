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
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestApp(t *testing.T) {
	Convey("Given an app", t, func() {
		app := newTestApp(t)

		Convey("Lines below the level are dropped", func() {
			app.SetLevel(SevInfo)
			app.Log("x", SevDebug, "quiet")
			app.Log("x", SevInfo, "loud")
			So(countLines(app, SevDebug, "quiet"), ShouldEqual, 0)
			So(countLines(app, SevInfo, "loud"), ShouldEqual, 1)
		})

		Convey("Filters apply in order", func() {
			app.AddLogFilter(func(s string) string { return "a:" + s })
			app.AddLogFilter(func(s string) string { return "b:" + s })
			app.Logf("x", SevInfo, "n=%d", 3)
			recs, _ := app.LogBuffer().Records(0)
			So(recs[len(recs)-1].Text, ShouldEqual, "b:a:INFO x: n=3")
			So(recs[len(recs)-1].Facility, ShouldEqual, "x")
		})

		Convey("Additional destinations see every line", func() {
			var b bytes.Buffer
			l := log.New(&b, "", 0)
			app.AddLogger(l)
			app.Log("x", SevWarn, "one")
			app.DelLogger(l)
			app.Log("x", SevWarn, "two")
			So(b.String(), ShouldEqual, "WARN x: one\n")
		})

		Convey("Options are registered once", func() {
			p1 := app.IntOption("cluster", 2, "workers")
			p2 := app.IntOption("cluster", 5, "workers")
			So(p1, ShouldEqual, p2)
			So(app.Flags().Parse([]string{"--cluster=6"}), ShouldBeNil)
			So(*p1, ShouldEqual, 6)
		})

		Convey("Shutdown hooks run once", func() {
			n := 0
			app.OnShutdown(func() { n++ })
			app.Shutdown()
			app.Shutdown()
			So(n, ShouldEqual, 1)
		})

		Convey("Titles are filtered and published", func() {
			app.AddTitleFilter(func(s string) string { return s + "!" })
			So(app.SetTitle("t"), ShouldEqual, "t!")
			So(app.Title(), ShouldEqual, "t!")
			v, ok := app.Property(PropTitle)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "t!")
		})
	})
}

func TestLogBuffer(t *testing.T) {
	Convey("Given a small log buffer", t, func() {
		lb := NewLogBuffer(3)

		Convey("It keeps the newest records", func() {
			for _, s := range []string{"a", "b", "c", "d"} {
				lb.Append(SevInfo, "f", s)
			}
			recs, id := lb.Records(0)
			So(len(recs), ShouldEqual, 3)
			So(recs[0].Text, ShouldEqual, "b")
			So(recs[2].Text, ShouldEqual, "d")
			So(recs[2].Id, ShouldEqual, id)

			again, id2 := lb.Records(id)
			So(again, ShouldBeNil)
			So(id2, ShouldEqual, id)
		})

		Convey("Writes are split into lines", func() {
			lb.Write([]byte("one\ntwo\n"))
			recs, _ := lb.Records(0)
			So(len(recs), ShouldEqual, 2)
			So(recs[1].Text, ShouldEqual, "two")
			So(recs[1].Severity, ShouldEqual, "INFO")
		})

		Convey("Watch wakes on new records", func() {
			_, id := lb.Records(0)
			So(lb.Watch(id, 0), ShouldEqual, id)
			go func() {
				time.Sleep(5 * time.Millisecond)
				lb.Append(SevInfo, "f", "x")
			}()
			So(lb.Watch(id, time.Second), ShouldNotEqual, id)
		})

		Convey("Clear empties it", func() {
			lb.Append(SevInfo, "f", "x")
			lb.Clear()
			recs, _ := lb.Records(0)
			So(len(recs), ShouldEqual, 0)
		})
	})
}

func TestFileLogger(t *testing.T) {
	Convey("Lines reach the rotated log file", t, func() {
		path := filepath.Join(t.TempDir(), "test.log")
		l, closer := NewFileLogger(path, 1, 1)
		app := newTestApp(t)
		app.AddLogger(l)
		app.Log("x", SevInfo, "to the file")
		So(closer(), ShouldBeNil)

		data, err := os.ReadFile(path)
		So(err, ShouldBeNil)
		So(strings.Contains(string(data), "INFO x: to the file"), ShouldBeTrue)
	})
}
