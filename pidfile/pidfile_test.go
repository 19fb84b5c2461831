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

package pidfile

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPidFile(t *testing.T) {
	Convey("Given an acquired pid file", t, func() {
		path := filepath.Join(t.TempDir(), "run", "test.pid")
		l, err := Acquire(path)
		So(err, ShouldBeNil)
		defer l.Release()

		Convey("It records our pid", func() {
			pid, err := ReadPID(path)
			So(err, ShouldBeNil)
			So(pid, ShouldEqual, os.Getpid())
			So(l.Path(), ShouldEqual, path)
		})

		Convey("A second acquire fails", func() {
			_, err := Acquire(path)
			So(err, ShouldEqual, ErrLocked)
		})

		Convey("Release removes it", func() {
			So(l.Release(), ShouldBeNil)
			So(l.Release(), ShouldBeNil)
			_, err := os.Stat(path)
			So(os.IsNotExist(err), ShouldBeTrue)

			l2, err := Acquire(path)
			So(err, ShouldBeNil)
			So(l2.Release(), ShouldBeNil)
		})
	})

	Convey("Reading garbage fails", t, func() {
		path := filepath.Join(t.TempDir(), "bad.pid")
		So(os.WriteFile(path, []byte("nope\n"), 0o644), ShouldBeNil)
		_, err := ReadPID(path)
		So(err, ShouldNotBeNil)
		_, err = ReadPID(filepath.Join(t.TempDir(), "missing.pid"))
		So(err, ShouldNotBeNil)
	})
}
