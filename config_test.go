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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"
)

func TestConfig(t *testing.T) {
	Convey("Defaults are valid", t, func() {
		cfg := DefaultConfig()
		So(cfg.Validate(), ShouldBeNil)
		So(cfg.Instances, ShouldEqual, 0)
		So(cfg.DrainInterval, ShouldEqual, 100*time.Millisecond)
		So(cfg.Level(), ShouldEqual, SevInfo)
	})

	Convey("YAML overrides the defaults", t, func() {
		cfg, err := ParseConfig([]byte(`
cluster: 4
drain_interval: 250ms
kill_after: 5s
max_conns: 100
status:
  listen: ":9000"
  user: admin
log:
  level: debug
  file: /var/log/clusterd.log
`))
		So(err, ShouldBeNil)
		So(cfg.Instances, ShouldEqual, 4)
		So(cfg.DrainInterval, ShouldEqual, 250*time.Millisecond)
		So(cfg.KillAfter, ShouldEqual, 5*time.Second)
		So(cfg.MaxConns, ShouldEqual, 100)
		So(cfg.Status.Listen, ShouldEqual, ":9000")
		So(cfg.Status.User, ShouldEqual, "admin")
		So(cfg.Level(), ShouldEqual, SevDebug)
		So(cfg.Log.MaxBackups, ShouldEqual, 3)
		So(cfg.ForkRetryMax, ShouldEqual, DefaultForkRetryMax)
	})

	Convey("Bad values are rejected", t, func() {
		for _, doc := range []string{
			"cluster: -1",
			"drain_interval: 0s",
			"fork_retry_min: 2s\nfork_retry_max: 1s",
			"max_conns: -3",
			"log:\n  level: shouty",
			"status:\n  user: admin",
			"status:\n  password_hash: \"$2a$10$abc\"",
			"status:\n  user: admin\n  password_hash: plaintext",
			"cluster: [",
		} {
			_, err := ParseConfig([]byte(doc))
			So(errors.Is(err, ErrBadConfig), ShouldBeTrue)
		}
	})

	Convey("A status user needs a bcrypt hash", t, func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
		So(err, ShouldBeNil)
		doc := fmt.Sprintf("status:\n  user: admin\n  password_hash: %q\n", hash)
		cfg, err := ParseConfig([]byte(doc))
		So(err, ShouldBeNil)
		So(cfg.Status.User, ShouldEqual, "admin")
		So(cfg.Status.PasswordHash, ShouldEqual, string(hash))
	})

	Convey("Config files are loaded", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "cluster.yaml")
		So(os.WriteFile(path, []byte("cluster: 2\n"), 0644), ShouldBeNil)
		cfg, err := LoadConfig(path)
		So(err, ShouldBeNil)
		So(cfg.Instances, ShouldEqual, 2)

		_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
		So(err, ShouldNotBeNil)
	})
}
