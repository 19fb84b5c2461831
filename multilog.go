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
	"log"
	"strings"
	"sync"
)

// LogFanout delivers each line it is given to every registered
// destination logger.  Destinations keep their own prefix and flags.
// It implements io.Writer, so that a log.Logger (or anything else
// producing newline delimited text) can feed it.
type LogFanout struct {
	log   *log.Logger
	dests []*log.Logger
	lock  sync.Mutex
}

func NewLogFanout() *LogFanout {
	f := &LogFanout{}
	f.log = log.New(f, "", 0)
	return f
}

func (f *LogFanout) Write(b []byte) (int, error) {
	lines := strings.Split(strings.Trim(string(b), "\n"), "\n")
	f.lock.Lock()
	for _, line := range lines {
		for _, d := range f.dests {
			d.Println(line)
		}
	}
	f.lock.Unlock()
	return len(b), nil
}

// Print sends one line to every destination.
func (f *LogFanout) Print(line string) {
	f.Write([]byte(line))
}

// Add registers a destination.  Adding the same logger twice has no
// effect.
func (f *LogFanout) Add(l *log.Logger) {
	f.lock.Lock()
	defer f.lock.Unlock()
	for _, x := range f.dests {
		if x == l {
			return
		}
	}
	f.dests = append(f.dests, l)
}

func (f *LogFanout) Remove(l *log.Logger) {
	f.lock.Lock()
	defer f.lock.Unlock()
	for i, x := range f.dests {
		if x == l {
			f.dests = append(f.dests[:i], f.dests[i+1:]...)
			return
		}
	}
}

func (f *LogFanout) Len() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.dests)
}

// Logger returns a logger writing into the fanout.
func (f *LogFanout) Logger() *log.Logger {
	return f.log
}
