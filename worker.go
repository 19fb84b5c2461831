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
	"time"
)

// ConnState tracks whether the IPC channel to a worker is usable.
type ConnState int

const (
	Connected ConnState = iota
	Disconnected
)

func (c ConnState) String() string {
	if c == Connected {
		return "connected"
	}
	return "disconnected"
}

// LifeState tracks whether the worker process exists.
type LifeState int

const (
	Alive LifeState = iota
	Dead
)

func (l LifeState) String() string {
	if l == Alive {
		return "alive"
	}
	return "dead"
}

// Cause records why a worker went away.  It is set once, when the exit is
// observed.
type Cause int

const (
	CauseNone Cause = iota
	CauseVoluntary
	CauseCrashed
)

func (c Cause) String() string {
	switch c {
	case CauseVoluntary:
		return "voluntary"
	case CauseCrashed:
		return "crashed"
	}
	return "none"
}

// ExitInfo describes how a worker process ended.  If Signal is set the
// process was killed by that signal and Code is -1; otherwise Code is the
// exit status.
type ExitInfo struct {
	Code   int    `json:"code"`
	Signal string `json:"signal,omitempty"`
}

func (e *ExitInfo) String() string {
	if e == nil {
		return "unknown"
	}
	if e.Signal != "" {
		return "signal " + e.Signal
	}
	return fmt.Sprintf("code %d", e.Code)
}

// Address is a network endpoint a worker has bound.
type Address struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
	Family  string `json:"family"`
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%d (%s)", a.Address, a.Port, a.Family)
}

// Worker is the master's record of one worker process.  Records are only
// created after a successful fork, and only removed once the process has
// been reaped.
type Worker struct {
	ID        int
	Pid       int
	Conn      ConnState
	Life      LifeState
	Cause     Cause
	Exit      *ExitInfo
	Addresses []Address
	Forked    time.Time
	Online    time.Time

	child    Child
	stopping bool  // termination requested by the supervisor
	serial   int64 // supervisor serial at last change
}

// WorkerInfo is a copy of a Worker that is safe to hand out.
type WorkerInfo struct {
	ID        int       `json:"id"`
	Serial    int64     `json:"serial,string"`
	Pid       int       `json:"pid"`
	Connected bool      `json:"connected"`
	Alive     bool      `json:"alive"`
	Online    bool      `json:"online"`
	Stopping  bool      `json:"stopping"`
	Cause     string    `json:"cause"`
	Exit      *ExitInfo `json:"exit,omitempty"`
	Addresses []Address `json:"addresses"`
	Forked    time.Time `json:"forked"`
	OnlineAt  time.Time `json:"onlineAt"`
}

func (w *Worker) info() *WorkerInfo {
	i := &WorkerInfo{
		ID:        w.ID,
		Serial:    w.serial,
		Pid:       w.Pid,
		Connected: w.Conn == Connected,
		Alive:     w.Life == Alive,
		Online:    !w.Online.IsZero(),
		Stopping:  w.stopping,
		Cause:     w.Cause.String(),
		Addresses: append([]Address{}, w.Addresses...),
		Forked:    w.Forked,
		OnlineAt:  w.Online,
	}
	if w.Exit != nil {
		e := *w.Exit
		i.Exit = &e
	}
	return i
}
