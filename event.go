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
	"time"
)

// EventKind identifies a worker lifecycle notification.
type EventKind int

const (
	EventFork       EventKind = iota // worker process requested
	EventOnline                      // worker confirmed running
	EventListening                   // worker bound a network endpoint
	EventDisconnect                  // IPC channel closed
	EventExit                        // worker process reaped
)

func (k EventKind) String() string {
	switch k {
	case EventFork:
		return "fork"
	case EventOnline:
		return "online"
	case EventListening:
		return "listening"
	case EventDisconnect:
		return "disconnect"
	case EventExit:
		return "exit"
	}
	return "unknown"
}

// Event is published by the forking facility (fork events are raised by
// the supervisor itself).  Address is set for listening events, Exit for
// exit events.
type Event struct {
	Kind    EventKind
	ID      int
	Time    time.Time
	Address *Address
	Exit    *ExitInfo
}
