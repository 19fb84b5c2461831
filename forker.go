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
	"os"
)

// Forker is the process-forking facility the cluster is built upon.
// Applications normally use the ExecForker; tests substitute their own.
// The supervisor promises to call Fork only from its event loop, so
// implementations need not guard it against concurrent use.
type Forker interface {
	// Role reports whether the calling process is the master or a
	// worker, and in the latter case the worker id assigned at fork.
	Role() Role

	// ClusterID returns the identifier shared by the master and every
	// worker it forked.
	ClusterID() string

	// Fork creates a worker with the given id.  It returns once the
	// process has been started; online and other lifecycle events
	// arrive later on the Events channel.
	Fork(id int) (Child, error)

	// Events delivers online, listening, disconnect and exit events for
	// every child forked.  The channel is never closed.
	Events() <-chan Event

	// Parent opens the channel to the master.  It is only meaningful
	// in a worker; in the master it returns ErrNoChannel.
	Parent() (Channel, error)
}

// Child is the master's handle on one forked worker.
type Child interface {
	Pid() int

	// Send delivers a message to the worker.  It fails with
	// ErrNotConnected once the channel is gone.
	Send(m *Message) error

	// Disconnect closes the channel.  The worker sees end-of-file, and
	// a disconnect event follows.
	Disconnect() error

	// Signal delivers an operating system signal to the worker.
	Signal(sig os.Signal) error
}
