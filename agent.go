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
	"io"
	"sync"
)

// Agent runs in a worker.  It announces the worker to the master, and
// turns the master's shutdown directive (or the loss of the master) into
// a graceful shutdown of the host application.
type Agent struct {
	host      Host
	ch        Channel
	id        int
	clusterID string
	once      sync.Once
	done      chan struct{}
}

func newAgent(host Host, ch Channel, id int, clusterID string) *Agent {
	return &Agent{
		host:      host,
		ch:        ch,
		id:        id,
		clusterID: clusterID,
		done:      make(chan struct{}),
	}
}

func (a *Agent) logf(sev Severity, format string, args ...interface{}) {
	a.host.Log(Facility, sev, fmt.Sprintf(format, args...))
}

// Start announces the worker and begins listening for directives.
func (a *Agent) Start() error {
	if err := a.ch.Send(&Message{Type: MsgOnline, Cluster: a.clusterID}); err != nil {
		return fmt.Errorf("announce worker %d: %w", a.id, err)
	}
	go a.run()
	return nil
}

// run reads directives until the channel ends.  Messages the decoder
// rejects are dropped with a warning; valid ones other than the shutdown
// directive are only logged.
func (a *Agent) run() {
	defer close(a.done)
	for {
		m, err := a.ch.Recv()
		if errors.Is(err, ErrBadMessage) {
			a.logf(SevWarn, "discarding message from master: %v", err)
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				a.logf(SevDebug, "master channel: %v", err)
			}
			a.ch.Close()
			a.shutdown("lost connection to master, shutting down")
			return
		}
		switch m.Type {
		case MsgShutdown:
			a.shutdown("received shutdown directive")
		default:
			a.logf(SevDebug, "ignoring %s message", m.Type)
		}
	}
}

func (a *Agent) shutdown(why string) {
	a.once.Do(func() {
		a.logf(SevInfo, "%s", why)
		a.host.Shutdown()
	})
}

// Send delivers a message to the master.
func (a *Agent) Send(m *Message) error {
	return a.ch.Send(m)
}

// Done is closed once the channel to the master is gone.
func (a *Agent) Done() <-chan struct{} {
	return a.done
}
