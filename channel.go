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
	"io"
	"sync"
)

// Channel is a bidirectional message pipe between the master and one
// worker.  Send may be called concurrently with Recv.
type Channel interface {
	Send(m *Message) error
	Recv() (*Message, error)
	Close() error
}

type streamChannel struct {
	rwc    io.ReadWriteCloser
	dec    *Decoder
	closed bool
	lock   sync.Mutex
}

// NewChannel wraps a stream (typically one end of a socket pair) as a
// Channel.
func NewChannel(rwc io.ReadWriteCloser) Channel {
	return &streamChannel{rwc: rwc, dec: NewDecoder(rwc)}
}

func (c *streamChannel) Send(m *Message) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return ErrNotConnected
	}
	return EncodeMessage(c.rwc, m)
}

// Recv is only ever called from a single reader goroutine.
func (c *streamChannel) Recv() (*Message, error) {
	m, err := c.dec.Decode()
	if err != nil {
		c.lock.Lock()
		closed := c.closed
		c.lock.Unlock()
		if closed {
			return nil, io.EOF
		}
	}
	return m, err
}

func (c *streamChannel) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rwc.Close()
}
