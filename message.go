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
	"encoding/json"
	"fmt"
	"io"
)

// MessageType names a message on the master/worker channel.  Shutdown is
// the only application message; online and listening are sent by the
// worker side of the facility and turned into lifecycle events.
type MessageType string

const (
	MsgShutdown  MessageType = "shutdown"
	MsgOnline    MessageType = "online"
	MsgListening MessageType = "listening"
)

// Message is the envelope carried on the channel, one JSON object per
// line.
type Message struct {
	Type    MessageType `json:"type"`
	Cluster string      `json:"cluster,omitempty"` // online only
	Address *Address    `json:"address,omitempty"` // listening only
}

// Validate checks that the message is one we understand.
func (m *Message) Validate() error {
	switch m.Type {
	case MsgShutdown:
		return nil
	case MsgOnline:
		if m.Cluster == "" {
			return fmt.Errorf("%w: online without cluster id", ErrBadMessage)
		}
		return nil
	case MsgListening:
		if m.Address == nil {
			return fmt.Errorf("%w: listening without address", ErrBadMessage)
		}
		return nil
	case "":
		return fmt.Errorf("%w: missing type", ErrBadMessage)
	}
	return fmt.Errorf("%w: unknown type %q", ErrBadMessage, m.Type)
}

// EncodeMessage validates m and writes it to w as a single line.
func EncodeMessage(w io.Writer, m *Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := json.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("encode %s message: %w", m.Type, err)
	}
	return nil
}

// Decoder reads messages from a stream.
type Decoder struct {
	dec *json.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return &Decoder{dec: dec}
}

// Decode returns the next message.  A message that parses but fails
// validation yields an error wrapping ErrBadMessage, and the stream
// remains usable.  Any other error (including io.EOF) means the stream is
// finished.
func (d *Decoder) Decode() (*Message, error) {
	m := &Message{}
	if err := d.dec.Decode(m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
