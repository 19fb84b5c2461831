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
	"errors"
	"io"
	"net"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMessageCodec(t *testing.T) {
	Convey("Encoding", t, func() {
		var b bytes.Buffer
		So(EncodeMessage(&b, &Message{Type: MsgShutdown}), ShouldBeNil)
		So(b.String(), ShouldEqual, `{"type":"shutdown"}`+"\n")

		b.Reset()
		err := EncodeMessage(&b, &Message{Type: "reload"})
		So(errors.Is(err, ErrBadMessage), ShouldBeTrue)
		So(b.Len(), ShouldEqual, 0)

		err = EncodeMessage(&b, &Message{Type: MsgListening})
		So(errors.Is(err, ErrBadMessage), ShouldBeTrue)
	})

	Convey("Decoding a stream", t, func() {
		in := strings.Join([]string{
			`{"type":"online","cluster":"abc"}`,
			`{"type":"bogus"}`,
			`{"type":"listening","address":{"address":"::","port":80,"family":"IPv6"}}`,
		}, "\n")
		d := NewDecoder(strings.NewReader(in))

		m, err := d.Decode()
		So(err, ShouldBeNil)
		So(m.Type, ShouldEqual, MsgOnline)
		So(m.Cluster, ShouldEqual, "abc")

		_, err = d.Decode()
		So(errors.Is(err, ErrBadMessage), ShouldBeTrue)

		m, err = d.Decode()
		So(err, ShouldBeNil)
		So(m.Address.Port, ShouldEqual, 80)
		So(m.Address.Family, ShouldEqual, "IPv6")

		_, err = d.Decode()
		So(err, ShouldEqual, io.EOF)
	})

	Convey("Online without a cluster id is rejected", t, func() {
		d := NewDecoder(strings.NewReader(`{"type":"online"}`))
		_, err := d.Decode()
		So(errors.Is(err, ErrBadMessage), ShouldBeTrue)
	})
}

func TestChannel(t *testing.T) {
	Convey("Given a connected pair of channels", t, func() {
		a, b := net.Pipe()
		ca, cb := NewChannel(a), NewChannel(b)
		defer ca.Close()
		defer cb.Close()

		Convey("Messages pass in both directions", func() {
			go ca.Send(&Message{Type: MsgShutdown})
			m, err := cb.Recv()
			So(err, ShouldBeNil)
			So(m.Type, ShouldEqual, MsgShutdown)

			go cb.Send(&Message{Type: MsgOnline, Cluster: "x"})
			m, err = ca.Recv()
			So(err, ShouldBeNil)
			So(m.Cluster, ShouldEqual, "x")
		})

		Convey("Closing ends the peer's stream", func() {
			So(ca.Close(), ShouldBeNil)
			So(ca.Close(), ShouldBeNil)
			_, err := cb.Recv()
			So(err, ShouldEqual, io.EOF)
			So(ca.Send(&Message{Type: MsgShutdown}), ShouldEqual, ErrNotConnected)
		})

		Convey("Receiving on a closed channel is end of file", func() {
			errc := make(chan error, 1)
			go func() {
				_, err := ca.Recv()
				errc <- err
			}()
			So(ca.Close(), ShouldBeNil)
			So(<-errc, ShouldEqual, io.EOF)
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool", t, func() {
		p := NewPool()
		p.Add(&Worker{ID: 3})
		p.Add(&Worker{ID: 1})
		p.Add(&Worker{ID: 2})

		Convey("Workers are ordered by id", func() {
			So(p.Len(), ShouldEqual, 3)
			So(p.IDs(), ShouldResemble, []int{1, 2, 3})
			ws := p.Workers()
			So(ws[0].ID, ShouldEqual, 1)
			So(ws[2].ID, ShouldEqual, 3)
		})
		Convey("Live workers cannot be removed", func() {
			So(p.Remove(2), ShouldBeFalse)
			So(p.Get(2), ShouldNotBeNil)
			p.Get(2).Life = Dead
			So(p.Remove(2), ShouldBeTrue)
			So(p.Get(2), ShouldBeNil)
			So(p.Remove(2), ShouldBeFalse)
		})
	})

	Convey("Worker snapshots are copies", t, func() {
		w := &Worker{ID: 1, Pid: 9, Addresses: []Address{{Address: "::", Port: 1}}}
		w.Exit = &ExitInfo{Code: -1, Signal: "SIGKILL"}
		i := w.info()
		i.Addresses[0].Port = 2
		i.Exit.Code = 5
		So(w.Addresses[0].Port, ShouldEqual, 1)
		So(w.Exit.Code, ShouldEqual, -1)
		So(i.Connected, ShouldBeTrue)
		So(i.Online, ShouldBeFalse)
		So(w.Exit.String(), ShouldEqual, "signal SIGKILL")
	})
}
