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
	"context"
	"net"
	"strings"
	"syscall"

	"golang.org/x/net/netutil"
	"golang.org/x/sys/unix"
)

func reusePort(network, address string, rc syscall.RawConn) error {
	if !strings.HasPrefix(network, "tcp") && !strings.HasPrefix(network, "udp") {
		return nil
	}
	var serr error
	err := rc.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	return serr
}

func addressOf(a net.Addr) *Address {
	switch a := a.(type) {
	case *net.TCPAddr:
		family := "IPv6"
		if a.IP.To4() != nil {
			family = "IPv4"
		}
		return &Address{Address: a.IP.String(), Port: a.Port, Family: family}
	case *net.UnixAddr:
		return &Address{Address: a.Name, Port: -1, Family: "unix"}
	}
	return &Address{Address: a.String(), Port: -1, Family: a.Network()}
}

// Listen opens a listener that every worker can share: SO_REUSEPORT is
// set, so each worker binds the same address and the kernel spreads
// connections among them.  In a worker the master is told about the new
// endpoint.  If max_conns is configured the listener accepts at most that
// many simultaneous connections.
func (c *Cluster) Listen(network, address string) (net.Listener, error) {
	lc := net.ListenConfig{Control: reusePort}
	l, err := lc.Listen(context.Background(), network, address)
	if err != nil {
		return nil, err
	}
	if c.cfg.MaxConns > 0 {
		l = netutil.LimitListener(l, c.cfg.MaxConns)
	}

	c.mx.Lock()
	agent := c.agent
	c.mx.Unlock()
	if agent != nil {
		addr := addressOf(l.Addr())
		if err := agent.Send(&Message{Type: MsgListening, Address: addr}); err != nil {
			c.host.Log(Facility, SevWarn, "report listener to master: "+err.Error())
		}
	}
	return l, nil
}
