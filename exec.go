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
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

const (
	// EnvWorkerID carries the worker id into a forked process.  Its
	// presence is what makes a process a worker.
	EnvWorkerID = "GOCLUSTER_WORKER_ID"

	// EnvClusterID carries the master's cluster id.
	EnvClusterID = "GOCLUSTER_ID"

	// channelFd is where the worker finds its end of the socket pair
	// (the first of exec.Cmd.ExtraFiles).
	channelFd = 3

	readerGrace = time.Second
)

// ExecForker forks workers by re-executing the running program with the
// same arguments.  Each worker inherits one end of a Unix socket pair as
// file descriptor 3, which carries the IPC channel.
type ExecForker struct {
	// Path is the program to run, and Args its argv (including argv[0]).
	// They default to the current executable and os.Args.
	Path string
	Args []string

	// Env is added to the inherited environment of each worker.
	Env []string

	// Logger, if set, receives the worker's stdout and stderr a line
	// at a time.  Otherwise workers share our stdout and stderr.
	Logger *log.Logger

	id     string
	events chan Event
	once   sync.Once
}

// NewExecForker returns a forker for the running program.  In a worker
// the cluster id is taken from the environment, in the master a new one
// is generated.
func NewExecForker() *ExecForker {
	f := &ExecForker{}
	f.init()
	return f
}

func (f *ExecForker) init() {
	f.once.Do(func() {
		f.events = make(chan Event, 1024)
		if id := os.Getenv(EnvClusterID); id != "" {
			f.id = id
		} else {
			f.id = uuid.NewString()
		}
	})
}

func (f *ExecForker) ClusterID() string {
	f.init()
	return f.id
}

func (f *ExecForker) Events() <-chan Event {
	f.init()
	return f.events
}

func (f *ExecForker) Role() Role {
	s := os.Getenv(EnvWorkerID)
	if s == "" {
		return Role{Master: true}
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		// Garbage in the environment; behave as a master rather
		// than as a worker nobody is listening to.
		return Role{Master: true}
	}
	return Role{WorkerID: id}
}

func (f *ExecForker) Parent() (Channel, error) {
	f.init()
	if f.Role().Master {
		return nil, ErrNoChannel
	}
	if _, err := uuid.Parse(f.id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrClusterID, f.id)
	}
	file := os.NewFile(channelFd, "gocluster-master")
	if file == nil {
		return nil, ErrNoChannel
	}
	conn, err := net.FileConn(file)
	file.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoChannel, err)
	}
	return NewChannel(conn), nil
}

func socketPair() (*os.File, *os.File, error) {
	syscall.ForkLock.RLock()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err == nil {
		unix.CloseOnExec(fds[0])
		unix.CloseOnExec(fds[1])
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		return nil, nil, os.NewSyscallError("socketpair", err)
	}
	return os.NewFile(uintptr(fds[0]), "gocluster-worker"),
		os.NewFile(uintptr(fds[1]), "gocluster-master"), nil
}

func (f *ExecForker) command(id int) (*exec.Cmd, error) {
	path := f.Path
	if path == "" {
		var err error
		if path, err = os.Executable(); err != nil {
			return nil, err
		}
	}
	args := f.Args
	if len(args) == 0 {
		args = os.Args
	}
	env := make([]string, 0, len(os.Environ())+len(f.Env)+2)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, EnvWorkerID+"=") ||
			strings.HasPrefix(kv, EnvClusterID+"=") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, f.Env...)
	env = append(env,
		EnvWorkerID+"="+strconv.Itoa(id),
		EnvClusterID+"="+f.id)

	cmd := &exec.Cmd{
		Path: path,
		Args: append([]string{}, args...),
		Env:  env,
	}
	return cmd, nil
}

func (f *ExecForker) Fork(id int) (Child, error) {
	f.init()
	cmd, err := f.command(id)
	if err != nil {
		return nil, fmt.Errorf("fork worker %d: %w", id, err)
	}
	ours, theirs, err := socketPair()
	if err != nil {
		return nil, fmt.Errorf("fork worker %d: %w", id, err)
	}
	conn, err := net.FileConn(ours)
	ours.Close()
	if err != nil {
		theirs.Close()
		return nil, fmt.Errorf("fork worker %d: %w", id, err)
	}
	cmd.ExtraFiles = []*os.File{theirs}

	c := &execChild{
		id:       id,
		f:        f,
		cmd:      cmd,
		ch:       NewChannel(conn),
		readDone: make(chan struct{}),
	}
	var outs []io.ReadCloser
	if f.Logger != nil {
		if r, e := cmd.StdoutPipe(); e == nil {
			outs = append(outs, r)
		}
		if r, e := cmd.StderrPipe(); e == nil {
			outs = append(outs, r)
		}
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	err = cmd.Start()
	theirs.Close()
	if err != nil {
		c.ch.Close()
		return nil, fmt.Errorf("fork worker %d: %w", id, err)
	}
	for _, r := range outs {
		c.outs.Add(1)
		go c.relay(r)
	}
	go c.read()
	go c.wait()
	return c, nil
}

func (f *ExecForker) emit(ev Event) {
	ev.Time = time.Now()
	f.events <- ev
}

type execChild struct {
	id       int
	f        *ExecForker
	cmd      *exec.Cmd
	ch       Channel
	readDone chan struct{}
	outs     sync.WaitGroup
}

func (c *execChild) Pid() int {
	return c.cmd.Process.Pid
}

func (c *execChild) Send(m *Message) error {
	return c.ch.Send(m)
}

func (c *execChild) Disconnect() error {
	return c.ch.Close()
}

func (c *execChild) Signal(sig os.Signal) error {
	return c.cmd.Process.Signal(sig)
}

func (c *execChild) relay(r io.ReadCloser) {
	defer c.outs.Done()
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if len(line) != 0 {
			c.f.Logger.Print(strings.TrimRight(line, "\n"))
		}
		if err != nil {
			return
		}
	}
}

func (c *execChild) read() {
	defer close(c.readDone)
	for {
		m, err := c.ch.Recv()
		if errors.Is(err, ErrBadMessage) {
			if c.f.Logger != nil {
				c.f.Logger.Printf("worker %d: %v", c.id, err)
			}
			continue
		}
		if err != nil {
			break
		}
		switch m.Type {
		case MsgOnline:
			if m.Cluster != c.f.id {
				// Not one of ours; refuse to talk to it.
				c.ch.Close()
				continue
			}
			c.f.emit(Event{Kind: EventOnline, ID: c.id})
		case MsgListening:
			c.f.emit(Event{Kind: EventListening, ID: c.id, Address: m.Address})
		}
	}
	c.ch.Close()
	c.f.emit(Event{Kind: EventDisconnect, ID: c.id})
}

func (c *execChild) wait() {
	// Output pipes must be drained before Wait closes them.
	c.outs.Wait()
	c.cmd.Wait()

	// A grandchild may have inherited the socket; don't let it hold
	// the disconnect (and thus the exit) hostage.
	select {
	case <-c.readDone:
	case <-time.After(readerGrace):
		c.ch.Close()
		<-c.readDone
	}
	c.f.emit(Event{Kind: EventExit, ID: c.id, Exit: exitInfo(c.cmd.ProcessState)})
}

func exitInfo(ps *os.ProcessState) *ExitInfo {
	if ps == nil {
		return &ExitInfo{Code: -1}
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return &ExitInfo{Code: -1, Signal: unix.SignalName(ws.Signal())}
	}
	return &ExitInfo{Code: ps.ExitCode()}
}
