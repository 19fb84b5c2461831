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
	"os"
	"sync"
	"time"
)

// Supervisor runs in the master.  It forks the configured number of
// workers, tracks them through their lifecycle, re-forks any that die
// without being asked to, and drives the shutdown sequence.
//
// All state changes happen on a single event loop goroutine.  The lock
// exists so that the read-only accessors (and WatchSerial) can be used
// from elsewhere.
type Supervisor struct {
	forker    Forker
	logger    Logger
	cfg       *Config
	name      string
	instances int
	pool      *Pool
	nextID    int
	forks     int
	respawns  int
	retry     time.Duration
	started   bool

	serial     int64
	listSerial int64
	createTime time.Time
	updateTime time.Time

	posts chan func()
	quit  chan struct{}

	// shutdown state, see shutdown.go
	shutting bool
	finished bool
	stopOnce sync.Once
	drain    *time.Ticker
	report   *ShutdownReport
	done     chan struct{}

	mx  sync.Mutex
	cvs map[*sync.Cond]bool
}

// SupervisorInfo is a consistent snapshot of the supervisor.
type SupervisorInfo struct {
	Name         string    `json:"name"`
	Pid          int       `json:"pid"`
	ClusterID    string    `json:"cluster"`
	Instances    int       `json:"instances"`
	Workers      int       `json:"workers"`
	Online       int       `json:"online"`
	Forks        int       `json:"forks"`
	Respawns     int       `json:"respawns"`
	ShuttingDown bool      `json:"shuttingDown"`
	Serial       int64     `json:"serial,string"`
	CreateTime   time.Time `json:"created"`
	UpdateTime   time.Time `json:"updated"`
}

// NewSupervisor creates a supervisor for the given number of workers.
// Nothing is forked until Start is called.
func NewSupervisor(name string, forker Forker, logger Logger, cfg *Config, instances int) *Supervisor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	now := time.Now()
	return &Supervisor{
		forker:     forker,
		logger:     logger,
		cfg:        cfg,
		name:       name,
		instances:  instances,
		pool:       NewPool(),
		posts:      make(chan func()),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		createTime: now,
		updateTime: now,
		cvs:        make(map[*sync.Cond]bool),
	}
}

func (s *Supervisor) lock() {
	s.mx.Lock()
}

func (s *Supervisor) unlock() {
	s.mx.Unlock()
}

func (s *Supervisor) logf(sev Severity, format string, args ...interface{}) {
	s.logger.Log(Facility, sev, fmt.Sprintf(format, args...))
}

func (s *Supervisor) wakeUp() {
	// Lock must be held, or watchers may miss the new serial.
	for cv := range s.cvs {
		cv.Broadcast()
	}
}

// bumpSerial increments the serial and notifies watchers.  Call with
// lock held.
func (s *Supervisor) bumpSerial() int64 {
	s.updateTime = time.Now()
	s.serial++
	s.wakeUp()
	return s.serial
}

func (s *Supervisor) watchSerial(old int64, src *int64, expire time.Duration) int64 {
	expired := false
	cv := sync.NewCond(&s.mx)
	var timer *time.Timer
	var rv int64

	if expire > 0 {
		timer = time.AfterFunc(expire, func() {
			s.lock()
			expired = true
			cv.Broadcast()
			s.unlock()
		})
	} else {
		expired = true
	}

	s.lock()
	s.cvs[cv] = true
	for {
		rv = *src
		if rv != old || expired {
			break
		}
		cv.Wait()
	}
	delete(s.cvs, cv)
	s.unlock()
	if timer != nil {
		timer.Stop()
	}
	return rv
}

// WatchSerial waits up to expire for the serial number to move past old,
// and returns the current value.  Any worker state change bumps it.
func (s *Supervisor) WatchSerial(old int64, expire time.Duration) int64 {
	return s.watchSerial(old, &s.serial, expire)
}

// WatchWorkers is like WatchSerial, but only wakes when workers come or
// go.
func (s *Supervisor) WatchWorkers(old int64, expire time.Duration) int64 {
	return s.watchSerial(old, &s.listSerial, expire)
}

func (s *Supervisor) Serial() int64 {
	s.lock()
	defer s.unlock()
	return s.serial
}

func (s *Supervisor) Info() *SupervisorInfo {
	s.lock()
	defer s.unlock()
	i := &SupervisorInfo{
		Name:         s.name,
		Pid:          os.Getpid(),
		ClusterID:    s.forker.ClusterID(),
		Instances:    s.instances,
		Workers:      s.pool.Len(),
		Forks:        s.forks,
		Respawns:     s.respawns,
		ShuttingDown: s.shutting,
		Serial:       s.serial,
		CreateTime:   s.createTime,
		UpdateTime:   s.updateTime,
	}
	for _, w := range s.pool.Workers() {
		if !w.Online.IsZero() && w.Conn == Connected {
			i.Online++
		}
	}
	return i
}

// Workers returns snapshots of every live worker, ordered by id, along
// with the list serial.
func (s *Supervisor) Workers() ([]*WorkerInfo, int64) {
	s.lock()
	defer s.unlock()
	ws := s.pool.Workers()
	rv := make([]*WorkerInfo, 0, len(ws))
	for _, w := range ws {
		rv = append(rv, w.info())
	}
	return rv, s.listSerial
}

func (s *Supervisor) Worker(id int) (*WorkerInfo, error) {
	s.lock()
	defer s.unlock()
	w := s.pool.Get(id)
	if w == nil {
		return nil, ErrNoWorker
	}
	return w.info(), nil
}

// Start forks the initial workers and starts the event loop.  Workers
// whose fork fails are retried in the background.
func (s *Supervisor) Start() error {
	s.lock()
	if s.shutting {
		s.unlock()
		return ErrShuttingDown
	}
	if s.started {
		s.unlock()
		return ErrAlreadyActive
	}
	s.started = true
	s.logf(SevInfo, "starting %d workers", s.instances)
	for i := 0; i < s.instances; i++ {
		s.spawn()
	}
	s.unlock()
	go s.run()
	return nil
}

func (s *Supervisor) run() {
	defer close(s.quit)
	events := s.forker.Events()
	for {
		var tick <-chan time.Time
		if s.drain != nil {
			tick = s.drain.C
		}
		select {
		case ev := <-events:
			s.handle(ev)
		case fn := <-s.posts:
			fn()
		case <-tick:
			s.drainTick()
		}
		if s.finished {
			return
		}
	}
}

// post runs fn on the event loop.  It returns false if the loop has
// already finished.
func (s *Supervisor) post(fn func()) bool {
	select {
	case s.posts <- fn:
		return true
	case <-s.quit:
		return false
	}
}

// spawn forks one new worker and records it.  Call with lock held, from
// the event loop (or Start, before the loop runs).
func (s *Supervisor) spawn() *Worker {
	s.nextID++
	id := s.nextID
	child, err := s.forker.Fork(id)
	if err != nil {
		s.forkFailed(id, err)
		return nil
	}
	s.retry = 0
	w := &Worker{
		ID:     id,
		Pid:    child.Pid(),
		Conn:   Connected,
		Life:   Alive,
		Forked: time.Now(),
		child:  child,
	}
	s.pool.Add(w)
	s.dispatch(Event{Kind: EventFork, ID: id, Time: w.Forked})
	return w
}

func (s *Supervisor) forkFailed(id int, err error) {
	if s.retry == 0 {
		s.retry = s.cfg.ForkRetryMin
	} else {
		s.retry *= 2
	}
	if s.retry > s.cfg.ForkRetryMax {
		s.retry = s.cfg.ForkRetryMax
	}
	s.logf(SevError, "fork of worker %d failed: %v (retry in %v)", id, err, s.retry)
	time.AfterFunc(s.retry, func() {
		s.post(s.retryFork)
	})
}

func (s *Supervisor) retryFork() {
	s.lock()
	defer s.unlock()
	if s.shutting {
		return
	}
	s.spawn()
}

func (s *Supervisor) handle(ev Event) {
	s.lock()
	defer s.unlock()
	s.dispatch(ev)
}

// dispatch applies one lifecycle event to the pool.  Call with lock held.
func (s *Supervisor) dispatch(ev Event) {
	w := s.pool.Get(ev.ID)
	if w == nil {
		s.logf(SevDebug, "%s event for unknown worker %d", ev.Kind, ev.ID)
		return
	}
	switch ev.Kind {
	case EventFork:
		if w.serial != 0 {
			// already recorded; only spawn raises this once
			return
		}
		s.forks++
		s.listSerial = s.bumpSerial()
		w.serial = s.serial
		s.logf(SevDebug, "forked worker %d (pid %d)", w.ID, w.Pid)
		return
	case EventOnline:
		w.Online = ev.Time
		s.logf(SevTrace, "worker %d (pid %d) is online", w.ID, w.Pid)
	case EventListening:
		if ev.Address != nil {
			w.Addresses = append(w.Addresses, *ev.Address)
			s.logf(SevTrace, "worker %d listening on %s", w.ID, ev.Address)
		}
	case EventDisconnect:
		if w.Conn == Disconnected {
			return
		}
		w.Conn = Disconnected
		s.logf(SevTrace, "worker %d disconnected", w.ID)
	case EventExit:
		s.exited(w, ev.Exit)
		return
	default:
		return
	}
	w.serial = s.bumpSerial()
}

func (s *Supervisor) exited(w *Worker, exit *ExitInfo) {
	w.Life = Dead
	w.Conn = Disconnected
	w.Exit = exit
	if w.stopping {
		w.Cause = CauseVoluntary
	} else {
		w.Cause = CauseCrashed
	}
	s.pool.Remove(w.ID)
	s.listSerial = s.bumpSerial()

	switch {
	case w.Cause == CauseVoluntary:
		s.logf(SevTrace, "worker %d (pid %d) exited: %s", w.ID, w.Pid, exit)
	case s.shutting:
		s.logf(SevInfo, "worker %d (pid %d) died (%s) during shutdown, not re-forking",
			w.ID, w.Pid, exit)
	default:
		s.logf(SevInfo, "worker %d (pid %d) died (%s), re-forking", w.ID, w.Pid, exit)
		s.respawns++
		if nw := s.spawn(); nw != nil {
			s.logf(SevInfo, "worker %d replaced by worker %d (pid %d)", w.ID, nw.ID, nw.Pid)
		}
	}

	if s.shutting && s.pool.Len() == 0 {
		s.finish()
	}
}

// Restart replaces a worker: a new worker is forked, and the old one is
// asked to shut down.  The old worker's exit is voluntary.
func (s *Supervisor) Restart(id int) error {
	s.lock()
	started := s.started
	s.unlock()
	if !started {
		return ErrNoWorker
	}
	errc := make(chan error, 1)
	if !s.post(func() { errc <- s.restart(id) }) {
		return ErrShuttingDown
	}
	return <-errc
}

func (s *Supervisor) restart(id int) error {
	s.lock()
	defer s.unlock()
	if s.shutting {
		return ErrShuttingDown
	}
	w := s.pool.Get(id)
	if w == nil {
		return ErrNoWorker
	}
	if w.stopping {
		return nil
	}
	s.logf(SevInfo, "restarting worker %d (pid %d)", w.ID, w.Pid)
	s.retire(w)
	if w.Conn == Disconnected {
		s.signal(w, s.cfg.drainSignal())
	}
	w.serial = s.bumpSerial()
	s.spawn()
	return nil
}

// retire marks w as stopping, sends it the shutdown directive and closes
// the channel.  Call with lock held.
func (s *Supervisor) retire(w *Worker) {
	w.stopping = true
	if w.Conn != Connected {
		return
	}
	if err := w.child.Send(&Message{Type: MsgShutdown}); err != nil {
		s.logf(SevDebug, "shutdown directive to worker %d: %v", w.ID, err)
	}
	if err := w.child.Disconnect(); err != nil {
		s.logf(SevDebug, "disconnect worker %d: %v", w.ID, err)
	}
}

func (s *Supervisor) signal(w *Worker, sig os.Signal) bool {
	w.stopping = true
	if err := w.child.Signal(sig); err != nil {
		s.logf(SevDebug, "signal %v to worker %d: %v", sig, w.ID, err)
		return false
	}
	return true
}
