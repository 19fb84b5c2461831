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
	"os"
	"syscall"
	"time"
)

// ShutdownReport describes a completed shutdown.
type ShutdownReport struct {
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Workers  int       `json:"workers"` // live workers when shutdown began
	Signals  int       `json:"signals"` // termination signals delivered
	Killed   bool      `json:"killed"`  // escalated to SIGKILL

	// Remaining lists workers still alive when the drain deadline
	// passed.  It is empty when every worker was reaped.
	Remaining []int `json:"remaining,omitempty"`
}

// Clean reports whether every worker was reaped.
func (r *ShutdownReport) Clean() bool {
	return len(r.Remaining) == 0
}

func (r *ShutdownReport) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

func (c *Config) drainSignal() os.Signal {
	return syscall.SIGTERM
}

// Stop shuts the cluster down.  Connected workers are sent the shutdown
// directive and disconnected; then, every drain interval, any worker still
// alive is sent a termination signal.  Stop returns once every worker has
// been reaped (or the configured maximum drain time has passed, in which
// case the report lists the stragglers).
//
// Stop may be called any number of times, from any goroutine; every caller
// observes the same shutdown.  The context only bounds how long this
// caller waits; the shutdown itself carries on regardless.
func (s *Supervisor) Stop(ctx context.Context) (*ShutdownReport, error) {
	s.stopOnce.Do(func() {
		s.lock()
		started := s.started
		if !started {
			s.shutting = true
			s.report = &ShutdownReport{Started: time.Now()}
			s.finish()
		}
		s.unlock()
		if started {
			s.post(s.beginShutdown)
		}
	})
	select {
	case <-s.done:
		return s.report, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed when shutdown has completed.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

func (s *Supervisor) beginShutdown() {
	s.lock()
	defer s.unlock()

	s.shutting = true
	s.report = &ShutdownReport{
		Started: time.Now(),
		Workers: s.pool.Len(),
	}
	s.bumpSerial()
	s.logf(SevInfo, "shutting down %d workers", s.report.Workers)

	for _, w := range s.pool.Workers() {
		s.retire(w)
	}
	if s.pool.Len() == 0 {
		s.finish()
		return
	}
	s.drain = time.NewTicker(s.cfg.DrainInterval)
}

func (s *Supervisor) drainTick() {
	s.lock()
	defer s.unlock()

	if s.finished {
		return
	}
	if s.pool.Len() == 0 {
		s.finish()
		return
	}
	elapsed := time.Since(s.report.Started)
	if s.cfg.MaxDrain > 0 && elapsed >= s.cfg.MaxDrain {
		s.report.Remaining = s.pool.IDs()
		s.logf(SevWarn, "gave up waiting for %d workers after %v",
			len(s.report.Remaining), elapsed.Round(time.Millisecond))
		s.finish()
		return
	}

	sig := s.cfg.drainSignal()
	if s.cfg.KillAfter > 0 && elapsed >= s.cfg.KillAfter {
		sig = syscall.SIGKILL
		s.report.Killed = true
	}
	for _, w := range s.pool.Workers() {
		if w.Life == Dead {
			continue
		}
		if s.signal(w, sig) {
			s.report.Signals++
		}
	}
}

// finish completes the shutdown.  Call with lock held.
func (s *Supervisor) finish() {
	if s.finished {
		return
	}
	s.finished = true
	if s.drain != nil {
		s.drain.Stop()
		s.drain = nil
	}
	s.report.Finished = time.Now()
	if s.report.Clean() {
		s.logf(SevInfo, "shutdown complete in %v", s.report.Duration().Round(time.Millisecond))
	}
	s.bumpSerial()
	close(s.done)
}
