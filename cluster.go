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
	"fmt"
	"sync"
)

// Facility is the log facility used for everything this package logs.
const Facility = "cluster"

// Cluster is the application's handle on clustering.  Create it before
// options are parsed (it registers the "cluster" option), then call Start.
type Cluster struct {
	host      Host
	forker    Forker
	cfg       *Config
	name      string
	instances *int
	mode      ProcessMode
	role      Role
	sup       *Supervisor
	agent     *Agent
	started   bool
	mx        sync.Mutex
}

// New creates a cluster for the host.  The default worker count comes
// from cfg, and may be overridden with the "cluster" option.
func New(host Host, forker Forker, cfg *Config) *Cluster {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	name := "cluster"
	if n, ok := host.(interface{ Name() string }); ok {
		name = n.Name()
	}
	c := &Cluster{
		host:   host,
		forker: forker,
		cfg:    cfg,
		name:   name,
	}
	c.instances = host.IntOption("cluster", cfg.Instances,
		"number of worker processes (0 disables clustering)")
	return c
}

// SetConfig replaces the configuration given to New.  It must be called
// before Start.
func (c *Cluster) SetConfig(cfg *Config) error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.started {
		return ErrAlreadyActive
	}
	c.cfg = cfg
	return nil
}

// Start resolves the process mode and brings the cluster up: in the
// master the workers are forked, in a worker the master is told we are
// online.  When clustering is disabled (no instances, or running as a
// daemon) Start only publishes the mode.
func (c *Cluster) Start() error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.started {
		return ErrAlreadyActive
	}
	c.started = true

	c.role = c.forker.Role()
	c.mode = ResolveMode(*c.instances, c.host.Daemonized(), c.host.KillingDaemon(), c.role)
	c.host.Publish(PropMode, c.mode)
	if c.mode == ModeDisabled {
		return nil
	}
	c.host.Publish(PropWorkerID, c.role.WorkerID)
	c.host.Publish(PropCluster, c)
	c.host.AddLogFilter(LogDecorator(c.mode, c.role.WorkerID))
	c.host.AddTitleFilter(TitleDecorator(c.mode, c.role.WorkerID))

	switch c.mode {
	case ModeMaster:
		c.sup = NewSupervisor(c.name, c.forker, c.host, c.cfg, *c.instances)
		return c.sup.Start()
	case ModeWorker:
		ch, err := c.forker.Parent()
		if err != nil {
			return fmt.Errorf("worker %d: %w", c.role.WorkerID, err)
		}
		c.agent = newAgent(c.host, ch, c.role.WorkerID, c.forker.ClusterID())
		return c.agent.Start()
	}
	return nil
}

func (c *Cluster) Mode() ProcessMode {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.mode
}

// WorkerID is the id of this worker, or zero outside of a worker.
func (c *Cluster) WorkerID() int {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.role.WorkerID
}

// Supervisor returns the supervisor, which only exists in the master.
func (c *Cluster) Supervisor() *Supervisor {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.sup
}

// Stop shuts the workers down; see Supervisor.Stop.  Outside the master
// it does nothing and reports an empty shutdown.
func (c *Cluster) Stop(ctx context.Context) (*ShutdownReport, error) {
	c.mx.Lock()
	sup := c.sup
	c.mx.Unlock()
	if sup == nil {
		return &ShutdownReport{}, nil
	}
	return sup.Stop(ctx)
}
