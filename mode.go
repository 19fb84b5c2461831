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

// ProcessMode is the role this process plays.  It is resolved exactly once,
// by Cluster.Start, and never changes afterwards.
type ProcessMode int

const (
	ModeDisabled ProcessMode = iota
	ModeMaster
	ModeWorker
)

func (m ProcessMode) String() string {
	switch m {
	case ModeMaster:
		return "master"
	case ModeWorker:
		return "worker"
	}
	return "disabled"
}

// Role is what the forking facility knows about the current process.
// Master is true for the process that was started by hand (or by init);
// processes started by the facility carry the WorkerID they were forked
// with.
type Role struct {
	Master   bool
	WorkerID int
}

// ResolveMode decides the process mode.  The rules are applied in order:
// no instances means disabled; daemon mode (or killing the daemon) means
// disabled, because the two are mutually exclusive; otherwise the role
// reported by the facility decides.
func ResolveMode(instances int, daemonized, killing bool, role Role) ProcessMode {
	if instances <= 0 {
		return ModeDisabled
	}
	if daemonized || killing {
		return ModeDisabled
	}
	if role.Master {
		return ModeMaster
	}
	return ModeWorker
}
