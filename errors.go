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
)

var (
	ErrNotMaster     = errors.New("Not the cluster master")
	ErrNoWorker      = errors.New("No such worker")
	ErrShuttingDown  = errors.New("Cluster is shutting down")
	ErrNotConnected  = errors.New("Worker channel not connected")
	ErrNoChannel     = errors.New("No parent channel")
	ErrBadMessage    = errors.New("Bad cluster message")
	ErrBadConfig     = errors.New("Bad cluster configuration")
	ErrClusterID     = errors.New("Cluster id mismatch")
	ErrAlreadyActive = errors.New("Cluster already started")
)
