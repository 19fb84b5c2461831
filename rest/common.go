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

// Package rest holds the client side of the cluster status API, and the
// definitions shared with the server.
package rest

import (
	"github.com/gdamore/gocluster"
)

const (
	MimeJson = "application/json; charset=UTF-8"

	// A GET carrying PollEtagHeader waits (for up to PollTimeHeader
	// seconds) until the resource no longer matches the tag.
	PollEtagHeader = "X-Cluster-Poll-Etag"
	PollTimeHeader = "X-Cluster-Poll-Time"

	// MaxPollTime caps the wait, in seconds.
	MaxPollTime = 300
)

// Info describes the master.
type Info struct {
	cluster.SupervisorInfo
	etag string
}

// WorkerInfo describes one worker.
type WorkerInfo struct {
	cluster.WorkerInfo
	etag string
}

type LogRecord = cluster.LogRecord

type LogInfo struct {
	etag    string
	Records []LogRecord
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}
