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

// Package util is used for internal implementation bits in the CLI/UI.
package util

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gdamore/gocluster/rest"
)

// Status summarizes a worker in one word.
func Status(w *rest.WorkerInfo) string {
	switch {
	case !w.Alive:
		return "dead"
	case w.Stopping:
		return "stopping"
	case !w.Connected:
		return "detached"
	case !w.Online:
		return "starting"
	}
	return "online"
}

// Healthy is true for workers that are online and not going away.
func Healthy(w *rest.WorkerInfo) bool {
	return Status(w) == "online"
}

func FormatDuration(d time.Duration) string {

	sec := int((d % time.Minute) / time.Second)
	min := int((d % time.Hour) / time.Minute)
	hour := int(d / time.Hour)

	return fmt.Sprintf("%d:%02d:%02d", hour, min, sec)
}

// Uptime is how long the worker has been running.
func Uptime(w *rest.WorkerInfo) time.Duration {
	d := time.Since(w.Forked)
	return d - d%time.Second
}

// Addresses lists the endpoints a worker listens on.
func Addresses(w *rest.WorkerInfo) string {
	if len(w.Addresses) == 0 {
		return "-"
	}
	l := make([]string, 0, len(w.Addresses))
	for _, a := range w.Addresses {
		if a.Port < 0 {
			l = append(l, a.Address)
		} else {
			l = append(l, fmt.Sprintf("%s:%d", a.Address, a.Port))
		}
	}
	return strings.Join(l, ",")
}

type sorted []*rest.WorkerInfo

func (s sorted) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s sorted) Len() int {
	return len(s)
}

func (s sorted) Less(i, j int) bool {
	a := s[i]
	b := s[j]

	// unhealthy workers go to the front, otherwise by id
	if Healthy(a) != Healthy(b) {
		return !Healthy(a)
	}
	return a.ID < b.ID
}

func SortWorkers(items []*rest.WorkerInfo) {
	sort.Sort(sorted(items))
}
