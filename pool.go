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
	"sort"
)

// Pool maps worker ids to their records.  It has no locking of its own;
// the supervisor mutates it only from its event loop.
type Pool struct {
	workers map[int]*Worker
}

func NewPool() *Pool {
	return &Pool{workers: make(map[int]*Worker)}
}

func (p *Pool) Add(w *Worker) {
	p.workers[w.ID] = w
}

func (p *Pool) Get(id int) *Worker {
	return p.workers[id]
}

// Remove deletes a record.  Only dead workers may be removed; it returns
// false if the worker is unknown or still alive.
func (p *Pool) Remove(id int) bool {
	w, ok := p.workers[id]
	if !ok || w.Life != Dead {
		return false
	}
	delete(p.workers, id)
	return true
}

func (p *Pool) Len() int {
	return len(p.workers)
}

// Workers returns the records ordered by id.
func (p *Pool) Workers() []*Worker {
	rv := make([]*Worker, 0, len(p.workers))
	for _, w := range p.workers {
		rv = append(rv, w)
	}
	sort.Slice(rv, func(i, j int) bool { return rv[i].ID < rv[j].ID })
	return rv
}

// IDs returns the known worker ids in ascending order.
func (p *Pool) IDs() []int {
	rv := make([]int, 0, len(p.workers))
	for id := range p.workers {
		rv = append(rv, id)
	}
	sort.Ints(rv)
	return rv
}
