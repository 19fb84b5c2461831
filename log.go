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
	"strings"
	"sync"
	"time"
)

const (
	MaxLogRecords = 1000
)

// LogRecord is one line held in a LogBuffer.
type LogRecord struct {
	Id       int64     `json:"id,string"`
	Time     time.Time `json:"time"`
	Severity string    `json:"severity"`
	Facility string    `json:"facility"`
	Text     string    `json:"text"`
}

// LogBuffer keeps the most recent log records in memory, so that they
// can be served to status clients.  Readers use the last record id as an
// Etag, and can wait for new records with Watch.
type LogBuffer struct {
	records    []LogRecord
	numRecords int
	maxRecords int
	id         int64
	cvs        map[*sync.Cond]bool
	mx         sync.Mutex
}

// NewLogBuffer returns a buffer holding up to max records (MaxLogRecords
// if max is not positive).
func NewLogBuffer(max int) *LogBuffer {
	if max <= 0 {
		max = MaxLogRecords
	}
	return &LogBuffer{
		records:    make([]LogRecord, max),
		maxRecords: max,
		// Ids of separate buffers (or of one buffer across a Clear)
		// should not collide.
		id:  time.Now().UnixNano(),
		cvs: make(map[*sync.Cond]bool),
	}
}

func (lb *LogBuffer) lock() {
	lb.mx.Lock()
}

func (lb *LogBuffer) unlock() {
	lb.mx.Unlock()
}

func (lb *LogBuffer) append(sev Severity, facility string, text string) {
	idx := lb.numRecords % lb.maxRecords
	lb.id++
	lb.records[idx] = LogRecord{
		Id:       lb.id,
		Time:     time.Now(),
		Severity: sev.String(),
		Facility: facility,
		Text:     text,
	}
	// numRecords runs past maxRecords once we wrap; it is the
	// index of the next slot, modulo maxRecords.
	lb.numRecords++
}

// Append adds a record and wakes any watchers.
func (lb *LogBuffer) Append(sev Severity, facility string, text string) {
	lb.lock()
	lb.append(sev, facility, text)
	for cv := range lb.cvs {
		cv.Broadcast()
	}
	lb.unlock()
}

// Write lets the buffer serve as a log.Logger destination.  Each line is
// recorded at informational severity, with no facility.
func (lb *LogBuffer) Write(b []byte) (int, error) {
	str := strings.Trim(string(b), "\n")
	lb.lock()
	for _, line := range strings.Split(str, "\n") {
		lb.append(SevInfo, "", line)
	}
	for cv := range lb.cvs {
		cv.Broadcast()
	}
	lb.unlock()
	return len(b), nil
}

func (lb *LogBuffer) Clear() {
	lb.lock()
	lb.numRecords = 0
	lb.id = time.Now().UnixNano()
	for cv := range lb.cvs {
		cv.Broadcast()
	}
	lb.unlock()
}

// Records returns the stored records, oldest first, and the id of the
// newest.  If that id equals last, nothing has changed and nil is
// returned instead of a copy.
func (lb *LogBuffer) Records(last int64) ([]LogRecord, int64) {
	lb.lock()
	defer lb.unlock()
	if lb.id == last {
		return nil, last
	}
	cnt := lb.numRecords
	if cnt > lb.maxRecords {
		cnt = lb.maxRecords
	}
	recs := make([]LogRecord, 0, cnt)
	index := lb.numRecords - cnt
	for j := 0; j < cnt; j++ {
		recs = append(recs, lb.records[index%lb.maxRecords])
		index++
	}
	return recs, lb.id
}

// Watch waits up to expire for the buffer to change from last, and
// returns the current id.
func (lb *LogBuffer) Watch(last int64, expire time.Duration) int64 {
	expired := false
	var timer *time.Timer
	cv := sync.NewCond(&lb.mx)
	if expire > 0 {
		timer = time.AfterFunc(expire, func() {
			lb.lock()
			expired = true
			cv.Broadcast()
			lb.unlock()
		})
	} else {
		expired = true
	}

	lb.lock()
	lb.cvs[cv] = true
	for lb.id == last && !expired {
		cv.Wait()
	}
	delete(lb.cvs, cv)
	last = lb.id
	lb.unlock()
	if timer != nil {
		timer.Stop()
	}
	return last
}
