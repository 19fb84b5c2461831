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

package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Client talks to the status API of a cluster master.  It caches what it
// has fetched, and uses Etags so that unchanged resources are not sent
// again.
type Client struct {
	user   string // HTTP Basic-Auth
	pass   string
	base   string // URI to root of tree on server
	auth   bool
	client *http.Client

	// Cached data
	info    *Info
	workers map[int]*WorkerInfo
	ids     []int
	etag    string // etag for the list of workers
	log     *LogInfo
	lock    sync.Mutex
}

// NewClient returns a Client handle.  The transport may be nil to use a
// default transport, but it may also be adjusted to support additional
// options such as TLS.  baseURI is the base URL to use.
func NewClient(t *http.Transport, baseURI string) *Client {
	if t == nil {
		t = &http.Transport{}
	}
	return &Client{
		base:    strings.TrimRight(baseURI, "/"),
		client:  &http.Client{Transport: t},
		workers: make(map[int]*WorkerInfo),
	}
}

func (c *Client) SetAuth(user string, pass string) {
	c.user = user
	c.pass = pass
	c.auth = true
}

func (c *Client) workerURL(id int) string {
	if id == 0 {
		return c.base + "/workers"
	}
	return c.base + "/workers/" + strconv.Itoa(id)
}

// poll issues an HTTP GET against the URL, optionally checking for a cache,
// including optionally issuing a long poll that tries to wait until the
// value changes.  The return values are the new Etag and any error.  If the
// value did not change, then the returned etag will be "", but the error will
// be nil.
func (c *Client) poll(ctx context.Context, url string, etag string, wait int, v interface{}) (string, error) {
	req, e := http.NewRequestWithContext(ctx, "GET", url, nil)
	if e != nil {
		return "", e
	}
	if c.auth {
		req.SetBasicAuth(c.user, c.pass)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
		if wait > 0 {
			req.Header.Set(PollEtagHeader, etag)
			req.Header.Set(PollTimeHeader, strconv.Itoa(wait))
		}
	}
	res, e := c.client.Do(req)
	if e != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", e
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotModified {
		return "", nil
	}
	if res.StatusCode != http.StatusOK {
		return "", decodeError(res)
	}
	body, e := io.ReadAll(res.Body)
	if e != nil {
		return "", e
	}
	if e := json.Unmarshal(body, v); e != nil {
		return "", e
	}
	return res.Header.Get("Etag"), nil
}

func decodeError(res *http.Response) error {
	e := &Error{}
	if b, err := io.ReadAll(res.Body); err == nil && json.Unmarshal(b, e) == nil && e.Message != "" {
		e.Code = res.StatusCode
		return e
	}
	return &Error{Code: res.StatusCode, Message: res.Status}
}

func (c *Client) post(url string) error {
	req, e := http.NewRequest("POST", url, strings.NewReader(""))
	if e != nil {
		return e
	}
	req.Header.Set("Content-Type", "text/plain") // we don't really care
	if c.auth {
		req.SetBasicAuth(c.user, c.pass)
	}
	res, e := c.client.Do(req)
	if e != nil {
		return e
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return decodeError(res)
	}
	return nil
}

// Watch waits until the master's state moves on from etag, and returns the
// new tag.  An empty etag returns the current tag without waiting.
func (c *Client) Watch(ctx context.Context, etag string) (string, error) {
	c.lock.Lock()
	if c.info != nil && etag == "" {
		etag = c.info.etag
		c.lock.Unlock()
		return etag, nil
	}
	c.lock.Unlock()

	info := &Info{}
	tag, e := c.poll(ctx, c.base+"/info", etag, MaxPollTime, info)
	if e != nil {
		return "", e
	}
	if tag == "" {
		return etag, nil
	}
	info.etag = tag
	c.lock.Lock()
	c.info = info
	c.lock.Unlock()
	return tag, nil
}

// Info returns the master's summary.
func (c *Client) Info() (*Info, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	c.lock.Lock()
	otag := ""
	old := c.info
	if old != nil {
		otag = old.etag
	}
	c.lock.Unlock()

	info := &Info{}
	tag, e := c.poll(ctx, c.base+"/info", otag, 0, info)
	if e != nil {
		return nil, e
	}
	if tag == "" && old != nil {
		return old, nil
	}
	info.etag = tag
	c.lock.Lock()
	c.info = info
	c.lock.Unlock()
	return info, nil
}

func (c *Client) pollWorkers(ctx context.Context, secs int) ([]int, error) {
	var v []int

	c.lock.Lock()
	otag := c.etag
	oids := c.ids
	c.lock.Unlock()

	etag, e := c.poll(ctx, c.workerURL(0), otag, secs, &v)
	if e != nil {
		return nil, e
	}
	if etag == "" || etag == otag {
		return oids, nil
	}

	c.lock.Lock()
	c.etag = etag
	c.ids = v
	// keep cached records only for workers that still exist
	workers := make(map[int]*WorkerInfo)
	for _, id := range v {
		if w, ok := c.workers[id]; ok {
			workers[id] = w
		}
	}
	c.workers = workers
	c.lock.Unlock()
	return v, nil
}

// Workers returns the ids of the live workers.
func (c *Client) Workers() ([]int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return c.pollWorkers(ctx, 0)
}

// WatchWorkers waits for workers to come or go.
func (c *Client) WatchWorkers(ctx context.Context) ([]int, error) {
	return c.pollWorkers(ctx, MaxPollTime)
}

func (c *Client) pollWorker(ctx context.Context, id int, secs int, last *WorkerInfo) (*WorkerInfo, error) {
	v := &WorkerInfo{}
	c.lock.Lock()
	cached, ok := c.workers[id]
	c.lock.Unlock()

	otag := ""
	if last == nil {
		secs = 0
	} else if ok && last.etag != cached.etag {
		// The cache is already newer than what the caller has.
		return cached, nil
	} else {
		otag = last.etag
	}

	etag, e := c.poll(ctx, c.workerURL(id), otag, secs, v)
	if e != nil {
		c.lock.Lock()
		delete(c.workers, id)
		c.lock.Unlock()
		return nil, e
	}
	if etag == "" {
		if cached == nil {
			return last, nil
		}
		return cached, nil
	}
	v.etag = etag
	c.lock.Lock()
	c.workers[id] = v
	c.lock.Unlock()
	return v, nil
}

func (c *Client) GetWorker(id int) (*WorkerInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return c.pollWorker(ctx, id, 0, nil)
}

// WatchWorker waits for the worker to change from last.
func (c *Client) WatchWorker(ctx context.Context, id int, last *WorkerInfo) (*WorkerInfo, error) {
	return c.pollWorker(ctx, id, MaxPollTime, last)
}

func (c *Client) RestartWorker(id int) error {
	return c.post(c.workerURL(id) + "/restart")
}

// Shutdown asks the master to shut the whole cluster down.
func (c *Client) Shutdown() error {
	return c.post(c.base + "/shutdown")
}

func (c *Client) pollLog(ctx context.Context, secs int, last *LogInfo) (*LogInfo, error) {
	v := &LogInfo{}

	c.lock.Lock()
	cached := c.log
	c.lock.Unlock()

	otag := ""
	if last == nil {
		secs = 0
	} else if cached != nil && last.etag != cached.etag {
		return cached, nil
	} else {
		otag = last.etag
	}

	etag, e := c.poll(ctx, c.base+"/log", otag, secs, &v.Records)
	if e != nil {
		c.lock.Lock()
		c.log = nil
		c.lock.Unlock()
		return nil, e
	}
	if etag == "" {
		if cached == nil {
			return last, nil
		}
		return cached, nil
	}
	v.etag = etag
	c.lock.Lock()
	c.log = v
	c.lock.Unlock()
	return v, nil
}

func (c *Client) GetLog() (*LogInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return c.pollLog(ctx, 0, nil)
}

// WatchLog waits (for up to five minutes) for new log records.
func (c *Client) WatchLog(ctx context.Context, last *LogInfo) (*LogInfo, error) {
	return c.pollLog(ctx, MaxPollTime, last)
}
