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

// Package rpc serves the cluster status API from the master.
package rpc

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/gdamore/gocluster"
	"github.com/gdamore/gocluster/rest"
)

// Handler wraps a Supervisor, adding http.Handler functionality.
type Handler struct {
	s        *cluster.Supervisor
	log      *cluster.LogBuffer
	user     string
	hash     []byte
	shutdown func()
	r        *mux.Router
}

var ok struct{}

func (h *Handler) internalError(w http.ResponseWriter, e error) {
	http.Error(w, e.Error(), http.StatusInternalServerError)
}

func (h *Handler) writeJson(w http.ResponseWriter, v interface{}) {
	if b, e := json.Marshal(v); e != nil {
		h.internalError(w, e)
	} else {
		w.Header().Set("Content-Type", rest.MimeJson)
		w.Write(b)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, e *rest.Error) {
	b, _ := json.Marshal(e)
	w.Header().Set("Content-Type", rest.MimeJson)
	w.WriteHeader(e.Code)
	w.Write(b)
}

// writeTagged writes v with an Etag, or 304 if the client already has
// it.
func (h *Handler) writeTagged(w http.ResponseWriter, r *http.Request, tag int64, v interface{}) {
	etag := strconv.FormatInt(tag, 16)
	w.Header().Set("Etag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.writeJson(w, v)
}

// pollTag returns the tag a long poll is waiting to move past, and for
// how long.  ok is false for ordinary requests.
func pollTag(r *http.Request) (int64, time.Duration, bool) {
	etag := r.Header.Get(rest.PollEtagHeader)
	secs, err := strconv.Atoi(r.Header.Get(rest.PollTimeHeader))
	if etag == "" || err != nil || secs <= 0 {
		return 0, 0, false
	}
	if secs > rest.MaxPollTime {
		secs = rest.MaxPollTime
	}
	tag, err := strconv.ParseInt(etag, 16, 64)
	if err != nil {
		return 0, 0, false
	}
	return tag, time.Duration(secs) * time.Second, true
}

func (h *Handler) getInfo(w http.ResponseWriter, r *http.Request) {
	if tag, d, ok := pollTag(r); ok {
		h.s.WatchSerial(tag, d)
	}
	info := h.s.Info()
	h.writeTagged(w, r, info.Serial, info)
}

func (h *Handler) listWorkers(w http.ResponseWriter, r *http.Request) {
	if tag, d, ok := pollTag(r); ok {
		h.s.WatchWorkers(tag, d)
	}
	ws, serial := h.s.Workers()
	ids := make([]int, 0, len(ws))
	for _, wi := range ws {
		ids = append(ids, wi.ID)
	}
	h.writeTagged(w, r, serial, ids)
}

func (h *Handler) findWorker(r *http.Request) (*cluster.WorkerInfo, *rest.Error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return nil, &rest.Error{Code: http.StatusBadRequest, Message: "Bad worker id"}
	}
	wi, err := h.s.Worker(id)
	if err != nil {
		return nil, &rest.Error{Code: http.StatusNotFound, Message: err.Error()}
	}
	return wi, nil
}

func (h *Handler) getWorker(w http.ResponseWriter, r *http.Request) {
	wi, e := h.findWorker(r)
	if e != nil {
		h.writeError(w, e)
		return
	}
	if tag, d, ok := pollTag(r); ok {
		// The worker only has its own serial, so wait on the global one
		// until this worker has moved.
		deadline := time.Now().Add(d)
		serial := h.s.Serial()
		for wi.Serial == tag {
			left := time.Until(deadline)
			if left <= 0 {
				break
			}
			serial = h.s.WatchSerial(serial, left)
			if wi, e = h.findWorker(r); e != nil {
				h.writeError(w, e)
				return
			}
		}
	}
	h.writeTagged(w, r, wi.Serial, wi)
}

func (h *Handler) restartWorker(w http.ResponseWriter, r *http.Request) {
	wi, e := h.findWorker(r)
	if e != nil {
		h.writeError(w, e)
		return
	}
	switch err := h.s.Restart(wi.ID); err {
	case nil:
		h.writeJson(w, ok)
	case cluster.ErrNoWorker:
		h.writeError(w, &rest.Error{Code: http.StatusNotFound, Message: err.Error()})
	default:
		h.writeError(w, &rest.Error{Code: http.StatusConflict, Message: err.Error()})
	}
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request) {
	if h.log == nil {
		h.writeError(w, &rest.Error{Code: http.StatusNotFound, Message: "No log"})
		return
	}
	if tag, d, ok := pollTag(r); ok {
		h.log.Watch(tag, d)
	}
	recs, id := h.log.Records(0)
	h.writeTagged(w, r, id, recs)
}

func (h *Handler) shutdownCluster(w http.ResponseWriter, r *http.Request) {
	if h.shutdown == nil {
		h.writeError(w, &rest.Error{Code: http.StatusNotImplemented, Message: "Shutdown not available"})
		return
	}
	h.writeJson(w, ok)
	go h.shutdown()
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.hash == nil {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, found := r.BasicAuth()
		if !found || user != h.user ||
			bcrypt.CompareHashAndPassword(h.hash, []byte(pass)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="cluster"`)
			h.writeError(w, &rest.Error{Code: http.StatusUnauthorized, Message: "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.r.ServeHTTP(w, req)
}

// SetAuth requires HTTP basic authentication.  hash is the bcrypt hash of
// the password.  An empty user or hash turns authentication off.
func (h *Handler) SetAuth(user string, hash string) {
	if user == "" || hash == "" {
		h.user = ""
		h.hash = nil
		return
	}
	h.user = user
	h.hash = []byte(hash)
}

// OnShutdown sets the function run (in its own goroutine) when a client
// asks for the cluster to be shut down.
func (h *Handler) OnShutdown(fn func()) {
	h.shutdown = fn
}

// NewHandler returns a handler for the supervisor.  log, if not nil, is
// served under /log.
func NewHandler(s *cluster.Supervisor, log *cluster.LogBuffer) *Handler {
	r := mux.NewRouter()
	h := &Handler{s: s, log: log, r: r}
	r.Use(h.authenticate)
	r.HandleFunc("/info", h.getInfo).Methods("GET")
	r.HandleFunc("/workers", h.listWorkers).Methods("GET")
	r.HandleFunc("/workers/{id:[0-9]+}", h.getWorker).Methods("GET")
	r.HandleFunc("/workers/{id:[0-9]+}/restart", h.restartWorker).Methods("POST")
	r.HandleFunc("/log", h.getLog).Methods("GET")
	r.HandleFunc("/shutdown", h.shutdownCluster).Methods("POST")
	return h
}
