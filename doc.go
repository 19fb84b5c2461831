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

// Package cluster lets a Go server scale across CPU cores by running
// several copies of itself.  The first process becomes the master, which
// owns a pool of worker processes, replaces any worker that crashes, and
// drains the pool when it is asked to stop.  Every other process is a
// worker, which runs the application and waits for the master to tell it
// to shut down.
//
// Go cannot fork a running runtime, so a worker is started by executing
// the same binary again.  The child finds its worker id and the cluster id
// in its environment, and inherits one end of a socket pair as file
// descriptor 3.  That socket is the only channel between the two
// processes; it carries newline delimited JSON messages.
//
// A typical host does something like this:
//
//	app := cluster.NewApp("myserver")
//	c := cluster.New(app, cluster.NewExecForker(), cfg)
//	app.Flags().Parse(os.Args[1:])
//	if err := c.Start(); err != nil {
//		log.Fatal(err)
//	}
//	if c.Mode() != cluster.ModeMaster {
//		l, _ := c.Listen("tcp", ":8080")
//		http.Serve(l, handler)
//	}
//
// Clustering is disabled when the configured instance count is zero, and
// when the host runs daemonized (or is killing its daemon).  In that case
// the package does nothing at all.
package cluster
