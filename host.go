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

// Logger receives log lines.  Facility names the subsystem ("cluster"
// for everything in this package).
type Logger interface {
	Log(facility string, sev Severity, msg string)
}

// Host is the application the cluster is embedded in.  It supplies
// options, logging, presentation filters and shutdown.  App is the
// default implementation.
type Host interface {
	Logger

	// IntOption registers an integer option and returns a pointer to
	// its eventual value.  It is read when the cluster starts, after
	// options have been parsed.
	IntOption(name string, def int, usage string) *int

	// Shutdown asks the application to stop gracefully.
	Shutdown()

	// AddLogFilter and AddTitleFilter register presentation filters,
	// applied in the order they were added.
	AddLogFilter(f Filter)
	AddTitleFilter(f Filter)

	// Publish makes a value available to the rest of the application.
	Publish(name PropertyName, v interface{})

	// Daemonized is true when the application runs as a daemon, and
	// KillingDaemon when it was started only to stop one.  Either
	// disables clustering.
	Daemonized() bool
	KillingDaemon() bool
}
