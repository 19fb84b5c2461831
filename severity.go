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
)

// Severity orders log lines by operational significance.
type Severity int

const (
	SevTrace Severity = iota
	SevDebug
	SevInfo
	SevWarn
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevTrace:
		return "TRACE"
	case SevDebug:
		return "DEBUG"
	case SevInfo:
		return "INFO"
	case SevWarn:
		return "WARN"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseSeverity converts a level name.  Unknown names give SevInfo and
// false.
func ParseSeverity(name string) (Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return SevTrace, true
	case "DEBUG":
		return SevDebug, true
	case "INFO", "":
		return SevInfo, true
	case "WARN", "WARNING":
		return SevWarn, true
	case "ERROR":
		return SevError, true
	}
	return SevInfo, false
}
