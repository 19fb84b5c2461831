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
	"strconv"
)

// Filter transforms a log line or process title.
type Filter func(string) string

func roleTag(mode ProcessMode, id int) string {
	switch mode {
	case ModeMaster:
		return "MASTER"
	case ModeWorker:
		return "WORKER-" + strconv.Itoa(id)
	}
	return ""
}

func identity(s string) string { return s }

// LogDecorator returns a filter prefixing log lines with the process role,
// e.g. "[WORKER-3]: ".  When clustering is disabled lines pass unchanged.
func LogDecorator(mode ProcessMode, id int) Filter {
	tag := roleTag(mode, id)
	if tag == "" {
		return identity
	}
	prefix := "[" + tag + "]: "
	return func(s string) string {
		return prefix + s
	}
}

// TitleDecorator returns a filter appending the process role to the
// process title, e.g. "myserver [MASTER]".
func TitleDecorator(mode ProcessMode, id int) Filter {
	tag := roleTag(mode, id)
	if tag == "" {
		return identity
	}
	suffix := " [" + tag + "]"
	return func(s string) string {
		return s + suffix
	}
}
