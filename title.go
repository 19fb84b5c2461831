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

// maxTitle is the kernel's limit on a task name, less the terminator.
const maxTitle = 15

// fitTitle shortens title to max bytes.  A trailing role tag such as
// " [WORKER-3]" is kept whole and the base name is cut instead.
func fitTitle(title string, max int) string {
	if len(title) <= max {
		return title
	}
	i := strings.LastIndex(title, " [")
	if i < 0 || !strings.HasSuffix(title, "]") {
		return title[:max]
	}
	base, tag := title[:i], title[i:]
	if len(tag) >= max {
		tag = strings.TrimPrefix(tag, " ")
		if len(tag) > max {
			return tag[:max]
		}
		return tag
	}
	return base[:max-len(tag)] + tag
}
