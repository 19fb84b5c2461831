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
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// setProcessTitle sets the name shown by ps and top.  Writing
// /proc/self/comm renames the main thread whichever thread we run on;
// prctl only renames the calling thread, so it is the fallback.
func setProcessTitle(title string) error {
	title = fitTitle(title, maxTitle)
	if err := os.WriteFile("/proc/self/comm", []byte(title), 0); err == nil {
		return nil
	}
	b := append([]byte(title), 0)
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&b[0])), 0, 0, 0)
}
