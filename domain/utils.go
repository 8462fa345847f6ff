//
// Copyright 2020 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package domain

import (
	"os"
	"syscall"
)

// FileExists reports whether the named file or directory exists.
func FileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// FileInode obtains the inode associated with any given file-system
// resource, used by the mount layer to detect when a bind-mount source
// has been replaced underneath an existing mountpoint.
func FileInode(name string) uint64 {

	fi, err := os.Stat(name)
	if err != nil {
		return 0
	}

	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0
	}

	return st.Ino
}
