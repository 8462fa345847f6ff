//
// Copyright 2019-2020 Nestybox, Inc.
// Copyright 2026 The Waydroid Authors.
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

package mount

import (
	"strings"

	"golang.org/x/sys/unix"

	"github.com/waydroid/waydroid/domain"
)

// mountPropFlags indicate a change in the propagation type of an existing
// mountpoint.
const mountPropFlags = (unix.MS_SHARED | unix.MS_PRIVATE | unix.MS_SLAVE | unix.MS_UNBINDABLE)

// mountModFlags indicate a change to an existing mountpoint. If these
// flags are not present, the mount syscall creates a new mountpoint.
const mountModFlags = (unix.MS_REMOUNT | unix.MS_BIND | unix.MS_MOVE | mountPropFlags)

// Helper translates textual mount options, as extracted from
// /proc/<pid>/mountinfo, to and from the numerical mount(2) flag bitmask.
type Helper struct {
	flagsMap map[string]uint64
}

var _ domain.MountHelperIface = (*Helper)(nil)

// NewHelper constructs a Helper with the fixed flag table the kernel
// surfaces through /proc/pid/mountinfo. See
// https://github.com/torvalds/linux/blob/master/fs/proc_namespace.c#L131.
func NewHelper() *Helper {
	return &Helper{
		flagsMap: map[string]uint64{
			"ro":          unix.MS_RDONLY,
			"nodev":       unix.MS_NODEV,
			"noexec":      unix.MS_NOEXEC,
			"nosuid":      unix.MS_NOSUID,
			"noatime":     unix.MS_NOATIME,
			"nodiratime":  unix.MS_NODIRATIME,
			"relatime":    unix.MS_RELATIME,
			"strictatime": unix.MS_STRICTATIME,
			"sync":        unix.MS_SYNCHRONOUS,
		},
	}
}

// IsNewMount returns true if the mount flags indicate creation of a new
// mountpoint.
func (h *Helper) IsNewMount(flags uint64) bool {
	return flags&unix.MS_MGC_MSK == unix.MS_MGC_VAL || flags&mountModFlags == 0
}

// IsRemount returns true if the mount flags indicate a remount operation.
func (h *Helper) IsRemount(flags uint64) bool {
	return flags&unix.MS_REMOUNT == unix.MS_REMOUNT
}

// IsBind returns true if the mount flags indicate a bind-mount operation.
func (h *Helper) IsBind(flags uint64) bool {
	return flags&unix.MS_BIND == unix.MS_BIND
}

// IsMove returns true if the mount flags indicate a mount move operation.
func (h *Helper) IsMove(flags uint64) bool {
	return flags&unix.MS_MOVE == unix.MS_MOVE
}

// HasPropagationFlag returns true if the mount flags indicate a mount
// propagation change.
func (h *Helper) HasPropagationFlag(flags uint64) bool {
	return flags&mountPropFlags != 0
}

// IsReadOnlyMount returns true if the mount flags indicate a read-only
// mount.
func (h *Helper) IsReadOnlyMount(flags uint64) bool {
	return flags&unix.MS_RDONLY == unix.MS_RDONLY
}

// StringToFlags converts string-based mount options, as extracted from
// /proc/pid/mountinfo, into their corresponding numerical flag value.
func (h *Helper) StringToFlags(s map[string]string) uint64 {
	var flags uint64

	for k := range s {
		if k == "rw" {
			continue
		}
		val, ok := h.flagsMap[k]
		if !ok {
			continue
		}
		flags |= val
	}

	return flags
}

// FilterFsFlags takes filesystem options as extracted from
// /proc/pid/mountinfo and returns, comma-joined, those that name a mount
// flag other than "rw"; filesystem-specific data options are dropped.
func (h *Helper) FilterFsFlags(fsOpts map[string]string) string {
	opts := []string{}

	for k := range fsOpts {
		if _, ok := h.flagsMap[k]; ok && k != "rw" {
			opts = append(opts, k)
		}
	}

	return strings.Join(opts, ",")
}
