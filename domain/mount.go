//
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

package domain

// ImageLayout locates the mountable artefacts under the image directory:
// the two filesystem images plus their optional overlay branches.
type ImageLayout struct {
	ImagesDir    string
	RootfsDir    string
	OverlayDir   string   // read-only lower overlay root
	OverlayRWDir string   // read-write upper overlay root
	OverlayWork  string   // overlayfs workdir root
	Branches     []string // e.g. "system", "vendor"
}

// Mount records one mount performed by the mount layer, so a failed
// Start/Stop sequence can roll prior mounts back in reverse order.
type Mount struct {
	Source string `json:"source"`
	Target string `json:"target"`
	FsType string `json:"fstype"`
	Flags  uint64 `json:"flags"`
	Data   string `json:"data"`
}

// MountServiceIface is the C2 mount layer: bind mounts, overlay
// composition, loop-mounted images, and recursive unmount. Implemented by
// the mount package.
type MountServiceIface interface {
	Setup(hlp MountHelperIface)

	IsMounted(path string) (bool, error)
	Bind(src, dst string) (Mount, error)
	BindFile(src, dst string) (Mount, error)
	MountOverlay(lowers []string, dst, upper, work string) (Mount, error)
	MountImage(imgPath, dst string, readonly bool) (Mount, error)
	UmountAll(prefix string) error
	Unmount(m Mount) error
	RollBack(mounts []Mount)
}

// MountHelperIface translates textual mount options (as extracted from
// /proc/<pid>/mountinfo) to/from the numerical mount(2) flag bitmask.
type MountHelperIface interface {
	IsNewMount(flags uint64) bool
	IsRemount(flags uint64) bool
	IsBind(flags uint64) bool
	IsMove(flags uint64) bool
	HasPropagationFlag(flags uint64) bool
	IsReadOnlyMount(flags uint64) bool
	StringToFlags(s map[string]string) uint64
	FilterFsFlags(fsOpts map[string]string) string
}

//
// MountInfo reveals information about a particular mounted filesystem,
// populated from the content of /proc/<pid>/mountinfo. Each line looks
// like:
//
//   36 35 98:0 /mnt1 /mnt2 rw,noatime master:1 - ext3 /dev/root rw,errors=continue
//   (1)(2)(3)   (4)   (5)      (6)      (7)   (8) (9)   (10)         (11)
//
//    (1) mount ID:  unique identifier of the mount (may be reused after umount)
//    (2) parent ID:  ID of parent (or of self for the top of the mount tree)
//    (3) major:minor:  value of st_dev for files on filesystem
//    (4) root:  root of the mount within the filesystem
//    (5) mount point:  mount point relative to the process's root
//    (6) mount options:  per mount options
//    (7) optional fields:  zero or more fields of the form "tag[:value]"
//    (8) separator:  marks the end of the optional fields
//    (9) filesystem type:  name of filesystem of the form "type[.subtype]"
//    (10) mount source:  filesystem specific information or "none"
//    (11) super options:  per super block options
//
type MountInfo struct {
	MountID        int
	ParentID       int
	MajorMinorVer  string
	FsType         string
	Source         string
	Root           string
	MountPoint     string
	Options        map[string]string
	OptionalFields map[string]string
	VfsOptions     map[string]string
}
