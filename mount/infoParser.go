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

// This file parses /proc/self/mountinfo, e.g.:
//
// 36 35 98:0 /mnt1 /mnt2 rw,noatime master:1 - ext3 /dev/root rw,errors=continue
// (1)(2)(3)   (4)   (5)      (6)      (7)   (8) (9)   (10)         (11)
//
// Used by the mount layer to answer "is this path currently mounted" and
// to resolve a target path back to its live mount options, without
// shelling out to findmnt/mount(8).

package mount

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/waydroid/waydroid/domain"
)

// mountsUnderPrefix returns the mountpoints in mounts that fall under
// prefix, deepest first, mirroring umount_all_list()'s reverse-sorted
// traversal so submounts are torn down before their parents.
func mountsUnderPrefix(mounts map[string]*domain.MountInfo, prefix string) []string {
	var targets []string
	for mp := range mounts {
		if strings.HasPrefix(mp, prefix) {
			targets = append(targets, mp)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(targets)))
	return targets
}

// parseMountInfo reads the file at path (normally /proc/self/mountinfo) and returns one
// domain.MountInfo per line, indexed by mountpoint path.
func parseMountInfo(path string) (map[string]*domain.MountInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mount: opening %s: %w", path, err)
	}
	defer f.Close()

	out := make(map[string]*domain.MountInfo)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		mi, err := parseMountInfoLine(scanner.Text())
		if err != nil {
			continue
		}
		out[mi.MountPoint] = mi
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("mount: scanning %s: %w", path, err)
	}

	return out, nil
}

func parseMountInfoLine(line string) (*domain.MountInfo, error) {
	fields := strings.Fields(line)
	if len(fields) < 10 {
		return nil, fmt.Errorf("mount: malformed mountinfo line: %q", line)
	}

	sepIdx := -1
	for i, f := range fields {
		if f == "-" {
			sepIdx = i
			break
		}
	}
	if sepIdx < 0 || sepIdx+3 >= len(fields) {
		return nil, fmt.Errorf("mount: missing separator in mountinfo line: %q", line)
	}

	mountID, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("mount: bad mount id in %q: %w", line, err)
	}
	parentID, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("mount: bad parent id in %q: %w", line, err)
	}

	mi := &domain.MountInfo{
		MountID:        mountID,
		ParentID:       parentID,
		MajorMinorVer:  fields[2],
		Root:           unmangleMountInfo(fields[3]),
		MountPoint:     unmangleMountInfo(fields[4]),
		Options:        parseOptionsField(fields[5]),
		OptionalFields: parseOptionalFields(fields[6:sepIdx]),
		FsType:         fields[sepIdx+1],
		Source:         unmangleMountInfo(fields[sepIdx+2]),
		VfsOptions:     parseOptionsField(fields[sepIdx+3]),
	}

	return mi, nil
}

func parseOptionsField(s string) map[string]string {
	out := make(map[string]string)
	for _, opt := range strings.Split(s, ",") {
		if opt == "" {
			continue
		}
		if kv := strings.SplitN(opt, "=", 2); len(kv) == 2 {
			out[kv[0]] = kv[1]
		} else {
			out[opt] = ""
		}
	}
	return out
}

func parseOptionalFields(fields []string) map[string]string {
	out := make(map[string]string)
	for _, f := range fields {
		if kv := strings.SplitN(f, ":", 2); len(kv) == 2 {
			out[kv[0]] = kv[1]
		} else {
			out[f] = ""
		}
	}
	return out
}

// unmangleMountInfo reverses the octal-escape encoding the kernel applies
// to spaces, tabs, newlines and backslashes in mountinfo fields, and
// strips the "(deleted)" suffix the kernel appends once the mount
// source's underlying dentry has been unlinked.
func unmangleMountInfo(s string) string {
	s = strings.TrimSuffix(s, "\\040(deleted)")

	replacer := strings.NewReplacer(
		`\040`, " ",
		`\011`, "\t",
		`\012`, "\n",
		`\134`, `\`,
	)
	return replacer.Replace(s)
}
