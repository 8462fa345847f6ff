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

package mount

import (
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// kernelVersionAtLeast reports whether the running kernel's release is at
// least major.minor, the Go analogue of tools/helpers/version.py's
// kernel_version()/versiontuple() pair.
func kernelVersionAtLeast(major, minor int) bool {
	gotMajor, gotMinor, ok := parseKernelRelease()
	if !ok {
		return false
	}
	if gotMajor != major {
		return gotMajor > major
	}
	return gotMinor >= minor
}

func parseKernelRelease() (major, minor int, ok bool) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return 0, 0, false
	}

	release := charsToString(uts.Release[:])
	parts := strings.SplitN(release, ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err = strconv.Atoi(strings.TrimRightFunc(parts[1], func(r rune) bool {
		return r < '0' || r > '9'
	}))
	if err != nil {
		return 0, 0, false
	}

	return major, minor, true
}

func charsToString(ca []byte) string {
	n := 0
	for n < len(ca) && ca[n] != 0 {
		n++
	}
	return string(ca[:n])
}
