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

// Package pidfile manages the lock-file that guarantees at most one
// instance of a given waydroid daemon runs at a time. The teacher
// delegates this to its private sysbox-libs/utils module, which is not
// independently fetchable outside the Nestybox monorepo; this package
// re-implements the same three operations directly on the standard
// library.
package pidfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Create writes the calling process's PID to path, failing if another
// live process already holds it.
func Create(procName, path string) error {
	if err := CheckPidFile(procName, path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%s: creating pid file %s: %w", procName, path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		return fmt.Errorf("%s: writing pid file %s: %w", procName, path, err)
	}

	return nil
}

// CheckPidFile returns an error if path names an existing, live process.
// A stale pid file (process no longer exists) is not an error.
func CheckPidFile(procName, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%s: reading pid file %s: %w", procName, path, err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return nil
	}

	if err := unix.Kill(pid, 0); err == nil {
		return fmt.Errorf("%s: already running with pid %d (%s)", procName, pid, path)
	}

	return nil
}

// Destroy removes the pid file. A missing file is not an error: teardown
// always tries to make progress.
func Destroy(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing pid file %s: %w", path, err)
	}
	return nil
}
