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

package lxcdriver

import (
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/waydroid/waydroid/domain"
)

// TestHelperProcess is not a real test; it is executed as a subprocess by
// fakeCommand to stand in for the external lxc-* binaries.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Fprint(os.Stdout, os.Getenv("HELPER_OUTPUT"))
	if os.Getenv("HELPER_EXIT") == "1" {
		os.Exit(1)
	}
	os.Exit(0)
}

// fakeCommand builds an exec.Cmd that runs the test binary itself in a
// helper-process mode, the standard Go idiom for unit-testing os/exec
// wrappers without invoking the real external tool.
func fakeCommand(output string, exitNonZero bool) func(string, ...string) *exec.Cmd {
	return func(name string, args ...string) *exec.Cmd {
		cs := []string{"-test.run=TestHelperProcess", "--"}
		cmd := exec.Command(exec.Args[0], cs...)
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			"HELPER_OUTPUT=" + output,
		}
		if exitNonZero {
			cmd.Env = append(cmd.Env, "HELPER_EXIT=1")
		}
		return cmd
	}
}

func TestDriver_StatusDefaultsToStoppedOnError(t *testing.T) {
	d := New("/var/lib/waydroid/lxc")
	d.execCmd = fakeCommand("", true)

	assert.Equal(t, domain.StateStopped, d.Status())
}

func TestDriver_StatusParsesRunning(t *testing.T) {
	d := New("/var/lib/waydroid/lxc")
	d.execCmd = fakeCommand("RUNNING\n", false)

	assert.Equal(t, domain.StateRunning, d.Status())
}

func TestDriver_StatusParsesFrozen(t *testing.T) {
	d := New("/var/lib/waydroid/lxc")
	d.execCmd = fakeCommand("FROZEN\n", false)

	assert.Equal(t, domain.StateFrozen, d.Status())
}
