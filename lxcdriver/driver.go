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

// Package lxcdriver implements the C4 LXC driver: a thin os/exec wrapper
// around the external lxc-start/lxc-stop/lxc-freeze/lxc-unfreeze/
// lxc-attach/lxc-info binaries, the Go analogue of
// tools/helpers/lxc.py's status()/start()/stop()/freeze()/unfreeze()/
// shell()/logcat().
package lxcdriver

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/waydroid/waydroid/domain"
	"github.com/waydroid/waydroid/waydroiderr"
)

const (
	containerName = "waydroid"
	pollInterval  = 500 * time.Millisecond
	pollTimeout   = 10 * time.Second
)

// Driver shells out to the external lxc-* binaries to manage the single
// well-known "waydroid" container instance. It is not a general-purpose
// container runtime client.
type Driver struct {
	lxcPath string // -P argument: the LXC container path (config.defaults["lxc"])
	log     *logrus.Entry
	execCmd func(name string, args ...string) *exec.Cmd
}

var _ domain.LxcDriverIface = (*Driver)(nil)

// New constructs a Driver rooted at lxcPath (typically
// /var/lib/waydroid/lxc).
func New(lxcPath string) *Driver {
	return &Driver{
		lxcPath: lxcPath,
		log:     logrus.WithField("component", "lxcdriver"),
		execCmd: exec.Command,
	}
}

// Status runs lxc-info and maps its output to a ContainerState,
// defaulting to Stopped on any exec error, matching the error-handling
// design's "on error, assume STOPPED".
func (d *Driver) Status() domain.ContainerState {
	out, err := d.execCmd("lxc-info", "-P", d.lxcPath, "-n", containerName, "-sH").Output()
	if err != nil {
		return domain.StateStopped
	}

	switch strings.TrimSpace(string(out)) {
	case "RUNNING":
		return domain.StateRunning
	case "FROZEN":
		return domain.StateFrozen
	default:
		return domain.StateStopped
	}
}

// Start runs "/init" in the container in the background and polls for
// RUNNING, matching start()'s "output=background" invocation plus
// spec.md's ten-second poll bound.
func (d *Driver) Start() error {
	cmd := d.execCmd("lxc-start", "-P", d.lxcPath, "-F", "-n", containerName, "--", "/init")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("lxcdriver: lxc-start: %w", err)
	}

	return d.pollFor(domain.StateRunning)
}

// Stop force-kills the container and polls for Stopped.
func (d *Driver) Stop() error {
	cmd := d.execCmd("lxc-stop", "-P", d.lxcPath, "-n", containerName, "-k")
	if out, err := cmd.CombinedOutput(); err != nil {
		d.log.WithError(err).WithField("output", strings.TrimSpace(string(out))).Warn("lxc-stop reported an error")
	}

	return d.pollFor(domain.StateStopped)
}

// Freeze suspends the container and polls for Frozen.
func (d *Driver) Freeze() error {
	if out, err := d.execCmd("lxc-freeze", "-P", d.lxcPath, "-n", containerName).CombinedOutput(); err != nil {
		return fmt.Errorf("lxcdriver: lxc-freeze: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return d.pollFor(domain.StateFrozen)
}

// Unfreeze resumes a frozen container and polls for Running.
func (d *Driver) Unfreeze() error {
	if out, err := d.execCmd("lxc-unfreeze", "-P", d.lxcPath, "-n", containerName).CombinedOutput(); err != nil {
		return fmt.Errorf("lxcdriver: lxc-unfreeze: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return d.pollFor(domain.StateRunning)
}

func (d *Driver) pollFor(want domain.ContainerState) error {
	deadline := time.Now().Add(pollTimeout)
	for time.Now().Before(deadline) {
		if d.Status() == want {
			return nil
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("%w: container did not reach %s within %s", waydroiderr.ErrStateTransitionTimeout, want, pollTimeout)
}

// Attach runs a command inside the running container via lxc-attach,
// applying the elevated UID/GID/security-context/capability-drop
// overrides, matching shell()/logcat() generalized to an arbitrary
// command plus spec.md's hidden elevated flags.
func (d *Driver) Attach(opts domain.AttachOptions) ([]byte, error) {
	args := []string{"-P", d.lxcPath, "-n", containerName}

	if opts.UID != 0 {
		args = append(args, "--uid", fmt.Sprintf("%d", opts.UID))
	}
	if opts.GID != 0 {
		args = append(args, "--gid", fmt.Sprintf("%d", opts.GID))
	}
	if opts.SecurityContext != "" {
		args = append(args, "--context", opts.SecurityContext)
	}
	if opts.DropCaps {
		args = append(args, "--drop-all-caps")
	}
	if opts.NoCgroupSwitch {
		args = append(args, "--no-cgroup-switch")
	}

	args = append(args, "--")
	if len(opts.Command) > 0 {
		args = append(args, opts.Command...)
	} else {
		args = append(args, "/system/bin/sh")
	}

	cmd := d.execCmd("lxc-attach", args...)
	cmd.Env = append([]string{}, opts.Env...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("lxcdriver: lxc-attach: %w", err)
	}

	return stdout.Bytes(), nil
}

// ClassPath reads the classpath file written by Android inside the
// running container, attaching and cat-ing it, so it can be merged into
// the injected environment for later Attach calls.
func (d *Driver) ClassPath() (string, error) {
	out, err := d.Attach(domain.AttachOptions{Command: []string{"cat", "/system/etc/classpath"}})
	if err != nil {
		return "", fmt.Errorf("lxcdriver: reading classpath: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
