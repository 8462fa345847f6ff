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

// Package session implements the C7 session manager: it builds the
// per-user session descriptor, drives C6's Start/Stop over the system
// bus, and runs the auxiliary services (user monitor, clipboard,
// notifications, GNSS), the Go analogue of
// original_source/tools/actions/session_manager.py.
package session

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/waydroid/waydroid/domain"
)

// Env abstracts over the host environment lookups session descriptor
// construction needs, so tests can supply a fixed environment instead of
// the real process environment.
type Env interface {
	Getenv(key string) string
	Getuid() int
	Getgid() int
	LookupUser(uid int) (name, home string, err error)
}

// osEnv is the default Env backed by the real process/os/user packages.
type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }
func (osEnv) Getuid() int              { return os.Getuid() }
func (osEnv) Getgid() int              { return os.Getgid() }
func (osEnv) LookupUser(uid int) (string, string, error) {
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return "", "", err
	}
	return u.Username, u.HomeDir, nil
}

// DefaultEnv is the Env used when none is supplied to BuildSessionDescriptor.
var DefaultEnv Env = osEnv{}

// BuildSessionDescriptor constructs a Session from the host environment,
// matching session_manager.py's session_defaults dict plus start()'s
// WAYLAND_DISPLAY/lcd_density resolution. dpiFromProp is the value of
// ro.sf.lcd_density read from the host property store ("" if unset).
func BuildSessionDescriptor(env Env, dpiFromProp string) (domain.Session, error) {
	if env == nil {
		env = DefaultEnv
	}

	uid := env.Getuid()
	gid := env.Getgid()
	userName, hostHome, err := env.LookupUser(uid)
	if err != nil {
		return domain.Session{}, fmt.Errorf("session: looking up uid %d: %w", uid, err)
	}

	xdgDataHome := env.Getenv("XDG_DATA_HOME")
	if xdgDataHome == "" {
		xdgDataHome = filepath.Join(hostHome, ".local/share")
	}

	xdgRuntimeDir := env.Getenv("XDG_RUNTIME_DIR")
	if xdgRuntimeDir == "" {
		return domain.Session{}, fmt.Errorf("session: XDG_RUNTIME_DIR is not set")
	}

	waylandSocket, err := resolveWaylandSocket(env, xdgRuntimeDir)
	if err != nil {
		return domain.Session{}, err
	}

	pulseRuntimeDir := env.Getenv("PULSE_RUNTIME_PATH")
	if pulseRuntimeDir == "" {
		pulseRuntimeDir = filepath.Join(xdgRuntimeDir, "pulse")
	}

	density := resolveLcdDensity(env, dpiFromProp)

	return domain.Session{
		UserName:        userName,
		UID:             uint32(uid),
		GID:             uint32(gid),
		HostHome:        hostHome,
		PID:             os.Getpid(),
		XdgDataHome:     xdgDataHome,
		XdgRuntimeDir:   xdgRuntimeDir,
		WaylandDisplay:  waylandSocket,
		PulseRuntimeDir: pulseRuntimeDir,
		WaydroidData:    filepath.Join(xdgDataHome, "waydroid/data"),
		LcdDensity:      density,
		State:           domain.StateStopped,
	}, nil
}

// resolveWaylandSocket matches session_manager.py's handling of
// WAYLAND_DISPLAY: an absolute path is used as-is, otherwise it is
// resolved relative to XDG_RUNTIME_DIR, and the resulting path must
// exist.
func resolveWaylandSocket(env Env, xdgRuntimeDir string) (string, error) {
	display := env.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		return "", fmt.Errorf("session: WAYLAND_DISPLAY is not set")
	}

	socket := display
	if !strings.HasPrefix(display, "/") {
		socket = filepath.Join(xdgRuntimeDir, display)
	}

	if _, err := os.Stat(socket); err != nil {
		return "", fmt.Errorf("session: wayland socket %s does not exist: %w", socket, err)
	}
	return socket, nil
}

// resolveLcdDensity prefers the Android-reported ro.sf.lcd_density
// property, falling back to GRID_UNIT_PX*20 and finally 0, matching
// session_manager.py's start().
func resolveLcdDensity(env Env, dpiFromProp string) int {
	if dpiFromProp != "" {
		if v, err := strconv.Atoi(dpiFromProp); err == nil {
			return v
		}
	}
	if grid := env.Getenv("GRID_UNIT_PX"); grid != "" {
		if v, err := strconv.Atoi(grid); err == nil {
			return v * 20
		}
	}
	return 0
}
