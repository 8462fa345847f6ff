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

package containermgr

import (
	"strconv"

	"github.com/waydroid/waydroid/domain"
)

// Session descriptor dictionary keys, matching
// container_manager.py/session_manager.py's string-keyed dict (DBus
// a{ss} only carries strings, so every field round-trips as text).
const (
	keyUserName        = "user_name"
	keyUID             = "user_id"
	keyGID             = "group_id"
	keyHostHome        = "host_user"
	keyPID             = "pid"
	keyXdgDataHome     = "xdg_data_home"
	keyXdgRuntimeDir   = "xdg_runtime_dir"
	keyWaylandDisplay  = "wayland_display"
	keyPulseRuntimeDir = "pulse_runtime_dir"
	keyWaydroidData    = "waydroid_data"
	keyLcdDensity      = "lcd_density"
	keyBackgroundStart = "background_start"
	keyState           = "state"
)

// sessionToMap renders a Session descriptor as the string-keyed
// dictionary carried over DBus.
func sessionToMap(s domain.Session) map[string]string {
	return map[string]string{
		keyUserName:        s.UserName,
		keyUID:             strconv.FormatUint(uint64(s.UID), 10),
		keyGID:             strconv.FormatUint(uint64(s.GID), 10),
		keyHostHome:        s.HostHome,
		keyPID:             strconv.Itoa(s.PID),
		keyXdgDataHome:     s.XdgDataHome,
		keyXdgRuntimeDir:   s.XdgRuntimeDir,
		keyWaylandDisplay:  s.WaylandDisplay,
		keyPulseRuntimeDir: s.PulseRuntimeDir,
		keyWaydroidData:    s.WaydroidData,
		keyLcdDensity:      strconv.Itoa(s.LcdDensity),
		keyBackgroundStart: strconv.FormatBool(s.BackgroundStart),
		keyState:           string(s.State),
	}
}

// mapToSession parses a Session descriptor out of its DBus dictionary
// representation, tolerating missing/malformed numeric fields by
// defaulting to zero rather than failing the call (matching the
// original's untyped dict access).
func mapToSession(m map[string]string) domain.Session {
	uid, _ := strconv.ParseUint(m[keyUID], 10, 32)
	gid, _ := strconv.ParseUint(m[keyGID], 10, 32)
	pid, _ := strconv.Atoi(m[keyPID])
	density, _ := strconv.Atoi(m[keyLcdDensity])
	background, _ := strconv.ParseBool(m[keyBackgroundStart])

	return domain.Session{
		UserName:        m[keyUserName],
		UID:             uint32(uid),
		GID:             uint32(gid),
		HostHome:        m[keyHostHome],
		PID:             pid,
		XdgDataHome:     m[keyXdgDataHome],
		XdgRuntimeDir:   m[keyXdgRuntimeDir],
		WaylandDisplay:  m[keyWaylandDisplay],
		PulseRuntimeDir: m[keyPulseRuntimeDir],
		WaydroidData:    m[keyWaydroidData],
		LcdDensity:      density,
		BackgroundStart: background,
		State:           domain.ContainerState(m[keyState]),
	}
}
