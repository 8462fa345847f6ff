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

package session

import (
	"strconv"

	"github.com/waydroid/waydroid/domain"
)

// sessionToMap mirrors containermgr's a{ss} session dictionary codec:
// DBus's string-only map type is the wire shape both the container
// manager and the session manager marshal Session through.
func sessionToMap(s domain.Session) map[string]string {
	return map[string]string{
		"user_name":        s.UserName,
		"user_id":          strconv.FormatUint(uint64(s.UID), 10),
		"group_id":         strconv.FormatUint(uint64(s.GID), 10),
		"host_user":        s.HostHome,
		"pid":              strconv.Itoa(s.PID),
		"xdg_data_home":    s.XdgDataHome,
		"xdg_runtime_dir":  s.XdgRuntimeDir,
		"wayland_display":  s.WaylandDisplay,
		"pulse_runtime_dir": s.PulseRuntimeDir,
		"waydroid_data":    s.WaydroidData,
		"lcd_density":      strconv.Itoa(s.LcdDensity),
		"background_start": strconv.FormatBool(s.BackgroundStart),
		"state":            string(s.State),
	}
}
