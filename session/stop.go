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
	"github.com/godbus/dbus/v5"
)

// Stop is the client-side helper a CLI invokes to end a running session:
// it first asks the session manager to stop gracefully over the session
// bus, falling back to stopping the container directly when the session
// manager is unreachable, matching session_manager.py's module-level
// stop()/stop_container().
func Stop(sessionBus, systemBus *dbus.Conn) error {
	obj := sessionBus.Object(SessionBusName, sessionObjectPath)
	call := obj.Call(sessionInterface+".Stop", 0)
	if call.Err == nil {
		return nil
	}
	return NewContainerClient(systemBus).Stop(true)
}
