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
	"github.com/sirupsen/logrus"
)

const (
	// SessionBusName is the well-known name claimed on the session bus,
	// matching session_manager.py's "id.waydro.Session".
	SessionBusName = "id.waydro.Session"

	sessionInterface  = "id.waydro.SessionManager"
	sessionObjectPath = dbus.ObjectPath("/SessionManager")
)

// DbusObject exposes Manager.Stop on the session bus, matching
// DbusSessionManager.
type DbusObject struct {
	mgr *Manager
	log *logrus.Entry
}

// ExportObject registers obj's methods at /SessionManager on the
// session bus. Unlike the container manager, the session manager's bus
// name is already claimed by Start (RequestName happens first, per
// session_manager.py's start()); ExportObject only wires the method
// dispatch.
func ExportObject(conn *dbus.Conn, mgr *Manager) (*DbusObject, error) {
	obj := &DbusObject{mgr: mgr, log: logrus.WithField("component", "session-dbus")}
	if err := conn.Export(obj, sessionObjectPath, sessionInterface); err != nil {
		return nil, err
	}
	return obj, nil
}

// Stop implements id.waydro.SessionManager.Stop(), matching
// DbusSessionManager.Stop: tear down the auxiliary services and the
// container, then let the caller exit the process.
func (o *DbusObject) Stop() *dbus.Error {
	o.mgr.touch()
	if err := o.mgr.Stop(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}
