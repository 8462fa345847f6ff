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

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/waydroid/waydroid/waydroiderr"
)

const (
	// BusName is the well-known name reserving the container manager on
	// the system bus, matching container_manager.py's
	// "id.waydro.Container" instance lock plus the object's own
	// "id.waydro.ContainerManager" interface.
	BusName      = "id.waydro.Container"
	InterfaceName = "id.waydro.ContainerManager"
	ObjectPath    = dbus.ObjectPath("/ContainerManager")
)

// DbusObject exposes Manager's method surface on the system bus,
// matching spec.md §4.6's table and container_manager.py's
// DbusContainerManager.
type DbusObject struct {
	mgr  *Manager
	conn *dbus.Conn
	log  *logrus.Entry
}

// Export claims BusName and registers obj's methods at ObjectPath on
// conn. Returns ErrAlreadyRunning if the name is already held.
func Export(conn *dbus.Conn, mgr *Manager) (*DbusObject, error) {
	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, waydroiderr.ErrAlreadyRunning
	}

	obj := &DbusObject{mgr: mgr, conn: conn, log: logrus.WithField("component", "containermgr-dbus")}
	if err := conn.Export(obj, ObjectPath, InterfaceName); err != nil {
		return nil, err
	}
	return obj, nil
}

// callerUnixUser resolves sender's effective UID via the bus daemon,
// matching container_manager.py's Start using
// org.freedesktop.DBus.GetConnectionUnixUser.
func (o *DbusObject) callerUnixUser(sender dbus.Sender) (uint32, error) {
	var uid uint32
	err := o.conn.BusObject().Call("org.freedesktop.DBus.GetConnectionUnixUser", 0, string(sender)).Store(&uid)
	return uid, err
}

func (o *DbusObject) callerUnixProcessID(sender dbus.Sender) (int, error) {
	var pid uint32
	err := o.conn.BusObject().Call("org.freedesktop.DBus.GetConnectionUnixProcessID", 0, string(sender)).Store(&pid)
	return int(pid), err
}

// Start implements id.waydro.ContainerManager.Start(a{ss}).
func (o *DbusObject) Start(session map[string]string, sender dbus.Sender) *dbus.Error {
	uid, err := o.callerUnixUser(sender)
	if err != nil {
		return dbus.MakeFailedError(err)
	}
	pid, err := o.callerUnixProcessID(sender)
	if err != nil {
		return dbus.MakeFailedError(err)
	}

	s := mapToSession(session)
	if err := o.mgr.Start(s, uid, pid); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Stop implements id.waydro.ContainerManager.Stop(b).
func (o *DbusObject) Stop(quitSession bool) *dbus.Error {
	if err := o.mgr.Stop(quitSession); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Freeze implements id.waydro.ContainerManager.Freeze().
func (o *DbusObject) Freeze() *dbus.Error {
	if err := o.mgr.Freeze(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Unfreeze implements id.waydro.ContainerManager.Unfreeze().
func (o *DbusObject) Unfreeze() *dbus.Error {
	if err := o.mgr.Unfreeze(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// GetSession implements id.waydro.ContainerManager.GetSession() returning
// a{ss}, empty when no session is tracked.
func (o *DbusObject) GetSession() (map[string]string, *dbus.Error) {
	s, ok := o.mgr.GetSession()
	if !ok {
		return map[string]string{}, nil
	}
	return sessionToMap(s), nil
}

func (o *DbusObject) Screen() *dbus.Error {
	if err := o.mgr.Screen(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (o *DbusObject) IsAsleep() (bool, *dbus.Error) {
	asleep, err := o.mgr.IsAsleep()
	if err != nil {
		return false, dbus.MakeFailedError(err)
	}
	return asleep, nil
}

func (o *DbusObject) InstallBaseApk(apkPath string) *dbus.Error {
	if err := o.mgr.InstallBaseApk(apkPath); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (o *DbusObject) RemoveApp(packageName string) *dbus.Error {
	if err := o.mgr.RemoveApp(packageName); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (o *DbusObject) ClearAppData(packageName string) *dbus.Error {
	if err := o.mgr.ClearAppData(packageName); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (o *DbusObject) KillApp(packageName string) *dbus.Error {
	if err := o.mgr.KillApp(packageName); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (o *DbusObject) KillPid(pid string) *dbus.Error {
	n, err := strconv.Atoi(pid)
	if err != nil {
		return dbus.MakeFailedError(err)
	}
	if err := o.mgr.KillPid(n); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (o *DbusObject) Setprop(name, value string) *dbus.Error {
	if err := o.mgr.Setprop(name, value); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (o *DbusObject) Getprop(name string) (string, *dbus.Error) {
	v, err := o.mgr.Getprop(name)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return v, nil
}

// WatchProp calls mgr.WatchProp, waits for it to return, and replies with
// its value. It starts no goroutine of its own and sends no asynchronous
// reply.
func (o *DbusObject) WatchProp(name string) (string, *dbus.Error) {
	v, err := o.mgr.WatchProp(name)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return v, nil
}

func (o *DbusObject) MountSharedFolder() *dbus.Error {
	if err := o.mgr.MountSharedFolder(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (o *DbusObject) UnmountSharedFolder() *dbus.Error {
	if err := o.mgr.UnmountSharedFolder(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (o *DbusObject) NfcToggle() *dbus.Error {
	if err := o.mgr.NfcToggle(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (o *DbusObject) GetNfcStatus() (bool, *dbus.Error) {
	on, err := o.mgr.GetNfcStatus()
	if err != nil {
		return false, dbus.MakeFailedError(err)
	}
	return on, nil
}

func (o *DbusObject) ForceFinishSetup() *dbus.Error {
	if err := o.mgr.ForceFinishSetup(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}
