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
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/waydroid/waydroid/domain"
)

const (
	containerBusName    = "id.waydro.Container"
	containerInterface  = "id.waydro.ContainerManager"
	containerObjectPath = dbus.ObjectPath("/ContainerManager")
)

// ContainerClient is a thin DBus client for the system-bus
// id.waydro.ContainerManager object, the counterpart of
// session_manager.py's tools.helpers.ipc.DBusContainerService().
type ContainerClient struct {
	obj dbus.BusObject
}

// NewContainerClient binds to the container manager object on conn
// (expected to be the system bus).
func NewContainerClient(conn *dbus.Conn) *ContainerClient {
	return &ContainerClient{obj: conn.Object(containerBusName, containerObjectPath)}
}

// Start requests C6 start the container with the given session
// descriptor.
func (c *ContainerClient) Start(s domain.Session) error {
	call := c.obj.Call(containerInterface+".Start", 0, sessionToMap(s))
	if call.Err != nil {
		return fmt.Errorf("session: container manager Start: %w", call.Err)
	}
	return nil
}

// Stop requests C6 stop the container, optionally quitting the owning
// session too.
func (c *ContainerClient) Stop(quitSession bool) error {
	call := c.obj.Call(containerInterface+".Stop", 0, quitSession)
	if call.Err != nil {
		return fmt.Errorf("session: container manager Stop: %w", call.Err)
	}
	return nil
}
