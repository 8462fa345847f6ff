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

package domain

// ContainerState is the lifecycle state of the managed container, as
// authoritatively reported by the LXC driver.
type ContainerState string

const (
	StateStopped ContainerState = "STOPPED"
	StateRunning ContainerState = "RUNNING"
	StateFrozen  ContainerState = "FROZEN"
)

// Session is the host-side descriptor of who is running the current
// Android session: user/group IDs, the sockets it needs handed off, and
// display knobs. Created once per user session by the session manager,
// consumed by the container manager, and destroyed when either side tears
// down.
type Session struct {
	UserName        string
	UID             uint32
	GID             uint32
	HostHome        string
	PID             int
	XdgDataHome     string
	XdgRuntimeDir   string
	WaylandDisplay  string
	PulseRuntimeDir string
	WaydroidData    string
	LcdDensity      int
	BackgroundStart bool

	// State is populated only by GetSession; it is never persisted as
	// part of the session descriptor itself.
	State ContainerState
}

// SessionServiceIface builds session descriptors from host environment
// state. Implemented by the session package.
type SessionServiceIface interface {
	BuildSession(background bool) (*Session, error)
}
