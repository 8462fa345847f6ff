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

package binder

const (
	userMonitorInterface = "lineageos.waydroid.IUserMonitor"

	txUserUnlocked          uint32 = 1
	txPackageStateChanged   uint32 = 2
)

// Package state change kinds reported by packageStateChanged, matching
// Android's PACKAGE_ADDED/REMOVED/UPDATED constants.
const (
	PackageAdded = iota
	PackageRemoved
	PackageUpdated
)

// UserMonitor hosts lineageos.waydroid.IUserMonitor, notifying the host
// side when the Android user unlocks or an app's install state changes.
type UserMonitor struct {
	*Server

	UserUnlocked        func(userID int32)
	PackageStateChanged func(userID int32, packageName string, state int32)
}

// NewUserMonitor wires a UserMonitor server over c.
func NewUserMonitor(c *Client) *UserMonitor {
	um := &UserMonitor{Server: NewServer(c, userMonitorInterface)}

	um.On(txUserUnlocked, func(data []byte) ([]byte, error) {
		r := NewReader(data)
		userID, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		if um.UserUnlocked != nil {
			um.UserUnlocked(userID)
		}
		w := NewWriter()
		w.WriteInt32(0)
		return w.Bytes(), nil
	})

	um.On(txPackageStateChanged, func(data []byte) ([]byte, error) {
		r := NewReader(data)
		userID, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		packageName, _, err := r.ReadString16()
		if err != nil {
			return nil, err
		}
		state, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		if um.PackageStateChanged != nil {
			um.PackageStateChanged(userID, packageName, state)
		}
		w := NewWriter()
		w.WriteInt32(0)
		return w.Bytes(), nil
	})

	return um
}
