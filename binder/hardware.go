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
	hardwareInterface = "lineageos.waydroid.IHardware"

	txEnableNFC       uint32 = 1
	txEnableBluetooth uint32 = 2
	txSuspend         uint32 = 3
	txReboot          uint32 = 4
	txUpgrade         uint32 = 5
	txUpgrade2        uint32 = 6
)

// Hardware hosts lineageos.waydroid.IHardware, the surface Android uses to
// ask the host to toggle radios, suspend/reboot the session, or trigger an
// OTA upgrade.
type Hardware struct {
	*Server

	EnableNFC       func(enable bool) int32
	EnableBluetooth func(enable bool) int32
	Suspend         func()
	Reboot          func()
	Upgrade         func(systemChannel string, systemType string)
}

// NewHardware wires a Hardware server over c.
func NewHardware(c *Client) *Hardware {
	hw := &Hardware{Server: NewServer(c, hardwareInterface)}

	hw.On(txEnableNFC, func(data []byte) ([]byte, error) {
		r := NewReader(data)
		arg, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		var ret int32
		if hw.EnableNFC != nil {
			ret = hw.EnableNFC(arg != 0)
		}
		w := NewWriter()
		w.WriteInt32(0)
		w.WriteInt32(ret)
		return w.Bytes(), nil
	})

	hw.On(txEnableBluetooth, func(data []byte) ([]byte, error) {
		r := NewReader(data)
		arg, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		var ret int32
		if hw.EnableBluetooth != nil {
			ret = hw.EnableBluetooth(arg != 0)
		}
		w := NewWriter()
		w.WriteInt32(0)
		w.WriteInt32(ret)
		return w.Bytes(), nil
	})

	hw.On(txSuspend, func(data []byte) ([]byte, error) {
		if hw.Suspend != nil {
			hw.Suspend()
		}
		w := NewWriter()
		w.WriteInt32(0)
		return w.Bytes(), nil
	})

	hw.On(txReboot, func(data []byte) ([]byte, error) {
		if hw.Reboot != nil {
			hw.Reboot()
		}
		w := NewWriter()
		w.WriteInt32(0)
		return w.Bytes(), nil
	})

	upgradeHandler := func(data []byte) ([]byte, error) {
		r := NewReader(data)
		systemChannel, _, err := r.ReadString16()
		if err != nil {
			return nil, err
		}
		if _, err := r.ReadInt32(); err != nil {
			return nil, err
		}
		systemType, _, err := r.ReadString16()
		if err != nil {
			return nil, err
		}
		if hw.Upgrade != nil {
			hw.Upgrade(systemChannel, systemType)
		}
		w := NewWriter()
		w.WriteInt32(0)
		return w.Bytes(), nil
	}
	hw.On(txUpgrade, upgradeHandler)
	hw.On(txUpgrade2, upgradeHandler)

	return hw
}
