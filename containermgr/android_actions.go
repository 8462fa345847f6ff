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
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/waydroid/waydroid/domain"
)

// androidAttach runs cmd inside the Android container via lxc-attach,
// returning its trimmed stdout. Every action in this file is a no-op
// (matching container_manager.py's "status == RUNNING" guards) unless
// the container is currently running.
func (m *Manager) androidAttach(cmd ...string) (string, error) {
	if m.lxc.Status() != domain.StateRunning {
		return "", nil
	}
	out, err := m.lxc.Attach(domain.AttachOptions{Command: cmd})
	return strings.TrimSpace(string(out)), err
}

// Screen toggles the Android display power state via the input keyevent
// for KEYCODE_POWER.
func (m *Manager) Screen() error {
	_, err := m.androidAttach("input", "keyevent", "26")
	return err
}

// IsAsleep reports whether the Android display is currently off.
func (m *Manager) IsAsleep() (bool, error) {
	out, err := m.androidAttach("dumpsys", "power")
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "mWakefulness=Asleep"), nil
}

// InstallBaseApk installs the bundled WayDroid helper APK shipped under
// the work directory's images tree.
func (m *Manager) InstallBaseApk(apkPath string) error {
	_, err := m.androidAttach("pm", "install", "-r", "-g", apkPath)
	return err
}

// RemoveApp uninstalls packageName.
func (m *Manager) RemoveApp(packageName string) error {
	_, err := m.androidAttach("pm", "uninstall", packageName)
	return err
}

// ClearAppData clears packageName's data and cache.
func (m *Manager) ClearAppData(packageName string) error {
	_, err := m.androidAttach("pm", "clear", packageName)
	return err
}

// KillApp force-stops packageName.
func (m *Manager) KillApp(packageName string) error {
	_, err := m.androidAttach("am", "force-stop", packageName)
	return err
}

// KillPid sends SIGKILL to pid inside the container's PID namespace.
func (m *Manager) KillPid(pid int) error {
	_, err := m.androidAttach("kill", "-9", strconv.Itoa(pid))
	return err
}

// Setprop sets an Android system property.
func (m *Manager) Setprop(name, value string) error {
	_, err := m.androidAttach("setprop", name, value)
	return err
}

// Getprop reads an Android system property.
func (m *Manager) Getprop(name string) (string, error) {
	return m.androidAttach("getprop", name)
}

// WatchProp blocks until propname changes via the Android property
// service's watch facility, matching container_manager.py's WatchProp
// (there dispatched to a worker thread so the DBus loop is not blocked;
// here the caller is expected to run this off the DBus dispatch
// goroutine for the same reason).
func (m *Manager) WatchProp(propname string) (string, error) {
	return m.androidAttach("watchprops", propname)
}

// NfcToggle flips the Android-side NFC adapter on/off.
func (m *Manager) NfcToggle() error {
	_, err := m.androidAttach("svc", "nfc", "toggle")
	return err
}

// GetNfcStatus reports whether the Android-side NFC adapter is enabled.
func (m *Manager) GetNfcStatus() (bool, error) {
	out, err := m.androidAttach("dumpsys", "nfc")
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "mState=on"), nil
}

// ForceFinishSetup marks Android's first-boot setup wizard complete.
func (m *Manager) ForceFinishSetup() error {
	_, err := m.androidAttach("settings", "put", "secure", "user_setup_complete", "1")
	return err
}

// MountSharedFolder bind-mounts the session's Host folder from the
// Android data partition into the host user's home directory, matching
// container_manager.py's MountSharedFolder.
func (m *Manager) MountSharedFolder() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return fmt.Errorf("containermgr: no tracked session")
	}

	guestDir := m.session.WaydroidData + "/media/0/Host"
	hostDir := m.session.HostHome + "/Android"

	if _, err := m.mountSvc.Bind(guestDir, hostDir); err != nil {
		return fmt.Errorf("containermgr: mounting shared folder: %w", err)
	}
	chmodRecursiveIfExists(hostDir, 0777)
	return nil
}

// UnmountSharedFolder reverses MountSharedFolder.
func (m *Manager) UnmountSharedFolder() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return fmt.Errorf("containermgr: no tracked session")
	}
	hostDir := m.session.HostHome + "/Android"

	mounted, err := m.mountSvc.IsMounted(hostDir)
	if err != nil || !mounted {
		return err
	}
	if err := m.mountSvc.UmountAll(hostDir); err != nil {
		return fmt.Errorf("containermgr: unmounting shared folder: %w", err)
	}
	return os.Remove(hostDir)
}
