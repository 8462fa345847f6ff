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

// Package containermgr implements the C6 container manager: it owns the
// container state machine and is the only component that mutates shared
// filesystem/device state, matching
// original_source/tools/actions/container_manager.py's do_start/stop.
package containermgr

import (
	"fmt"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/waydroid/waydroid/domain"
	"github.com/waydroid/waydroid/waydroiderr"
)

// Manager owns the container lifecycle: at most one tracked session, the
// rollback stack of mounts performed during the in-flight Start, and the
// wired C1-C5 service handles.
type Manager struct {
	mu sync.Mutex

	lxc      domain.LxcDriverIface
	mountSvc domain.MountServiceIface
	driver   domain.DriverServiceIface
	cfgStore domain.ConfigStoreIface

	workDir string
	log     *logrus.Entry

	session       *domain.Session
	mounts        []domain.Mount

	netlink NetworkLinker
}

var _ domain.ContainerManagerIface = (*Manager)(nil)

// New constructs a Manager. workDir is the on-disk work directory
// (<work>/ in spec.md §6).
func New(workDir string) *Manager {
	return &Manager{
		workDir: workDir,
		log:     logrus.WithField("component", "containermgr"),
		netlink: realLinker{},
	}
}

// Setup wires the C1-C5 service handles the manager mediates access to,
// matching the teacher's Setup(deps...) wiring style
// (cmd/sysbox-fs/main.go).
func (m *Manager) Setup(lxc domain.LxcDriverIface, mountSvc domain.MountServiceIface, driver domain.DriverServiceIface, cfgStore domain.ConfigStoreIface) {
	m.lxc = lxc
	m.mountSvc = mountSvc
	m.driver = driver
	m.cfgStore = cfgStore
}

// Start validates the caller identity, selects the binder nodes, applies
// device permissions, ensures the network bridge, bind-mounts the
// session's data dir when it is not mounted yet, and starts the
// container. It does not write a session mount file or mount the system
// and vendor images. If the bind or the container start fails, the
// mounts made so far are rolled back.
func (m *Manager) Start(s domain.Session, callerUID uint32, callerPID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return fmt.Errorf("containermgr: %w", waydroiderr.ErrAlreadyRunning)
	}

	if err := validateCallerIdentity(s, callerUID, callerPID); err != nil {
		return err
	}

	cfg, err := m.cfgStore.Load()
	if err != nil {
		return fmt.Errorf("containermgr: loading config: %w", err)
	}

	sel, err := m.driver.SelectBinderNodes(cfg.VendorType)
	if err != nil {
		return fmt.Errorf("containermgr: %w", err)
	}
	applyDevicePermissions(sel)

	if err := ensureBridge(m.netlink); err != nil {
		return fmt.Errorf("containermgr: %w", err)
	}

	var mounts []domain.Mount
	rollback := func() {
		m.mountSvc.RollBack(mounts)
	}

	guestData := s.WaydroidData
	hostData := dataBindTarget(m.workDir)
	if bound, err := m.mountSvc.IsMounted(hostData); err == nil && !bound {
		mt, err := m.mountSvc.Bind(guestData, hostData)
		if err != nil {
			rollback()
			return fmt.Errorf("containermgr: binding legacy data dir: %w", err)
		}
		mounts = append(mounts, mt)
	}

	if err := m.lxc.Start(); err != nil {
		rollback()
		return fmt.Errorf("containermgr: starting container: %w", err)
	}

	sess := s
	sess.State = domain.StateRunning
	m.session = &sess
	m.mounts = mounts

	m.log.WithField("user", s.UserName).Info("container session started")
	return nil
}

// Stop idempotently stops the container, tears down its mounts, and
// optionally signals the session-owning PID so its session manager can
// tear itself down.
func (m *Manager) Stop(quitSession bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if status := m.lxc.Status(); status != domain.StateStopped {
		if err := m.lxc.Stop(); err != nil {
			m.log.WithError(err).Warn("stop did not complete cleanly")
		}
	}

	m.mountSvc.RollBack(m.mounts)
	m.mounts = nil

	if m.session != nil && quitSession {
		if m.session.PID > 0 {
			if err := syscall.Kill(m.session.PID, syscall.SIGUSR1); err != nil {
				m.log.WithError(err).Debug("signaling session owner failed")
			}
		}
	}
	m.session = nil

	return nil
}

// Freeze transitions the container to FROZEN, waiting for the transition
// to take effect.
func (m *Manager) Freeze() error {
	if m.lxc.Status() != domain.StateRunning {
		return fmt.Errorf("containermgr: cannot freeze from non-running state")
	}
	return m.lxc.Freeze()
}

// Unfreeze transitions the container back to RUNNING.
func (m *Manager) Unfreeze() error {
	if m.lxc.Status() != domain.StateFrozen {
		return fmt.Errorf("containermgr: cannot unfreeze from non-frozen state")
	}
	return m.lxc.Unfreeze()
}

// GetSession returns the tracked session with its current live state, or
// ok=false when no session is tracked.
func (m *Manager) GetSession() (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return domain.Session{}, false
	}
	sess := *m.session
	sess.State = m.lxc.Status()
	return sess, true
}

func validateCallerIdentity(s domain.Session, callerUID uint32, callerPID int) error {
	if callerUID == 0 {
		return nil
	}
	if callerUID != s.UID {
		return fmt.Errorf("containermgr: %w: uid %d requested session for uid %d", waydroiderr.ErrSessionMismatch, callerUID, s.UID)
	}
	if s.PID != 0 && callerPID != s.PID {
		return fmt.Errorf("containermgr: %w: pid %d does not match session pid %d", waydroiderr.ErrSessionMismatch, callerPID, s.PID)
	}
	return nil
}

// dataBindTarget is the legacy Android /data bind target under the work
// directory, matching spec.md §6's on-disk layout ("data/ legacy bind
// target for Android /data").
func dataBindTarget(workDir string) string {
	return workDir + "/data"
}

// applyDevicePermissions chmods the three binder nodes to 0666 and the
// curated GPU/codec allowlist to 0777 recursively where present, matching
// container_manager.py's set_permissions.
func applyDevicePermissions(sel domain.DriverSelection) {
	for _, node := range []string{sel.BinderNode, sel.VndBinderNode, sel.HwBinderNode} {
		chmodIfExists("/dev/"+node, 0666)
	}
	for _, path := range gpuCodecAllowlist() {
		chmodRecursiveIfExists(path, 0777)
	}
}
