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
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/waydroid/waydroid/binder"
	"github.com/waydroid/waydroid/waydroiderr"
)

// Manager owns the session lifecycle in the host user's context:
// claiming the session-bus name, building the session descriptor,
// starting the container, and running the auxiliary services, matching
// session_manager.py's start()/do_stop().
type Manager struct {
	mu sync.Mutex

	sessionBus *dbus.Conn
	systemBus  *dbus.Conn

	container *ContainerClient
	aux       *AuxServices
	cancelAux context.CancelFunc

	idleTimeout time.Duration
	idleTimer   *time.Timer
	onIdle      func()

	log *logrus.Entry
}

// New constructs a Manager bound to the given session and system bus
// connections.
func New(sessionBus, systemBus *dbus.Conn) *Manager {
	return &Manager{
		sessionBus: sessionBus,
		systemBus:  systemBus,
		container:  NewContainerClient(systemBus),
		log:        logrus.WithField("component", "session"),
	}
}

// SetIdleTimeout arms an inactivity timer: if no serviced DBus call
// resets it within d, onIdle runs, matching spec.md §4.7's optional
// idle-shutdown mechanism. d<=0 disables the timer.
func (m *Manager) SetIdleTimeout(d time.Duration, onIdle func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idleTimeout = d
	m.onIdle = onIdle
	if d > 0 && m.idleTimer == nil {
		m.idleTimer = time.AfterFunc(d, func() {
			if m.onIdle != nil {
				m.onIdle()
			}
		})
	}
}

// touch resets the idle timer; every exported DBus method calls this,
// matching the "reset by any serviced request" requirement.
func (m *Manager) touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idleTimeout <= 0 {
		return
	}
	if m.idleTimer == nil {
		m.idleTimer = time.AfterFunc(m.idleTimeout, func() {
			if m.onIdle != nil {
				m.onIdle()
			}
		})
		return
	}
	m.idleTimer.Reset(m.idleTimeout)
}

// StartOpts are the runtime knobs Start needs beyond the session
// descriptor itself.
type StartOpts struct {
	Background       bool
	UnlockedCB       func()
	BinderClient     *binder.Client
	Platform         *binder.PlatformClient
	LocationProvider LocationProvider
	DpiFromProp      string
}

// Start runs the six-step sequence from spec.md §4.7: claim the
// session-bus name, build the descriptor, ensure the data dir, call C6's
// Start synchronously, then launch the auxiliary services. Signal
// handling (step 4) is the caller's responsibility: wire SIGINT/SIGTERM
// to Stop and SIGUSR1 to TeardownAux, matching session_manager.py's
// sigint_handler/sigusr_handler.
func (m *Manager) Start(ctx context.Context, opts StartOpts) error {
	reply, err := m.sessionBus.RequestName(SessionBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("session: claiming %s: %w", SessionBusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		m.log.Error("Session is already running")
		if opts.UnlockedCB != nil {
			opts.UnlockedCB()
		}
		return fmt.Errorf("session: %w", waydroiderr.ErrAlreadyRunning)
	}

	desc, err := BuildSessionDescriptor(DefaultEnv, opts.DpiFromProp)
	if err != nil {
		return err
	}
	desc.BackgroundStart = opts.Background

	if err := os.MkdirAll(desc.WaydroidData, 0755); err != nil {
		return fmt.Errorf("session: creating waydroid data dir: %w", err)
	}

	if err := m.container.Start(desc); err != nil {
		m.log.WithError(err).Error("WayDroid container is not listening")
		return err
	}

	var forwarder *NotificationForwarder
	var gnss *GnssService
	if opts.Platform != nil {
		forwarder = NewNotificationForwarder(m.sessionBus, desc.WaydroidData, opts.Platform)
		if opts.LocationProvider != nil {
			gnss = NewGnssService(m.systemBus, opts.LocationProvider, opts.Platform)
		}
	}

	if opts.BinderClient != nil {
		aux, err := NewAuxServices(AuxDeps{
			BinderClient: opts.BinderClient,
			Platform:     opts.Platform,
			Session:      desc,
			Forwarder:    forwarder,
			Gnss:         gnss,
			UnlockedCB:   opts.UnlockedCB,
		})
		if err != nil {
			return fmt.Errorf("session: wiring auxiliary services: %w", err)
		}

		auxCtx, cancel := context.WithCancel(ctx)
		m.cancelAux = cancel
		if err := aux.Start(auxCtx); err != nil {
			cancel()
			return fmt.Errorf("session: starting auxiliary services: %w", err)
		}
		m.aux = aux
	}

	m.log.WithField("user", desc.UserName).Info("session started")
	return nil
}

// Stop tears down the auxiliary services and asks C6 to stop the
// container, matching do_stop/stop_container.
func (m *Manager) Stop() error {
	m.TeardownAux()

	if err := m.container.Stop(true); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

// TeardownAux stops the auxiliary services without touching the
// container, matching session_manager.py's sigusr_handler: C6 already
// initiated the stop, so the session side only needs to tear down its
// own threads.
func (m *Manager) TeardownAux() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancelAux != nil {
		m.cancelAux()
		m.cancelAux = nil
	}
	if m.idleTimer != nil {
		m.idleTimer.Stop()
	}
}
