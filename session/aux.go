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
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/waydroid/waydroid/binder"
	"github.com/waydroid/waydroid/domain"
)

// AuxServices owns the four background services session_manager.py
// starts after Start(session) succeeds: the user monitor (desktop-file
// sync), clipboard bridge, notification forwarder, and GNSS relay. The
// first three are binder.Server-backed goroutines, each re-registering
// with the service manager on its own; the GNSS relay is a DBus-signal
// loop that sets properties through the platform client.
type AuxServices struct {
	userMonitor   *binder.UserMonitor
	clipboard     *binder.Clipboard
	notifications *binder.Notifications
	gnss          *GnssService

	log *logrus.Entry
}

// AuxDeps bundles the wiring AuxServices needs, keeping NewAuxServices'
// signature from growing with every auxiliary service.
type AuxDeps struct {
	BinderClient *binder.Client
	Platform     *binder.PlatformClient
	Session      domain.Session
	Forwarder    *NotificationForwarder
	Gnss         *GnssService
	UnlockedCB   func()
}

// NewAuxServices wires the user-monitor, clipboard, and notification
// binder servers and attaches their host-side handlers.
func NewAuxServices(deps AuxDeps) (*AuxServices, error) {
	a := &AuxServices{
		userMonitor:   binder.NewUserMonitor(deps.BinderClient),
		clipboard:     binder.NewClipboard(deps.BinderClient),
		notifications: binder.NewNotifications(deps.BinderClient),
		gnss:          deps.Gnss,
		log:           logrus.WithField("component", "session-aux"),
	}

	clip, err := NewWaylandClipboardHandler()
	if err != nil {
		a.log.WithError(err).Debug("clipboard service unavailable")
	} else {
		a.clipboard.Send = clip.Copy
		a.clipboard.Get = clip.Paste
	}

	if deps.Forwarder != nil {
		if err := deps.Forwarder.Wire(a.notifications); err != nil {
			a.log.WithError(err).Warn("wiring notification forwarder failed")
		}
	}

	apps := newDesktopFileWriter(
		filepath.Join(deps.Session.XdgDataHome, "applications"),
		deps.Session.WaydroidData,
		deps.Session.HostHome,
	)

	a.userMonitor.UserUnlocked = func(userID int32) {
		a.log.WithField("uid", userID).Info("Android user is ready")

		if err := os.MkdirAll(apps.appsDir, 0700); err != nil {
			a.log.WithError(err).Warn("creating apps dir failed")
		}

		ctx := context.Background()
		list, err := deps.Platform.GetAppsInfo(ctx)
		if err == nil {
			for _, app := range list {
				apps.makeDesktopFile(app)
			}
			multiwin, _ := deps.Platform.Getprop(ctx, "persist.waydroid.multi_windows", "false")
			_ = apps.makeWaydroidDesktopFile(multiwin != "false")
		}

		if deps.UnlockedCB != nil {
			deps.UnlockedCB()
		}
	}

	a.userMonitor.PackageStateChanged = func(userID int32, packageName string, state int32) {
		_ = apps.makeMenuFiles()

		ctx := context.Background()
		appInfo, err := deps.Platform.GetAppInfo(ctx, packageName)
		switch {
		case state == binder.PackageAdded && err == nil && appInfo != nil:
			apps.makeDesktopFile(*appInfo)
		case state == binder.PackageRemoved:
			apps.removeDesktopFile(packageName)
		default:
			if err == nil && appInfo != nil && !apps.makeDesktopFile(*appInfo) {
				apps.removeDesktopFile(packageName)
			}
		}
	}

	return a, nil
}

// Start registers every auxiliary binder server and, if configured,
// starts the GNSS relay loop. Each runs on its own goroutine.
func (a *AuxServices) Start(ctx context.Context) error {
	if err := a.userMonitor.Register(ctx); err != nil {
		return err
	}
	if err := a.clipboard.Register(ctx); err != nil {
		return err
	}
	if err := a.notifications.Register(ctx); err != nil {
		return err
	}
	if a.gnss != nil {
		go func() {
			if err := a.gnss.Start(ctx); err != nil {
				a.log.WithError(err).Warn("gnss service stopped")
			}
		}()
	}
	return nil
}
