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
	"path/filepath"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/waydroid/waydroid/binder"
)

const (
	freedesktopNotifyBusName = "org.freedesktop.Notifications"
	freedesktopNotifyPath    = dbus.ObjectPath("/org/freedesktop/Notifications")
	freedesktopNotifyIface   = "org.freedesktop.Notifications"
)

// NotificationForwarder relays Android-side notifications posted
// through binder.Notifications onto the host freedesktop notification
// daemon, and routes the "Open" action back into the container,
// matching notification_client.py's NotificationService.
type NotificationForwarder struct {
	sessionBus   *dbus.Conn
	waydroidData string
	platform     *binder.PlatformClient
	log          *logrus.Entry

	mu       sync.Mutex
	handlers map[uint32]string // host notification id -> Android package name
}

// NewNotificationForwarder constructs a forwarder bound to sessionBus
// (the host session bus, where org.freedesktop.Notifications lives).
func NewNotificationForwarder(sessionBus *dbus.Conn, waydroidData string, platform *binder.PlatformClient) *NotificationForwarder {
	return &NotificationForwarder{
		sessionBus:   sessionBus,
		waydroidData: waydroidData,
		platform:     platform,
		log:          logrus.WithField("component", "session-notifications"),
		handlers:     make(map[uint32]string),
	}
}

// Wire attaches this forwarder's Notify/CloseNotification callbacks to n
// and subscribes to the host daemon's ActionInvoked signal.
func (f *NotificationForwarder) Wire(n *binder.Notifications) error {
	if err := f.sessionBus.AddMatchSignal(
		dbus.WithMatchObjectPath(freedesktopNotifyPath),
		dbus.WithMatchInterface(freedesktopNotifyIface),
		dbus.WithMatchMember("ActionInvoked"),
	); err != nil {
		return err
	}
	signals := make(chan *dbus.Signal, 8)
	f.sessionBus.Signal(signals)
	go f.dispatchActions(signals)

	n.Notify = f.notify
	n.CloseNotification = f.closeNotification
	return nil
}

func (f *NotificationForwarder) dispatchActions(signals chan *dbus.Signal) {
	for sig := range signals {
		if sig == nil || len(sig.Body) < 2 {
			continue
		}
		id, ok := sig.Body[0].(uint32)
		if !ok {
			continue
		}
		f.mu.Lock()
		pkg, tracked := f.handlers[id]
		delete(f.handlers, id)
		f.mu.Unlock()
		if !tracked {
			continue
		}
		if err := f.platform.LaunchApp(context.Background(), pkg); err != nil {
			f.log.WithError(err).Warn("failed to launch app from notification action")
		}
	}
}

// notify pushes n onto the host notification daemon, matching
// notify_send's title/text fallback and action/hint shape.
func (f *NotificationForwarder) notify(n binder.Notification) int32 {
	title, text := n.Summary, n.Body
	if title == "" || text == "" {
		title, text = "", n.Summary
	}

	icon := filepath.Join(f.waydroidData, "icons", n.PackageName+".png")
	urgency := byte(0)
	if n.Urgency == binder.UrgencyCritical {
		urgency = 1
	}

	obj := f.sessionBus.Object(freedesktopNotifyBusName, freedesktopNotifyPath)
	var id uint32
	err := obj.Call(freedesktopNotifyIface+".Notify", 0,
		n.AppName, uint32(n.ReplacesID), icon, title, text,
		[]string{"default", "Open", "open", "Open"},
		map[string]dbus.Variant{"urgency": dbus.MakeVariant(urgency)},
		int32(5000),
	).Store(&id)
	if err != nil {
		f.log.WithError(err).Warn("forwarding notification to host failed")
		return 0
	}

	f.mu.Lock()
	f.handlers[id] = n.PackageName
	f.mu.Unlock()

	return int32(id)
}

func (f *NotificationForwarder) closeNotification(id int32) {
	obj := f.sessionBus.Object(freedesktopNotifyBusName, freedesktopNotifyPath)
	if call := obj.Call(freedesktopNotifyIface+".CloseNotification", 0, uint32(id)); call.Err != nil {
		f.log.WithError(call.Err).Debug("closing host notification failed")
	}
}
