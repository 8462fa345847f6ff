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

import (
	"context"

	"github.com/waydroid/waydroid/domain"
)

const (
	notificationsInterface = "lineageos.waydroid.INotifications"
	notificationCallbackInterface = "lineageos.waydroid.INotifications.INotificationCallback"

	txRegisterListener   uint32 = 1
	txNotify             uint32 = 2
	txCloseNotification  uint32 = 3

	txOnActionInvoked uint32 = 1

	nullParcelableFlag int32 = 0
)

// Urgency mirrors the freedesktop notification urgency levels Android
// forwards through notify.
type Urgency int32

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// NotificationAction is one button on a forwarded notification.
type NotificationAction struct {
	ID    string
	Label string
}

// NotificationImage is the optional icon payload attached to a
// notification.
type NotificationImage struct {
	Width     int32
	Height    int32
	Rowstride int32
	HasAlpha  bool
	Data      []byte
}

// Notification is the full parcel notify() decodes, matching
// org.freedesktop.Notifications' argument set as relayed by Android.
type Notification struct {
	ReplacesID     int32
	AppName        string
	PackageName    string
	Summary        string
	Body           string
	Actions        []NotificationAction
	Image          *NotificationImage
	Category       string
	SuppressSound  bool
	ExpireTimeout  int32
	Resident       bool
	Transient      bool
	Urgency        Urgency
}

// NotificationCallback calls back into Android when a forwarded
// notification's action is invoked, matching INotificationCallback.
type NotificationCallback struct {
	client *Client
	handle domain.BinderHandle
}

// OnActionInvoked notifies Android that action actionID on notificationID
// was invoked by the user.
func (cb *NotificationCallback) OnActionInvoked(ctx context.Context, notificationID int32, actionID, xdgActivationToken string) error {
	w := NewWriter()
	w.WriteInt32(notificationID)
	w.WriteString16(actionID)
	w.WriteString16(xdgActivationToken)

	_, err := cb.client.Call(ctx, cb.handle, txOnActionInvoked, w.Bytes())
	return err
}

// Notifications hosts lineageos.waydroid.INotifications, relaying
// freedesktop notifications surfaced by Android apps to the host desktop.
type Notifications struct {
	*Server

	RegisterListener   func(cb *NotificationCallback)
	Notify             func(n Notification) int32
	CloseNotification  func(id int32)
}

// NewNotifications wires a Notifications server over c.
func NewNotifications(c *Client) *Notifications {
	n := &Notifications{Server: NewServer(c, notificationsInterface)}

	n.On(txRegisterListener, func(data []byte) ([]byte, error) {
		r := NewReader(data)
		handle, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		if n.RegisterListener != nil {
			n.RegisterListener(&NotificationCallback{client: c, handle: domain.BinderHandle(handle)})
		}
		w := NewWriter()
		w.WriteInt32(0)
		return w.Bytes(), nil
	})

	n.On(txNotify, func(data []byte) ([]byte, error) {
		notif, err := decodeNotification(data)
		if err != nil {
			return nil, err
		}
		var id int32
		if n.Notify != nil {
			id = n.Notify(notif)
		}
		w := NewWriter()
		w.WriteInt32(0)
		w.WriteInt32(id)
		return w.Bytes(), nil
	})

	n.On(txCloseNotification, func(data []byte) ([]byte, error) {
		r := NewReader(data)
		id, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		if n.CloseNotification != nil {
			n.CloseNotification(id)
		}
		w := NewWriter()
		w.WriteInt32(0)
		return w.Bytes(), nil
	})

	return n
}

func decodeNotification(data []byte) (Notification, error) {
	var notif Notification
	r := NewReader(data)

	var err error
	if notif.ReplacesID, err = r.ReadInt32(); err != nil {
		return notif, err
	}
	if notif.AppName, _, err = r.ReadString16(); err != nil {
		return notif, err
	}
	if notif.PackageName, _, err = r.ReadString16(); err != nil {
		return notif, err
	}
	if notif.Summary, _, err = r.ReadString16(); err != nil {
		return notif, err
	}
	if notif.Body, _, err = r.ReadString16(); err != nil {
		return notif, err
	}

	actionsLen, err := r.ReadInt32()
	if err != nil {
		return notif, err
	}
	for i := int32(0); i < actionsLen; i++ {
		flag, err := r.ReadInt32()
		if err != nil {
			return notif, err
		}
		if flag == nullParcelableFlag {
			continue
		}
		if _, err := r.ReadInt32(); err != nil { // parcel size
			return notif, err
		}
		id, _, err := r.ReadString16()
		if err != nil {
			return notif, err
		}
		label, _, err := r.ReadString16()
		if err != nil {
			return notif, err
		}
		notif.Actions = append(notif.Actions, NotificationAction{ID: id, Label: label})
	}

	imgFlag, err := r.ReadInt32()
	if err != nil {
		return notif, err
	}
	if imgFlag != nullParcelableFlag {
		if _, err := r.ReadInt32(); err != nil { // parcel size
			return notif, err
		}
		img := &NotificationImage{}
		if img.Width, err = r.ReadInt32(); err != nil {
			return notif, err
		}
		if img.Height, err = r.ReadInt32(); err != nil {
			return notif, err
		}
		if img.Rowstride, err = r.ReadInt32(); err != nil {
			return notif, err
		}
		hasAlpha, err := r.ReadInt32()
		if err != nil {
			return notif, err
		}
		img.HasAlpha = hasAlpha != 0
		if img.Data, err = r.ReadByteArray(); err != nil {
			return notif, err
		}
		notif.Image = img
	}

	if notif.Category, _, err = r.ReadString16(); err != nil {
		return notif, err
	}
	suppressSound, err := r.ReadInt32()
	if err != nil {
		return notif, err
	}
	notif.SuppressSound = suppressSound != 0
	if notif.ExpireTimeout, err = r.ReadInt32(); err != nil {
		return notif, err
	}
	resident, err := r.ReadInt32()
	if err != nil {
		return notif, err
	}
	notif.Resident = resident != 0
	transient, err := r.ReadInt32()
	if err != nil {
		return notif, err
	}
	notif.Transient = transient != 0
	urgency, err := r.ReadInt32()
	if err != nil {
		return notif, err
	}
	notif.Urgency = Urgency(urgency)

	return notif, nil
}
