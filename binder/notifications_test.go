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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildNotifyParcel() []byte {
	w := NewWriter()
	w.WriteInt32(0) // replaces_id
	w.WriteString16("Messages")
	w.WriteString16("com.example.messages")
	w.WriteString16("New message")
	w.WriteString16("Hello there")
	w.WriteInt32(0) // no actions
	w.WriteInt32(0) // no image (null parcelable flag)
	w.WriteString16("im.received")
	w.WriteInt32(0)  // suppress sound
	w.WriteInt32(-1) // expire timeout
	w.WriteInt32(0)  // resident
	w.WriteInt32(0)  // transient
	w.WriteInt32(int32(UrgencyNormal))
	return w.Bytes()
}

func TestDecodeNotification_MinimalParcel(t *testing.T) {
	notif, err := decodeNotification(buildNotifyParcel())
	require.NoError(t, err)

	assert.Equal(t, "Messages", notif.AppName)
	assert.Equal(t, "com.example.messages", notif.PackageName)
	assert.Equal(t, "New message", notif.Summary)
	assert.Equal(t, "Hello there", notif.Body)
	assert.Empty(t, notif.Actions)
	assert.Nil(t, notif.Image)
	assert.Equal(t, "im.received", notif.Category)
	assert.Equal(t, UrgencyNormal, notif.Urgency)
}

func TestDecodeNotification_WithAction(t *testing.T) {
	w := NewWriter()
	w.WriteInt32(0)
	w.WriteString16("Messages")
	w.WriteString16("com.example.messages")
	w.WriteString16("New message")
	w.WriteString16("Hello there")
	w.WriteInt32(1) // one action
	w.WriteInt32(1) // non-null parcelable flag
	w.WriteInt32(0) // parcel size placeholder
	w.WriteString16("reply")
	w.WriteString16("Reply")
	w.WriteInt32(0) // no image
	w.WriteString16("im.received")
	w.WriteInt32(0)
	w.WriteInt32(-1)
	w.WriteInt32(0)
	w.WriteInt32(0)
	w.WriteInt32(int32(UrgencyCritical))

	notif, err := decodeNotification(w.Bytes())
	require.NoError(t, err)
	require.Len(t, notif.Actions, 1)
	assert.Equal(t, "reply", notif.Actions[0].ID)
	assert.Equal(t, "Reply", notif.Actions[0].Label)
	assert.Equal(t, UrgencyCritical, notif.Urgency)
}

func TestNewClipboard_DispatchesSendAndGet(t *testing.T) {
	fc := &fakeBinderClient{}
	cb := NewClipboard(fc.client())

	var received string
	cb.Send = func(data string) { received = data }
	cb.Get = func() string { return "clip-contents" }

	w := NewWriter()
	w.WriteString16("copied text")
	_, err := cb.Dispatch(txSendClipboardData, w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "copied text", received)

	out, err := cb.Dispatch(txGetClipboardData, nil)
	require.NoError(t, err)
	r := NewReader(out)
	status, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(0), status)
	s, ok, err := r.ReadString16()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "clip-contents", s)
}

func TestNewHardware_UnknownCodeIsProtocolError(t *testing.T) {
	fc := &fakeBinderClient{}
	hw := NewHardware(fc.client())

	_, err := hw.Dispatch(99, nil)
	assert.Error(t, err)
}

// fakeBinderClient is a minimal stand-in for binder.Client, used only to
// exercise Server/typed-wrapper dispatch without a real device node.
type fakeBinderClient struct{}

func (f *fakeBinderClient) client() *Client {
	return &Client{
		node: "binder",
		ioctlFn: func(fd int, req uintptr, data []byte) error {
			return nil
		},
		readReplyFn: func(req []byte) []byte { return nil },
	}
}
