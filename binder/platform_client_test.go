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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAppInfo_RoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteString16("Messages")
	w.WriteString16("com.example.messages")
	w.WriteString16("android.intent.action.MAIN")
	w.WriteString16("intent:#Intent;end")
	w.WriteString16("com.example.messages")
	w.WriteString16("com.example.messages.MainActivity")
	w.WriteInt32(2)
	w.WriteString16("android.intent.category.LAUNCHER")
	w.WriteString16("android.intent.category.DEFAULT")

	r := NewReader(w.Bytes())
	info, err := readAppInfo(r)
	require.NoError(t, err)

	assert.Equal(t, "Messages", info.Name)
	assert.Equal(t, "com.example.messages", info.PackageName)
	assert.Equal(t, []string{"android.intent.category.LAUNCHER", "android.intent.category.DEFAULT"}, info.Categories)
}

func TestPlatformClient_GetpropDecodesReply(t *testing.T) {
	replyParcel := NewWriter()
	replyParcel.WriteInt32(0) // exception code
	replyParcel.WriteString16("31")

	p := &PlatformClient{client: &Client{
		ioctlFn: func(fd int, req uintptr, data []byte) error { return nil },
		readReplyFn: func(req []byte) []byte {
			return fakeBrReplyFrame(replyParcel.Bytes())
		},
	}}

	got, err := p.Getprop(context.Background(), "ro.build.version.sdk", "30")
	require.NoError(t, err)
	assert.Equal(t, "31", got)
}

func TestPlatformClient_GetpropFallsBackOnMissingReply(t *testing.T) {
	p := &PlatformClient{client: &Client{
		ioctlFn:     func(fd int, req uintptr, data []byte) error { return nil },
		readReplyFn: func(req []byte) []byte { return nil },
	}}

	got, err := p.Getprop(context.Background(), "ro.build.version.sdk", "30")
	assert.Error(t, err)
	assert.Equal(t, "30", got)
}

// fakeBrReplyFrame wraps parcel in a minimal BR_REPLY-shaped frame: a
// command word followed by a binderTransactionDataSize-byte placeholder
// record, then the parcel payload decodeReply expects after it.
func fakeBrReplyFrame(parcel []byte) []byte {
	frame := make([]byte, 4+binderTransactionDataSize)
	frame[0] = byte(brReply)
	frame[1] = byte(brReply >> 8)
	frame[2] = byte(brReply >> 16)
	frame[3] = byte(brReply >> 24)
	return append(frame, parcel...)
}
