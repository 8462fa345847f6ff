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

func TestWriterReader_String16RoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteString16("android.os.IServiceManager")

	r := NewReader(w.Bytes())
	s, ok, err := r.ReadString16()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "android.os.IServiceManager", s)
}

func TestReader_NullString16(t *testing.T) {
	w := NewWriter()
	w.WriteString16Null()

	r := NewReader(w.Bytes())
	_, ok, err := r.ReadString16()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriterReader_Int32RoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteInt32(-42)
	w.WriteInt32(12345)

	r := NewReader(w.Bytes())
	v1, err := r.ReadInt32()
	require.NoError(t, err)
	v2, err := r.ReadInt32()
	require.NoError(t, err)

	assert.Equal(t, int32(-42), v1)
	assert.Equal(t, int32(12345), v2)
}

func TestWriterReader_ByteArrayRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteByteArray([]byte{1, 2, 3, 4, 5})

	r := NewReader(w.Bytes())
	got, err := r.ReadByteArray()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, got)
}

func TestReader_ShortReadErrors(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.ReadInt32()
	assert.Error(t, err)
}

func TestDecodeReply_BrError(t *testing.T) {
	frame := make([]byte, 4)
	frame[0] = byte(brError)
	frame[1] = byte(brError >> 8)
	frame[2] = byte(brError >> 16)
	frame[3] = byte(brError >> 24)

	reply, err := decodeReply(frame)
	require.NoError(t, err)
	assert.NotEqual(t, int32(0), reply.Exception)
}

func TestDecodeReply_EmptyFrame(t *testing.T) {
	reply, err := decodeReply(nil)
	require.NoError(t, err)
	assert.Equal(t, int32(0), reply.Exception)
}
