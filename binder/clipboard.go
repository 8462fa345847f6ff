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
	clipboardInterface = "lineageos.waydroid.IClipboard"

	txSendClipboardData uint32 = 1
	txGetClipboardData  uint32 = 2
)

// Clipboard hosts the lineageos.waydroid.IClipboard service, forwarding
// sent/requested clipboard contents to host-side callbacks set by the
// session manager.
type Clipboard struct {
	*Server

	Send func(data string)
	Get  func() string
}

// NewClipboard wires a Clipboard server over c, dispatching to Send/Get
// once they are assigned by the caller.
func NewClipboard(c *Client) *Clipboard {
	cb := &Clipboard{Server: NewServer(c, clipboardInterface)}

	cb.On(txSendClipboardData, func(data []byte) ([]byte, error) {
		r := NewReader(data)
		s, _, err := r.ReadString16()
		if err != nil {
			return nil, err
		}
		if cb.Send != nil {
			cb.Send(s)
		}
		w := NewWriter()
		w.WriteInt32(0)
		return w.Bytes(), nil
	})

	cb.On(txGetClipboardData, func(data []byte) ([]byte, error) {
		var s string
		if cb.Get != nil {
			s = cb.Get()
		}
		w := NewWriter()
		w.WriteInt32(0)
		w.WriteString16(s)
		return w.Bytes(), nil
	})

	return cb
}
