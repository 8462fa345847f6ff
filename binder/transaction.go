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
	"encoding/binary"

	"github.com/waydroid/waydroid/domain"
)

// Binder driver command codes, from the kernel UAPI
// (include/uapi/linux/android/binder.h). Only the ones this codec emits
// or must recognize are named.
const (
	bcTransaction uint32 = 0x40406300
	brTransaction uint32 = 0x80407202
	brReply       uint32 = 0x80407203
	brError       uint32 = 0x80047200
)

// binderTransactionDataSize is sizeof(struct binder_transaction_data) on
// a 64-bit target: target/cookie (16) + code (4) + flags (4) + sender_pid
// (4) + sender_euid (4) + data_size (8) + offsets_size (8) + data union
// (16).
const binderTransactionDataSize = 64

// encodeTransaction builds the flat byte buffer handed to the
// BINDER_WRITE_READ ioctl for a single outbound BC_TRANSACTION: one
// command word followed by a binder_transaction_data record whose
// data.ptr.buffer field addresses the caller's parcel.
func encodeTransaction(h domain.BinderHandle, code uint32, parcel []byte) []byte {
	buf := make([]byte, 4+binderTransactionDataSize)

	binary.LittleEndian.PutUint32(buf[0:4], bcTransaction)

	// target.handle
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h))
	// code
	binary.LittleEndian.PutUint32(buf[20:24], code)
	// data_size
	binary.LittleEndian.PutUint64(buf[36:44], uint64(len(parcel)))

	return append(buf, parcel...)
}

// decodeCommand peeks the leading command word of a BR_* reply frame,
// used by the Client's reply decoding to tell a reply from an error or an
// incoming transaction.
func decodeCommand(buf []byte) (uint32, bool) {
	if len(buf) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(buf[0:4]), true
}
