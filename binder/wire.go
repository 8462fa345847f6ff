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

// Package binder implements the C5 RPC layer against Android's binder
// IPC: a hand-rolled parcel codec (no Go binder client exists anywhere
// in the ecosystem this module was built from) plus client and server
// stubs built on it. The low-level byte parsing follows the teacher's
// own raw-parser style (seccomp/memParser.go, seccomp/mountInfoParser.go):
// small stateful structs walking a byte slice, no reflection.
package binder

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// nullParcelable is the sentinel a parcel writes in place of a
// null/absent nested parcelable, matching Android's Parcel.writeInt(-1)
// convention.
const nullParcelable = -1

// Writer builds a binder transaction parcel using little-endian,
// 4-byte-aligned primitives, matching Android's Parcel wire format.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty parcel Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated parcel.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// WriteInt32 appends a little-endian int32.
func (w *Writer) WriteInt32(v int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	w.buf = append(w.buf, tmp[:]...)
}

// WriteInt64 appends a little-endian int64.
func (w *Writer) WriteInt64(v int64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	w.buf = append(w.buf, tmp[:]...)
}

// WriteString16 appends s as a length-prefixed UTF-16LE string; it always
// writes the string, even when s is empty. WriteString16Null writes the
// null-string sentinel instead.
func (w *Writer) WriteString16(s string) {
	units := utf16.Encode([]rune(s))
	w.WriteInt32(int32(len(units)))
	for _, u := range units {
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], u)
		w.buf = append(w.buf, tmp[:]...)
	}
	// Strings are NUL-terminated and 4-byte padded on the wire.
	w.buf = append(w.buf, 0, 0)
	w.pad4()
}

// WriteString16Null writes the null-string sentinel.
func (w *Writer) WriteString16Null() {
	w.WriteInt32(nullParcelable)
}

// WriteByteArray appends a length-prefixed byte array, 4-byte padded.
func (w *Writer) WriteByteArray(b []byte) {
	w.WriteInt32(int32(len(b)))
	w.buf = append(w.buf, b...)
	w.pad4()
}

func (w *Writer) pad4() {
	if rem := len(w.buf) % 4; rem != 0 {
		w.buf = append(w.buf, make([]byte, 4-rem)...)
	}
}

// Reader walks a received parcel.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential decoding.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() (int32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, fmt.Errorf("binder: short read for int32 at offset %d", r.pos)
	}
	v := int32(binary.LittleEndian.Uint32(r.buf[r.pos:]))
	r.pos += 4
	return v, nil
}

// ReadInt64 reads a little-endian int64.
func (r *Reader) ReadInt64() (int64, error) {
	if r.pos+8 > len(r.buf) {
		return 0, fmt.Errorf("binder: short read for int64 at offset %d", r.pos)
	}
	v := int64(binary.LittleEndian.Uint64(r.buf[r.pos:]))
	r.pos += 8
	return v, nil
}

// ReadString16 reads a length-prefixed UTF-16LE string. A length of
// nullParcelable (-1) decodes to ok=false.
func (r *Reader) ReadString16() (s string, ok bool, err error) {
	n, err := r.ReadInt32()
	if err != nil {
		return "", false, err
	}
	if n == nullParcelable {
		return "", false, nil
	}
	if n < 0 {
		return "", false, fmt.Errorf("binder: negative string16 length %d", n)
	}

	byteLen := int(n) * 2
	if r.pos+byteLen > len(r.buf) {
		return "", false, fmt.Errorf("binder: short read for string16 body at offset %d", r.pos)
	}

	units := make([]uint16, n)
	for i := 0; i < int(n); i++ {
		units[i] = binary.LittleEndian.Uint16(r.buf[r.pos:])
		r.pos += 2
	}
	r.pos += 2 // NUL terminator
	r.alignPad4()

	return string(utf16.Decode(units)), true, nil
}

// ReadByteArray reads a length-prefixed byte array.
func (r *Reader) ReadByteArray() ([]byte, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	if r.pos+int(n) > len(r.buf) {
		return nil, fmt.Errorf("binder: short read for byte array body at offset %d", r.pos)
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	r.alignPad4()
	return out, nil
}

func (r *Reader) alignPad4() {
	if rem := r.pos % 4; rem != 0 {
		r.pos += 4 - rem
	}
}

// Remaining reports how many bytes are left unread.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}
