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

package domain

import "context"

// BinderHandle is a remote binder object reference, as returned by the
// service manager's checkService transaction.
type BinderHandle uint32

// BinderReply is the decoded result of a binder transaction: the
// exception code from the mandatory status word, and the parcel payload
// when that code is zero.
type BinderReply struct {
	Exception int32
	Data      []byte
}

// BinderClientIface issues outbound transactions against Android-side
// binder services (service manager lookups plus arbitrary calls).
// Implemented by binder.Client.
type BinderClientIface interface {
	WaitServiceManager(ctx context.Context) error
	GetService(ctx context.Context, name string) (BinderHandle, error)
	Call(ctx context.Context, h BinderHandle, code uint32, args []byte) (BinderReply, error)
	Close() error
}

// BinderServerIface registers a local object under a fixed binder
// interface name and dispatches incoming transactions to a caller-
// supplied table. Implemented by binder.Server and its typed wrappers
// (Clipboard, Notifications, UserMonitor, Hardware).
type BinderServerIface interface {
	Register(ctx context.Context) error
	Dispatch(code uint32, data []byte) ([]byte, error)
	Close() error
}
