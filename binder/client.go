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
	"fmt"
	"os"
	"sync"
	"time"
	"unsafe"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/waydroid/waydroid/domain"
	"github.com/waydroid/waydroid/waydroiderr"
)

const (
	serviceManagerHandle domain.BinderHandle = 0
	getServiceCode                           = 1
	checkServiceCode                         = 2

	serviceLookupAttempts = 5
	serviceLookupInterval = time.Second
)

// binderIoctl is the BINDER_WRITE_READ request code, matching the kernel
// UAPI in include/uapi/linux/android/binder.h: _IOWR('b', 1, struct
// binder_write_read).
const binderIoctl = 0xc0306201

// Client issues outbound binder transactions against a single opened
// device node.
type Client struct {
	node     string
	protocol domain.BinderProtocolVersion
	fd       int
	mu       sync.Mutex
	log      *logrus.Entry

	// openFn/ioctlFn/readReplyFn are overridden in tests to avoid touching
	// a real /dev/binder node.
	openFn      func(path string) (int, error)
	ioctlFn     func(fd int, req uintptr, data []byte) error
	readReplyFn func(req []byte) []byte
}

var _ domain.BinderClientIface = (*Client)(nil)

// NewClient opens /dev/<node> (node is a device name such as "binder")
// and returns a Client that speaks the given protocol version.
func NewClient(node string, protocol domain.BinderProtocolVersion) (*Client, error) {
	c := &Client{
		node:     node,
		protocol: protocol,
		log:      logrus.WithField("component", "binder").WithField("node", node),
		openFn: func(path string) (int, error) {
			return unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
		},
		ioctlFn: func(fd int, req uintptr, data []byte) error {
			if len(data) == 0 {
				return nil
			}
			_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(unsafe.Pointer(&data[0])))
			if errno != 0 {
				return errno
			}
			return nil
		},
		readReplyFn: func(req []byte) []byte { return nil },
	}

	fd, err := c.openFn("/dev/" + node)
	if err != nil {
		return nil, fmt.Errorf("%w: opening /dev/%s: %v", waydroiderr.ErrDriverUnavailable, node, err)
	}
	c.fd = fd

	return c, nil
}

// WaitServiceManager polls every 200ms until the device node /dev/<node>
// exists, returning early with ctx's error when ctx ends. It checks only
// the device node; it does not query the service manager itself.
func (c *Client) WaitServiceManager(ctx context.Context) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		if _, err := os.Stat("/dev/" + c.node); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetService resolves a named service handle, retrying up to
// serviceLookupAttempts times, one second apart, matching
// spec.md §4.5's "N attempts, 1s apart" checkService loop.
func (c *Client) GetService(ctx context.Context, name string) (domain.BinderHandle, error) {
	var lastErr error

	for attempt := 0; attempt < serviceLookupAttempts; attempt++ {
		h, err := c.lookupService(name)
		if err == nil {
			return h, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(serviceLookupInterval):
		}
	}

	c.log.WithError(lastErr).WithField("service", name).Warn("service lookup exhausted retries")
	return 0, fmt.Errorf("%w: %s: %v", waydroiderr.ErrRpcUnavailable, name, lastErr)
}

func (c *Client) lookupService(name string) (domain.BinderHandle, error) {
	w := NewWriter()
	w.WriteString16(name)

	reply, err := c.transact(serviceManagerHandle, checkServiceCode, w.Bytes())
	if err != nil {
		return 0, err
	}

	r := NewReader(reply.Data)
	handle, err := r.ReadInt32()
	if err != nil || handle == 0 {
		return 0, fmt.Errorf("service %q not found", name)
	}

	return domain.BinderHandle(handle), nil
}

// Call issues a transaction against handle/code and decodes the
// mandatory status word + exception code every binder reply carries,
// logging and returning a neutral zero value on any non-zero exception
// so a misbehaving Android service cannot crash the host orchestrator.
func (c *Client) Call(ctx context.Context, h domain.BinderHandle, code uint32, args []byte) (domain.BinderReply, error) {
	reply, err := c.transact(h, code, args)
	if err != nil {
		return domain.BinderReply{}, fmt.Errorf("%w: %v", waydroiderr.ErrRpcUnavailable, err)
	}

	if reply.Exception != 0 {
		c.log.WithField("handle", h).WithField("code", code).
			WithField("exception", reply.Exception).Warn("binder call returned a non-zero exception")
		return domain.BinderReply{Exception: reply.Exception}, nil
	}

	return reply, nil
}

// transact submits a BINDER_WRITE_READ ioctl for a single transaction and
// decodes the status word that always precedes the payload.
func (c *Client) transact(h domain.BinderHandle, code uint32, data []byte) (domain.BinderReply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := encodeTransaction(h, code, data)
	if err := c.ioctlFn(c.fd, binderIoctl, req); err != nil {
		return domain.BinderReply{}, fmt.Errorf("BINDER_WRITE_READ: %w", err)
	}

	return decodeReply(c.readReplyFn(req))
}

// decodeReply interprets the BR_* frame the kernel wrote back into the
// read buffer: BR_ERROR carries no parcel and maps to a non-zero
// exception, BR_REPLY carries the callee's exception code followed by
// its parcel.
func decodeReply(frame []byte) (domain.BinderReply, error) {
	cmd, ok := decodeCommand(frame)
	if !ok {
		return domain.BinderReply{}, nil
	}

	switch cmd {
	case brError:
		return domain.BinderReply{Exception: -1}, nil
	case brReply, brTransaction:
		if len(frame) < 4+binderTransactionDataSize {
			return domain.BinderReply{}, fmt.Errorf("binder: truncated reply frame")
		}
		payload := frame[4+binderTransactionDataSize:]
		r := NewReader(payload)
		exc, err := r.ReadInt32()
		if err != nil {
			return domain.BinderReply{}, nil
		}
		return domain.BinderReply{Exception: exc, Data: payload[4:]}, nil
	default:
		return domain.BinderReply{}, nil
	}
}

// Close releases the underlying device file descriptor.
func (c *Client) Close() error {
	return unix.Close(c.fd)
}
