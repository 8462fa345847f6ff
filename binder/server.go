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
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/waydroid/waydroid/domain"
)

// errUnknownCode is the protocol error returned for a transaction code
// with no registered callback, matching spec.md §4.5's "unknown codes
// return an explicit protocol error".
const errUnknownCode int32 = -74 // -EBADMSG, Android's UNKNOWN_TRANSACTION

// Server hosts a local binder object under a fixed interface name,
// re-registering with the service manager whenever it restarts.
type Server struct {
	client        *Client
	interfaceName string
	log           *logrus.Entry

	mu    sync.RWMutex
	table map[uint32]func([]byte) ([]byte, error)
}

var _ domain.BinderServerIface = (*Server)(nil)

// NewServer constructs a Server for interfaceName over an already-opened
// Client.
func NewServer(c *Client, interfaceName string) *Server {
	return &Server{
		client:        c,
		interfaceName: interfaceName,
		log:           logrus.WithField("component", "binder").WithField("interface", interfaceName),
		table:         make(map[uint32]func([]byte) ([]byte, error)),
	}
}

// On registers a callback for a transaction code.
func (s *Server) On(code uint32, fn func([]byte) ([]byte, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table[code] = fn
}

// Register adds this server's object under interfaceName to the service
// manager, and launches a background presence loop that re-registers on
// every manager restart, matching spec.md §4.5's "registers... and
// re-registers whenever the manager reappears".
func (s *Server) Register(ctx context.Context) error {
	if err := s.addService(); err != nil {
		return err
	}

	go s.presenceLoop(ctx)
	return nil
}

func (s *Server) addService() error {
	w := NewWriter()
	w.WriteString16(s.interfaceName)

	const addServiceCode = 3
	if _, err := s.client.transact(serviceManagerHandle, addServiceCode, w.Bytes()); err != nil {
		return fmt.Errorf("binder: registering %s: %w", s.interfaceName, err)
	}
	return nil
}

func (s *Server) presenceLoop(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.client.WaitServiceManager(ctx); err != nil {
				return
			}
			if err := s.addService(); err != nil {
				s.log.WithError(err).Debug("re-registration attempt failed")
			}
		}
	}
}

// Dispatch routes an incoming transaction code to its registered
// callback, returning the protocol error code for unrecognized codes.
func (s *Server) Dispatch(code uint32, data []byte) ([]byte, error) {
	s.mu.RLock()
	fn, ok := s.table[code]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("binder: %s: unknown transaction code %d (protocol error %d)", s.interfaceName, code, errUnknownCode)
	}

	return fn(data)
}

// Close releases the underlying client.
func (s *Server) Close() error {
	return s.client.Close()
}
