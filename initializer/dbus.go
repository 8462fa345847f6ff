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

package initializer

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/waydroid/waydroid/waydroiderr"
)

const (
	// InterfaceName is the system-bus interface DbusInitializer exports,
	// recovered from spec.md §4.8's "Remote init service" paragraph
	// alongside the sibling id.waydro.ContainerManager naming scheme.
	InterfaceName = "id.waydro.Initializer"
	// ObjectPath is the object path, a sibling of the container manager's,
	// at which DbusInitializer is exported on the system bus.
	ObjectPath = dbus.ObjectPath("/Initializer")

	initAction        = "id.waydro.Initializer.Init"
	polkitBusName     = "org.freedesktop.PolicyKit1"
	polkitObjectPath  = "/org/freedesktop/PolicyKit1/Authority"
	polkitInterface   = "org.freedesktop.PolicyKit1.Authority"
	polkitSubjectKind = "unix-process"
)

// DbusInitializer exposes Init/Cancel on the system bus, gating
// non-default channel parameters behind a Polkit authorization check,
// matching spec.md §4.8's "Remote init service" paragraph.
type DbusInitializer struct {
	conn    *dbus.Conn
	workDir string
	deps    Deps
	log     *logrus.Entry

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// ExportDbusInitializer registers obj at ObjectPath on conn, the
// system-bus connection its caller passes in (waydroid-init's serve mode
// uses a connection of its own).
func ExportDbusInitializer(conn *dbus.Conn, workDir string, deps Deps) (*DbusInitializer, error) {
	obj := &DbusInitializer{
		conn:    conn,
		workDir: workDir,
		deps:    deps,
		log:     logrus.WithField("component", "initializer-dbus"),
	}
	if err := conn.Export(obj, ObjectPath, InterfaceName); err != nil {
		return nil, err
	}
	return obj, nil
}

// Init implements id.waydro.Initializer.Init(a{ss}): {system_channel,
// vendor_channel, system_type}. When every supplied value matches
// DefaultChannels(), no authorization is required; otherwise the caller
// must pass Polkit's CheckAuthorization for initAction.
func (o *DbusInitializer) Init(params map[string]string, sender dbus.Sender) *dbus.Error {
	channels := channelsFromParams(params)

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return dbus.MakeFailedError(fmt.Errorf("initializer: an init is already in progress"))
	}
	o.running = true
	o.mu.Unlock()

	if !channels.IsDefault() {
		if err := o.authorize(sender); err != nil {
			o.mu.Lock()
			o.running = false
			o.mu.Unlock()
			return dbus.MakeFailedError(fmt.Errorf("%w: %v", waydroiderr.ErrPolicyDenied, err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()

	deps := o.deps
	deps.OnProgress = o.emitProgress

	go func() {
		err := Init(ctx, false, o.workDir, channels, deps)

		o.mu.Lock()
		o.running = false
		o.cancel = nil
		o.mu.Unlock()

		if ctx.Err() != nil {
			o.emitInterrupted()
			return
		}
		if err != nil {
			o.log.WithError(err).Error("init failed")
		}
		o.emitFinished()
	}()

	return nil
}

// Cancel implements id.waydro.Initializer.Cancel(), tearing down the
// in-flight worker goroutine via its context.
func (o *DbusInitializer) Cancel() *dbus.Error {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

func (o *DbusInitializer) emitProgress(line string) {
	_ = o.conn.Emit(ObjectPath, InterfaceName+".ProgressChanged", line)
}

func (o *DbusInitializer) emitFinished() {
	_ = o.conn.Emit(ObjectPath, InterfaceName+".Finished")
}

func (o *DbusInitializer) emitInterrupted() {
	_ = o.conn.Emit(ObjectPath, InterfaceName+".Interrupted")
}

func channelsFromParams(params map[string]string) Channels {
	c := DefaultChannels()
	if v, ok := params["system_channel"]; ok && v != "" {
		c.SystemChannel = v
	}
	if v, ok := params["vendor_channel"]; ok && v != "" {
		c.VendorChannel = v
	}
	if v, ok := params["system_type"]; ok && v != "" {
		c.SystemType = v
	}
	return c
}

// authorize resolves sender's UID/PID and asks Polkit's
// CheckAuthorization whether that process may perform initAction,
// matching the godbus auth-check pattern: a direct system-bus method
// call against org.freedesktop.PolicyKit1.Authority, no separate client
// library (the Polkit wire protocol is itself nothing more than a DBus
// method call; wrapping it in a library would add nothing the retrieved
// pack doesn't already give us via godbus/dbus/v5).
func (o *DbusInitializer) authorize(sender dbus.Sender) error {
	var pid uint32
	if err := o.conn.BusObject().Call("org.freedesktop.DBus.GetConnectionUnixProcessID", 0, string(sender)).Store(&pid); err != nil {
		return fmt.Errorf("resolving caller pid: %w", err)
	}

	subject := struct {
		Kind    string
		Details map[string]dbus.Variant
	}{
		Kind: polkitSubjectKind,
		Details: map[string]dbus.Variant{
			"pid":        dbus.MakeVariant(pid),
			"start-time": dbus.MakeVariant(uint64(0)),
		},
	}

	var result struct {
		IsAuthorized bool
		IsChallenge  bool
		Details      map[string]string
	}

	authority := o.conn.Object(polkitBusName, dbus.ObjectPath(polkitObjectPath))
	call := authority.Call(polkitInterface+".CheckAuthorization", 0,
		subject, initAction, map[string]string{}, uint32(1), "")
	if call.Err != nil {
		return fmt.Errorf("polkit CheckAuthorization: %w", call.Err)
	}
	if err := call.Store(&result.IsAuthorized, &result.IsChallenge, &result.Details); err != nil {
		return fmt.Errorf("decoding polkit reply: %w", err)
	}
	if !result.IsAuthorized {
		return fmt.Errorf("not authorized for %s", initAction)
	}
	return nil
}
