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

// Package waydroiderr collects the sentinel error kinds the control plane
// produces, so callers can classify a failure with errors.Is instead of
// string-matching a message.
package waydroiderr

import "errors"

var (
	// ErrConfigMissing is returned when the work directory or config file
	// is absent on an operation that requires a completed Init.
	ErrConfigMissing = errors.New("waydroid: work directory or config missing, run init first")

	// ErrAlreadyRunning is returned when the system or session DBus
	// well-known name is already held by another instance.
	ErrAlreadyRunning = errors.New("waydroid: another instance already owns this bus name")

	// ErrSessionMismatch is returned when Start's caller identity is
	// inconsistent with the session descriptor it was handed.
	ErrSessionMismatch = errors.New("waydroid: session caller identity mismatch")

	// ErrDriverUnavailable is returned when a required binder device node
	// is missing and cannot be allocated.
	ErrDriverUnavailable = errors.New("waydroid: required driver node unavailable")

	// ErrImageIntegrity is returned when a downloaded image's SHA-256
	// does not match its manifest digest.
	ErrImageIntegrity = errors.New("waydroid: image checksum mismatch")

	// ErrMountFailure is returned when a bind, overlay, or loop mount did
	// not take effect.
	ErrMountFailure = errors.New("waydroid: mount did not take effect")

	// ErrRpcUnavailable is returned when the Android service manager or a
	// named service could not be located within the retry budget.
	ErrRpcUnavailable = errors.New("waydroid: binder service unavailable")

	// ErrStateTransitionTimeout is returned when a container state poll
	// did not observe the expected state within its bound.
	ErrStateTransitionTimeout = errors.New("waydroid: state transition timed out")

	// ErrPolicyDenied is returned when Polkit authorization fails for a
	// sensitive initializer call.
	ErrPolicyDenied = errors.New("waydroid: authorization denied")
)
