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

package session

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// WaylandClipboardHandler shells out to wl-copy/wl-paste, the Go
// analogue of tools/helpers/wayland_clipboard.py's WaylandClipboardHandler.
type WaylandClipboardHandler struct {
	wlCopy, wlPaste string
	log             *logrus.Entry
}

// NewWaylandClipboardHandler resolves wl-copy/wl-paste on PATH, failing
// if either binary is missing.
func NewWaylandClipboardHandler() (*WaylandClipboardHandler, error) {
	wlCopy, err := exec.LookPath("wl-copy")
	if err != nil {
		return nil, fmt.Errorf("session: wl-clipboard must be installed (wl-copy not found): %w", err)
	}
	wlPaste, err := exec.LookPath("wl-paste")
	if err != nil {
		return nil, fmt.Errorf("session: wl-clipboard must be installed (wl-paste not found): %w", err)
	}
	return &WaylandClipboardHandler{
		wlCopy:  wlCopy,
		wlPaste: wlPaste,
		log:     logrus.WithField("component", "session-clipboard"),
	}, nil
}

// Copy pushes value onto the host Wayland clipboard. Errors are logged,
// not returned, matching the original's best-effort copy().
func (h *WaylandClipboardHandler) Copy(value string) {
	cmd := exec.Command(h.wlCopy)
	cmd.Stdin = bytes.NewBufferString(value)
	if err := cmd.Run(); err != nil {
		h.log.WithError(err).Debug("wl-copy failed")
	}
}

// Paste reads the host Wayland clipboard, returning "" on any failure.
func (h *WaylandClipboardHandler) Paste() string {
	out, err := exec.Command(h.wlPaste, "--no-newline").Output()
	if err != nil {
		h.log.WithError(err).Debug("wl-paste failed")
		return ""
	}
	return string(out)
}
