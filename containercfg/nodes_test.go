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

package containercfg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waydroid/waydroid/containercfg"
	"github.com/waydroid/waydroid/domain"
)

func alwaysExists(string) bool { return true }
func noGlob(string) []string   { return nil }

func TestSynthesizeNodeMounts_BinderEntriesPresent(t *testing.T) {
	sel := domain.DriverSelection{BinderNode: "binder", VndBinderNode: "vndbinder", HwBinderNode: "hwbinder"}

	entries, err := containercfg.SynthesizeNodeMounts(alwaysExists, sel, string(domain.VendorMainline), "/var/lib/waydroid/data", "/var/lib/waydroid/host-permissions", noGlob)
	require.NoError(t, err)

	var foundBinder bool
	for _, e := range entries {
		if e.Dest == "dev/binder" {
			foundBinder = true
			assert.Equal(t, "/dev/binder", e.Source)
		}
	}
	assert.True(t, foundBinder)
}

func TestSynthesizeNodeMounts_NonMainlineRequiresHostHwbinder(t *testing.T) {
	sel := domain.DriverSelection{BinderNode: "binder", VndBinderNode: "vndbinder", HwBinderNode: "hwbinder"}

	_, err := containercfg.SynthesizeNodeMounts(func(string) bool { return false }, sel, "HALIUM_9", "/data", "/host-perms", noGlob)
	assert.Error(t, err)
}

func TestSynthesizeSessionMounts_RejectsNewlineSource(t *testing.T) {
	s := domain.Session{UID: 1000, XdgRuntimeDir: "/run/user/1000\nEVIL", WaylandDisplay: "wayland-0"}

	_, err := containercfg.SynthesizeSessionMounts(s, func(string) (uint32, bool) { return 1000, true })
	assert.Error(t, err)
}

func TestSynthesizeSessionMounts_RejectsWrongOwner(t *testing.T) {
	s := domain.Session{UID: 1000, XdgRuntimeDir: "/run/user/1000", WaylandDisplay: "wayland-0"}

	_, err := containercfg.SynthesizeSessionMounts(s, func(string) (uint32, bool) { return 0, true })
	assert.Error(t, err)
}

func TestSynthesizeBaseConfig_SubstitutesArch(t *testing.T) {
	out, err := containercfg.SynthesizeBaseConfig("x86_64", true)
	require.NoError(t, err)
	assert.Contains(t, out, "lxc.arch = x86_64")
	assert.NotContains(t, out, "LXCARCH")
}
