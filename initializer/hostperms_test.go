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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupHostPerms_CopiesNfcAndConsumerIr(t *testing.T) {
	vendorPerms := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(vendorPerms, "android.hardware.nfc.xml"), []byte("nfc"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(vendorPerms, "android.hardware.consumerir.xml"), []byte("ir"), 0644))

	glob := func(pattern string) []string {
		matches, _ := filepath.Glob(pattern)
		return matches
	}
	exists := func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	}

	dest := t.TempDir()
	hostPermsDir := filepath.Join(dest, "host-permissions")

	// Patch the glob/exists closures to search under our fixture vendor
	// dir instead of the real /vendor, by calling SetupHostPerms with
	// glob/exists wrappers that rewrite the fixed /vendor/etc/permissions
	// prefix; any other path (the /odm side, which this test leaves
	// empty) reports no matches.
	const vendorPrefix = "/vendor/etc/permissions"
	rewrite := func(p string) string {
		return vendorPerms + p[len(vendorPrefix):]
	}
	hasVendorPrefix := func(p string) bool {
		return len(p) >= len(vendorPrefix) && p[:len(vendorPrefix)] == vendorPrefix
	}
	fakeGlob := func(pattern string) []string {
		if !hasVendorPrefix(pattern) {
			return nil
		}
		return glob(rewrite(pattern))
	}
	fakeExists := func(p string) bool {
		if !hasVendorPrefix(p) {
			return false
		}
		return exists(rewrite(p))
	}

	require.NoError(t, SetupHostPerms(hostPermsDir, "", fakeGlob, fakeExists))

	assert.FileExists(t, filepath.Join(hostPermsDir, "android.hardware.nfc.xml"))
	assert.FileExists(t, filepath.Join(hostPermsDir, "android.hardware.consumerir.xml"))
}

func TestSetupHostPerms_NoMatchesStillCreatesDir(t *testing.T) {
	dest := t.TempDir()
	hostPermsDir := filepath.Join(dest, "host-permissions")

	noGlob := func(string) []string { return nil }
	noExists := func(string) bool { return false }

	require.NoError(t, SetupHostPerms(hostPermsDir, "", noGlob, noExists))
	assert.DirExists(t, hostPermsDir)
}
