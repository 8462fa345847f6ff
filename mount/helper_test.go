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

package mount_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"

	"github.com/waydroid/waydroid/mount"
)

func TestHelper_IsBindIsMove(t *testing.T) {
	h := mount.NewHelper()

	assert.True(t, h.IsBind(unix.MS_BIND))
	assert.False(t, h.IsBind(unix.MS_MOVE))
	assert.True(t, h.IsMove(unix.MS_MOVE))
	assert.True(t, h.IsRemount(unix.MS_REMOUNT))
}

func TestHelper_IsNewMount(t *testing.T) {
	h := mount.NewHelper()

	assert.True(t, h.IsNewMount(0))
	assert.False(t, h.IsNewMount(unix.MS_BIND))
}

func TestHelper_StringToFlagsRoundTrip(t *testing.T) {
	h := mount.NewHelper()

	opts := map[string]string{"ro": "", "noatime": "", "rw": ""}
	flags := h.StringToFlags(opts)

	assert.True(t, h.IsReadOnlyMount(flags))
	assert.Equal(t, uint64(unix.MS_RDONLY|unix.MS_NOATIME), flags)
}

func TestHelper_FilterFsFlagsDropsRw(t *testing.T) {
	h := mount.NewHelper()

	opts := map[string]string{"ro": "", "rw": "", "size": "65536k"}
	filtered := h.FilterFsFlags(opts)

	assert.Contains(t, filtered, "ro")
	assert.NotContains(t, filtered, "size")
	assert.NotContains(t, filtered, "rw")
}
