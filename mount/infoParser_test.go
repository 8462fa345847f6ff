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

package mount

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waydroid/waydroid/domain"
)

const sampleMountInfo = `36 35 98:0 / /mnt1 rw,noatime master:1 - ext3 /dev/root rw,errors=continue
37 35 98:1 / /mnt2\040(deleted) rw,relatime - ext4 /dev/sdb1 rw
38 35 98:2 / /var/lib/waydroid/rootfs ro,nosuid,nodev - ext4 /dev/loop0 ro
`

func TestParseMountInfoLine(t *testing.T) {
	mi, err := parseMountInfoLine("36 35 98:0 / /mnt1 rw,noatime master:1 - ext3 /dev/root rw,errors=continue")
	require.NoError(t, err)

	assert.Equal(t, 36, mi.MountID)
	assert.Equal(t, 35, mi.ParentID)
	assert.Equal(t, "/mnt1", mi.MountPoint)
	assert.Equal(t, "ext3", mi.FsType)
	assert.Equal(t, "/dev/root", mi.Source)
	assert.Equal(t, "1", mi.OptionalFields["master"])
	_, hasRw := mi.VfsOptions["rw"]
	assert.True(t, hasRw)
}

func TestParseMountInfoLine_StripsDeletedSuffix(t *testing.T) {
	mi, err := parseMountInfoLine(`37 35 98:1 / /mnt2\040(deleted) rw,relatime - ext4 /dev/sdb1 rw`)
	require.NoError(t, err)

	assert.Equal(t, "/mnt2", mi.MountPoint)
}

func TestParseMountInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mountinfo")
	require.NoError(t, os.WriteFile(path, []byte(sampleMountInfo), 0644))

	mounts, err := parseMountInfo(path)
	require.NoError(t, err)

	assert.Len(t, mounts, 3)
	assert.Contains(t, mounts, "/mnt1")
	assert.Contains(t, mounts, "/mnt2")
	assert.Contains(t, mounts, "/var/lib/waydroid/rootfs")
}

func TestParseMountInfoLine_Malformed(t *testing.T) {
	_, err := parseMountInfoLine("not enough fields")
	assert.Error(t, err)
}

func TestMountsUnderPrefix_DeepestFirst(t *testing.T) {
	mounts := map[string]*domain.MountInfo{
		"/var/lib/waydroid":             {MountPoint: "/var/lib/waydroid"},
		"/var/lib/waydroid/rootfs":      {MountPoint: "/var/lib/waydroid/rootfs"},
		"/var/lib/waydroid/rootfs/vendor": {MountPoint: "/var/lib/waydroid/rootfs/vendor"},
		"/home/user":                    {MountPoint: "/home/user"},
	}

	targets := mountsUnderPrefix(mounts, "/var/lib/waydroid")

	require.Len(t, targets, 3)
	assert.Equal(t, "/var/lib/waydroid/rootfs/vendor", targets[0])
	assert.Equal(t, "/var/lib/waydroid", targets[2])
}
