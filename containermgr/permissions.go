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

package containermgr

import (
	"os"
	"path/filepath"
)

// gpuCodecAllowlistBase lists the fixed device nodes chmod'd to 0777 on
// container start, matching container_manager.py's set_permissions
// default perm_list (ashmem, GPU, codec and sync nodes across a range of
// vendor SoCs). It holds no vibrator node.
var gpuCodecAllowlistBase = []string{
	"/dev/ashmem",
	"/dev/sw_sync",
	"/sys/kernel/debug/sync/sw_sync",
	"/dev/Vcodec",
	"/dev/MTK_SMI",
	"/dev/mdp_sync",
	"/dev/mtk_cmdq",
	"/dev/mtk_mdp",
	"/dev/dri",
	"/dev/graphics",
	"/dev/pvr_sync",
	"/dev/ion",
}

// gpuCodecAllowlist returns the fixed allowlist plus every matching
// framebuffer and video device node present on the host.
func gpuCodecAllowlist() []string {
	paths := make([]string, len(gpuCodecAllowlistBase))
	copy(paths, gpuCodecAllowlistBase)

	fbs, _ := filepath.Glob("/dev/fb*")
	videos, _ := filepath.Glob("/dev/video*")
	paths = append(paths, fbs...)
	paths = append(paths, videos...)
	return paths
}

func chmodIfExists(path string, mode os.FileMode) {
	if _, err := os.Stat(path); err == nil {
		_ = os.Chmod(path, mode)
	}
}

// chmodRecursiveIfExists chmods path and, if it is a directory, every
// entry beneath it, matching the shelled-out "chmod <mode> -R <path>".
func chmodRecursiveIfExists(path string, mode os.FileMode) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if !info.IsDir() {
		_ = os.Chmod(path, mode)
		return
	}

	_ = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		_ = os.Chmod(p, mode)
		return nil
	})
}
