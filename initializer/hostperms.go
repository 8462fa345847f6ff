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
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SetupHostPerms copies the NFC and consumer-IR permission XML files out
// of /vendor/etc and /odm/etc (including the SKU-specific odm
// subdirectory) into hostPermsDir, matching tools/helpers/lxc.py's
// setup_host_perms(). glob and exists are injected so tests can run
// against a fixture tree instead of the real /vendor and /odm.
func SetupHostPerms(hostPermsDir, sku string, glob func(string) []string, exists func(string) bool) error {
	var copyList []string
	copyList = append(copyList, glob("/vendor/etc/permissions/android.hardware.nfc.*")...)
	if exists("/vendor/etc/permissions/android.hardware.consumerir.xml") {
		copyList = append(copyList, "/vendor/etc/permissions/android.hardware.consumerir.xml")
	}
	copyList = append(copyList, glob("/odm/etc/permissions/android.hardware.nfc.*")...)
	if exists("/odm/etc/permissions/android.hardware.consumerir.xml") {
		copyList = append(copyList, "/odm/etc/permissions/android.hardware.consumerir.xml")
	}
	if sku != "" {
		skuDir := fmt.Sprintf("/odm/etc/permissions/sku_%s", sku)
		copyList = append(copyList, glob(skuDir+"/android.hardware.nfc.*")...)
		if exists(skuDir + "/android.hardware.consumerir.xml") {
			copyList = append(copyList, skuDir+"/android.hardware.consumerir.xml")
		}
	}

	if err := os.MkdirAll(hostPermsDir, 0755); err != nil {
		return fmt.Errorf("initializer: creating host-permissions dir %s: %w", hostPermsDir, err)
	}

	for _, src := range copyList {
		if err := copyFile(src, filepath.Join(hostPermsDir, filepath.Base(src))); err != nil {
			return fmt.Errorf("initializer: copying host permission %s: %w", src, err)
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
