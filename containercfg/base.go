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

package containercfg

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed configs/base.conf
var configFS embed.FS

// SynthesizeBaseConfig returns the base LXC config with the
// architecture placeholder substituted, matching set_lxc_config()'s
// "sed -i s/LXCARCH/.../ " step, except done in-process against a
// compiled-in template instead of a copied data file.
func SynthesizeBaseConfig(arch string, apparmor bool) (string, error) {
	raw, err := configFS.ReadFile("configs/base.conf")
	if err != nil {
		return "", fmt.Errorf("containercfg: reading base config template: %w", err)
	}

	out := strings.ReplaceAll(string(raw), "LXCARCH", arch)

	if !apparmor {
		out = strings.ReplaceAll(out, "lxc.apparmor.profile = unconfined\n", "")
	}

	return out, nil
}
