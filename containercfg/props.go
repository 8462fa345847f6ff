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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/waydroid/waydroid/domain"
)

// HalProbe resolves a single "ro.hardware.*"-style property by walking a
// fallback chain of host properties, matching make_base_props()'s
// find_hal() closure.
type HalProbe func(hardware string) string

// SynthesizeBaseProperties builds the host-derived HAL/gralloc/EGL/Vulkan
// property set written to waydroid_base.prop, matching make_base_props().
// hostGet reads a single host Android property (empty string if unset).
func SynthesizeBaseProperties(cfg *domain.Config, hostGet func(string) string, findHAL HalProbe) (map[string]string, error) {
	props := map[string]string{}

	egl := hostGet("ro.hardware.egl")

	gralloc := findHAL("gralloc")
	if gralloc == "" {
		if domain.FileExists("/dev/dri") {
			gralloc = "gbm"
			egl = "mesa"
		} else {
			gralloc = "default"
			egl = "swiftshader"
		}
		props["debug.stagefright.ccodec"] = "0"
	}
	props["ro.hardware.gralloc"] = gralloc

	if egl != "" {
		props["ro.hardware.egl"] = egl
	}

	if mp := hostGet("media.settings.xml"); mp != "" {
		mp = strings.ReplaceAll(mp, "vendor/", "vendor_extra/")
		mp = strings.ReplaceAll(mp, "odm/", "odm_extra/")
		props["media.settings.xml"] = mp
	}

	if cc := hostGet("debug.stagefright.ccodec"); cc != "" {
		props["debug.stagefright.ccodec"] = cc
	}

	if ext := hostGet("ro.vendor.extension_library"); ext != "" {
		ext = strings.ReplaceAll(ext, "vendor/", "vendor_extra/")
		ext = strings.ReplaceAll(ext, "odm/", "odm_extra/")
		props["ro.vendor.extension_library"] = ext
	}

	if vulkan := findHAL("vulkan"); vulkan != "" {
		props["ro.hardware.vulkan"] = vulkan
	}

	opengles := hostGet("ro.opengles.version")
	if opengles == "" {
		opengles = "196608"
	}
	props["ro.opengles.version"] = opengles

	props["waydroid.system_ota"] = cfg.SystemOTA
	props["waydroid.vendor_ota"] = cfg.VendorOTA
	props["waydroid.tools_version"] = cfg.ToolsVersion

	if cfg.VendorType == domain.VendorMainline {
		props["ro.vndk.lite"] = "true"
		props["ro.hardware.camera"] = "v4l2"
	}

	return props, nil
}

// SynthesizeProperties merges a base property set with session overrides
// and the config's free-form [properties] overrides, last write wins.
func SynthesizeProperties(base map[string]string, s domain.Session, cfg *domain.Config) (string, error) {
	merged := make(map[string]string, len(base))
	for k, v := range base {
		merged[k] = v
	}

	if s.LcdDensity > 0 {
		merged["ro.sf.lcd_density"] = fmt.Sprintf("%d", s.LcdDensity)
	}

	for k, v := range cfg.Properties {
		merged[k] = v
	}

	var b strings.Builder
	for k, v := range merged {
		fmt.Fprintf(&b, "%s=%s\n", k, v)
	}
	return b.String(), nil
}

// WriteBasePropFile persists the base property set to
// "<workDir>/waydroid_base.prop", one "key=value" line per entry.
func WriteBasePropFile(workDir string, props map[string]string) error {
	path := filepath.Join(workDir, "waydroid_base.prop")

	var b strings.Builder
	for k, v := range props {
		fmt.Fprintf(&b, "%s=%s\n", k, v)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("containercfg: writing %s: %w", path, err)
	}
	return nil
}
