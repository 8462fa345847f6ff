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

// Package initializer implements the C8 bootstrap/upgrade control plane:
// architecture and vendor-type detection, OTA image fetch/verify/extract,
// binder node persistence, and the base LXC config/props/mount-file
// writes, the Go analogue of tools/actions/initializer.py.
package initializer

import (
	"runtime"
	"strconv"
	"strings"

	"github.com/waydroid/waydroid/domain"
)

// DeriveVendorType classifies the host's VNDK compatibility from the
// "ro.vndk.version" Android property, matching
// tools/actions/initializer.py's get_vendor_type(), with the HALIUM
// numbering adjustments recovered from spec.md §8's exact table (a −1
// shift past vndk 31, an "L" suffix at vndk 32) that the distilled
// single-line rule in the original did not yet need to express.
func DeriveVendorType(vndkVersion string) domain.VendorType {
	if vndkVersion == "" {
		return domain.VendorMainline
	}

	vndk, err := strconv.Atoi(vndkVersion)
	if err != nil || vndk <= 19 {
		return domain.VendorMainline
	}

	n := vndk - 19
	suffix := ""
	switch {
	case vndk == 32:
		n--
		suffix = "L"
	case vndk > 31:
		n--
	}

	return domain.VendorType("HALIUM_" + strconv.Itoa(n) + suffix)
}

// HostArch maps the running process's architecture to the Android ABI
// name waydroid's image channels are published under, matching
// tools/helpers/arch.py's host().
func HostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	case "arm64":
		return "arm64"
	case "arm":
		return "arm"
	default:
		return strings.ToLower(runtime.GOARCH)
	}
}
