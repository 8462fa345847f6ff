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

// Package driver implements the C1 driver layer: binder device node
// selection, binderfs allocation, ashmem probing, and DRI render-node /
// Vulkan ICD mapping, the Go analogue of tools/helpers/drivers.py.
package driver

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/waydroid/waydroid/domain"
	"github.com/waydroid/waydroid/waydroiderr"
)

// Candidate device node names, in priority order, matching
// tools/helpers/drivers.py's BINDER_DRIVERS / VNDBINDER_DRIVERS /
// HWBINDER_DRIVERS lists.
var (
	binderCandidates    = []string{"anbox-binder", "puddlejumper", "binder"}
	vndBinderCandidates = []string{"anbox-vndbinder", "vndpuddlejumper", "vndbinder"}
	hwBinderCandidates  = []string{"anbox-hwbinder", "hwpuddlejumper", "hwbinder"}
)

// Service is the C1 driver layer.
type Service struct {
	devDir string // "/dev", overridable in tests
	log    *logrus.Entry
}

var _ domain.DriverServiceIface = (*Service)(nil)

// NewService constructs a driver Service rooted at /dev.
func NewService() *Service {
	return NewServiceAt("/dev")
}

// NewServiceAt constructs a driver Service rooted at an arbitrary
// directory, so tests can exercise node-selection logic without real
// device nodes.
func NewServiceAt(devDir string) *Service {
	return &Service{devDir: devDir, log: logrus.WithField("component", "driver")}
}

// SelectBinderNodes picks the live binder/vndbinder/hwbinder device
// nodes. For MAINLINE vendors the last (plain) candidate name is an
// acceptable pick; for HALIUM vendors it is excluded, matching
// setupBinderNodes()'s vendor-type branch.
func (s *Service) SelectBinderNodes(vendorType domain.VendorType) (domain.DriverSelection, error) {
	mainline := vendorType == domain.VendorMainline

	if _, err := s.pickNode(binderCandidates, mainline); err != nil {
		s.probeBinderDriver(mainline)
	}

	binder, err := s.pickNode(binderCandidates, mainline)
	if err != nil {
		return domain.DriverSelection{}, fmt.Errorf("%w: binder: %v", waydroiderr.ErrDriverUnavailable, err)
	}
	vndbinder, err := s.pickNode(vndBinderCandidates, mainline)
	if err != nil {
		return domain.DriverSelection{}, fmt.Errorf("%w: vndbinder: %v", waydroiderr.ErrDriverUnavailable, err)
	}
	hwbinder, err := s.pickNode(hwBinderCandidates, mainline)
	if err != nil {
		return domain.DriverSelection{}, fmt.Errorf("%w: hwbinder: %v", waydroiderr.ErrDriverUnavailable, err)
	}

	return domain.DriverSelection{
		BinderNode:    binder,
		VndBinderNode: vndbinder,
		HwBinderNode:  hwbinder,
	}, nil
}

func (s *Service) pickNode(candidates []string, mainline bool) (string, error) {
	search := candidates
	if !mainline {
		search = candidates[:len(candidates)-1]
	}
	for _, node := range search {
		if domain.FileExists(filepath.Join(s.devDir, node)) {
			return node, nil
		}
	}
	return "", fmt.Errorf("no node among %v found under %s", search, s.devDir)
}

// probeBinderDriver attempts to load the binder_linux kernel module for
// whichever device nodes are still missing, then falls back to mounting
// binderfs and symlinking its allocated nodes into /dev, matching
// probeBinderDriver()/isBinderfsLoaded(). Best-effort: the subsequent
// pickNode() call in SelectBinderNodes is what actually surfaces failure.
func (s *Service) probeBinderDriver(mainline bool) {
	var missing []string
	for _, set := range [][]string{binderCandidates, vndBinderCandidates, hwBinderCandidates} {
		if _, err := s.pickNode(set, mainline); err != nil {
			missing = append(missing, set[0])
		}
	}
	if len(missing) == 0 {
		return
	}

	devicesArg := fmt.Sprintf("devices=%q", strings.Join(missing, ","))
	if out, err := exec.Command("modprobe", "binder_linux", devicesArg).CombinedOutput(); err != nil {
		s.log.WithError(err).WithField("output", strings.TrimSpace(string(out))).
			Warn("failed to load binder driver")
	}

	if !isBinderfsLoaded() {
		return
	}

	binderfsDir := filepath.Join(s.devDir, "binderfs")
	if err := os.MkdirAll(binderfsDir, 0755); err != nil {
		return
	}
	if err := exec.Command("mount", "-t", "binder", "binder", binderfsDir).Run(); err != nil {
		s.log.WithError(err).Warn("failed to mount binderfs")
		return
	}

	entries, err := filepath.Glob(filepath.Join(binderfsDir, "*"))
	if err != nil {
		return
	}
	for _, e := range entries {
		link := filepath.Join(s.devDir, filepath.Base(e))
		if domain.FileExists(link) {
			continue
		}
		_ = os.Symlink(e, link)
	}
}

// ProbeAshmem reports whether /dev/ashmem is present, attempting
// "modprobe ashmem_linux" first, matching probeAshmemDriver().
func (s *Service) ProbeAshmem() bool {
	path := filepath.Join(s.devDir, "ashmem")
	if domain.FileExists(path) {
		return true
	}

	if out, err := exec.Command("modprobe", "ashmem_linux").CombinedOutput(); err != nil {
		s.log.WithError(err).WithField("output", strings.TrimSpace(string(out))).
			Warn("failed to load ashmem driver")
	}

	return domain.FileExists(path)
}

// isBinderfsLoaded reports whether the kernel knows the "binder"
// filesystem type, by scanning /proc/filesystems, matching
// isBinderfsLoaded().
func isBinderfsLoaded() bool {
	f, err := os.Open("/proc/filesystems")
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == "binder" {
			return true
		}
	}
	return false
}

// SelectRenderNode picks a DRI render node, preferring pinned when set
// and present, else the first /dev/dri/renderD* entry, pairing it with
// its sibling /dev/dri/card node as listed under sysfs (the first
// /dev/dri/card* when sysfs lists none) and the kernel driver name
// reported under sysfs, a concern spec.md adds that has no tools/helpers/
// equivalent in the Python original (DRI passthrough predates waydroid's
// own driver probing there).
func (s *Service) SelectRenderNode(pinned string) (domain.RenderNode, error) {
	candidate := pinned
	if candidate == "" {
		matches, _ := filepath.Glob(filepath.Join(s.devDir, "dri", "renderD*"))
		if len(matches) == 0 {
			return domain.RenderNode{}, fmt.Errorf("%w: no DRI render node found under %s/dri", waydroiderr.ErrDriverUnavailable, s.devDir)
		}
		candidate = matches[0]
	} else if !domain.FileExists(candidate) {
		return domain.RenderNode{}, fmt.Errorf("%w: pinned render node %s absent", waydroiderr.ErrDriverUnavailable, candidate)
	}

	base := filepath.Base(candidate)
	minorStr := strings.TrimPrefix(base, "renderD")
	cardPath := ""
	if siblings, _ := filepath.Glob(filepath.Join("/sys/class/drm", base, "device", "drm", "card*")); len(siblings) > 0 {
		cardPath = filepath.Join(s.devDir, "dri", filepath.Base(siblings[0]))
	} else if matches, _ := filepath.Glob(filepath.Join(s.devDir, "dri", "card*")); len(matches) > 0 {
		cardPath = matches[0]
	}

	drv := readKernelDriver(base, minorStr)

	return domain.RenderNode{
		RenderPath: candidate,
		CardPath:   cardPath,
		KernelDrv:  drv,
	}, nil
}

func readKernelDriver(renderBase, minor string) string {
	link := fmt.Sprintf("/sys/class/drm/%s/device/driver", renderBase)
	target, err := os.Readlink(link)
	if err != nil {
		return ""
	}
	return filepath.Base(target)
}

// VulkanICD maps a DRM kernel driver name to its Mesa Vulkan ICD JSON
// manifest basename, falling back to Mesa's lavapipe software ICD when the
// driver is unrecognized, per spec.md §4.1's probing cascade.
func (s *Service) VulkanICD(kernelDriver string, gen int) string {
	switch kernelDriver {
	case "amdgpu":
		return "radeon_icd.x86_64.json"
	case "i915":
		return "intel_icd.x86_64.json"
	case "msm":
		return "freedreno_icd.aarch64.json"
	case "panfrost":
		return "panfrost_icd.aarch64.json"
	case "virtio_gpu", "virtio-gpu":
		return "virtio_icd.x86_64.json"
	default:
		return "lvp_icd.x86_64.json"
	}
}
