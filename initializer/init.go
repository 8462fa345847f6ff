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
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/waydroid/waydroid/containercfg"
	"github.com/waydroid/waydroid/domain"
)

// Channels names the OTA endpoints init() resolves against, matching
// tools/config/__init__.py's channels_defaults.
type Channels struct {
	SystemChannel string
	VendorChannel string
	RomType       string
	SystemType    string
}

const (
	defaultSystemChannel = "https://ota.waydro.id/system"
	defaultVendorChannel = "https://ota.waydro.id/vendor"
	defaultRomType       = "lineage"
	defaultSystemType    = "VANILLA"
)

// DefaultChannels returns the published waydro.id channel set.
func DefaultChannels() Channels {
	return Channels{
		SystemChannel: defaultSystemChannel,
		VendorChannel: defaultVendorChannel,
		RomType:       defaultRomType,
		SystemType:    defaultSystemType,
	}
}

// IsDefault reports whether c matches DefaultChannels(), the gate
// DbusInitializer uses to decide whether a Polkit check is required.
func (c Channels) IsDefault() bool {
	return c == DefaultChannels()
}

// Deps wires the C1-C4 service handles and the host-environment probes
// Init/Upgrade need, following the teacher's Setup(deps...) convention
// rather than package-level globals.
type Deps struct {
	ConfigStore domain.ConfigStoreIface
	Driver      domain.DriverServiceIface
	Mount       domain.MountServiceIface
	Lxc         domain.LxcDriverIface

	HTTP    HTTPDoer
	HostGet func(prop string) string
	FindHAL containercfg.HalProbe

	Glob   func(pattern string) []string
	Exists func(path string) bool

	// OnProgress, when set, receives a human-readable line for every
	// major step Init takes, the in-process stand-in for the original's
	// piped stdout/stderr that DbusInitializer turns into
	// ProgressChanged signals.
	OnProgress func(line string)

	// PreinstalledImagePaths are searched, in order, for a directory
	// already holding system.img and vendor.img before a default path
	// under the work directory is used, matching
	// defaults["preinstalled_images_paths"].
	PreinstalledImagePaths []string

	// Offline skips the OTA fetch step entirely, matching upgrade()'s
	// offline flag (also honored by Init, which never refetches images
	// already present at a preinstalled path).
	Offline bool

	// Restart is invoked once, at the very end of a successful Init,
	// only when the container was running before it began; it is the
	// caller's job to request a restart of C6 with the preserved
	// session descriptor (the initializer package has no dependency on
	// containermgr/session to avoid a cross-package cycle). A failure
	// here is logged, never surfaced.
	Restart func() error
}

func (d Deps) log() *logrus.Entry {
	return logrus.WithField("component", "initializer")
}

func (d Deps) progress(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	d.log().Info(msg)
	if d.OnProgress != nil {
		d.OnProgress(msg)
	}
}

// SelectImagesPath returns the first preinstalled directory holding both
// system.img and vendor.img, else workDir/images, matching init()'s
// implicit "args.images_path" resolution against
// defaults["preinstalled_images_paths"].
func SelectImagesPath(preinstalled []string, workDir string, exists func(string) bool) (path string, isPreinstalled bool) {
	for _, dir := range preinstalled {
		if exists(filepath.Join(dir, "system.img")) && exists(filepath.Join(dir, "vendor.img")) {
			return dir, true
		}
	}
	return filepath.Join(workDir, "images"), false
}

func rootfsDir(workDir string) string    { return filepath.Join(workDir, "rootfs") }
func lxcConfigDir(workDir string) string { return filepath.Join(workDir, "lxc", "waydroid") }
func hostPermsDir(workDir string) string { return filepath.Join(workDir, "host-permissions") }

// Init is the one-shot bootstrap: architecture/vendor-type detection,
// image acquisition, binder node persistence, and the base LXC
// config/props/mount-file writes, matching
// tools/actions/initializer.py's init()/setup_config().
func Init(ctx context.Context, force bool, workDir string, channels Channels, deps Deps) error {
	log := deps.log()

	if deps.ConfigStore.Exists() && !force {
		log.Info("already initialized")
		return nil
	}

	deps.progress("resolving architecture, vendor type, and OTA channels")
	cfg, vendorTypeResolved, err := setupConfig(workDir, channels, deps)
	if err != nil {
		return err
	}

	wasRunning := false
	if deps.Exists(lxcConfigDir(workDir)) {
		if status := deps.Lxc.Status(); status != domain.StateStopped {
			wasRunning = true
			deps.progress("stopping container")
			if err := deps.Lxc.Stop(); err != nil {
				log.WithError(err).Warn("stop did not complete cleanly")
			}
		}
	}

	if err := deps.Mount.UmountAll(rootfsDir(workDir)); err != nil {
		log.WithError(err).Warn("umount rootfs did not complete cleanly")
	}

	imagesPath, preinstalled := SelectImagesPath(deps.PreinstalledImagePaths, workDir, deps.Exists)
	cfg.ImagesPath = imagesPath

	if !deps.Offline && !preinstalled {
		deps.progress("fetching images")
		if err := fetchImages(ctx, cfg, imagesPath, deps); err != nil {
			return err
		}
	}

	if err := deps.ConfigStore.Save(cfg); err != nil {
		return fmt.Errorf("initializer: saving config: %w", err)
	}

	if !deps.Exists(rootfsDir(workDir)) {
		if err := os.MkdirAll(rootfsDir(workDir), 0755); err != nil {
			return fmt.Errorf("initializer: creating rootfs dir: %w", err)
		}
	}

	sku := deps.HostGet("ro.boot.product.hardware.sku")
	if err := SetupHostPerms(hostPermsDir(workDir), sku, deps.Glob, deps.Exists); err != nil {
		log.WithError(err).Warn("setting up host permissions failed")
	}

	sel, err := deps.Driver.SelectBinderNodes(domain.VendorType(vendorTypeResolved))
	if err != nil {
		return fmt.Errorf("initializer: %w", err)
	}
	cfg.BinderDriver = sel.BinderNode
	cfg.VndBinderDriver = sel.VndBinderNode
	cfg.HwBinderDriver = sel.HwBinderNode
	if err := deps.ConfigStore.Save(cfg); err != nil {
		return fmt.Errorf("initializer: saving config: %w", err)
	}

	deps.progress("writing container configuration")
	if err := writeLxcConfig(workDir, cfg, sel, deps); err != nil {
		return err
	}

	if err := writeBaseProps(workDir, cfg, deps); err != nil {
		return err
	}

	if err := createOverlaySkeletons(workDir); err != nil {
		return err
	}

	if wasRunning {
		if deps.Restart != nil {
			deps.progress("restarting container")
			if err := deps.Restart(); err != nil {
				log.WithError(err).Warn("restart after init failed, container left stopped")
			}
		}
	}

	deps.progress("done")
	return nil
}

func setupConfig(workDir string, channels Channels, deps Deps) (*domain.Config, string, error) {
	arch := HostArch()

	systemOTA := fmt.Sprintf("%s/%s/waydroid_%s/%s.json", channels.SystemChannel, channels.RomType, arch, channels.SystemType)
	if !deps.Offline {
		resp, err := deps.HTTP.Get(systemOTA)
		if err != nil {
			return nil, "", fmt.Errorf("initializer: reaching system OTA channel %s: %w", systemOTA, err)
		}
		resp.Body.Close()
		if resp.StatusCode != 200 {
			return nil, "", fmt.Errorf("initializer: system OTA channel %s returned %d", systemOTA, resp.StatusCode)
		}
	}

	vndk := deps.HostGet("ro.vndk.version")
	vendorType := DeriveVendorType(vndk)

	vendorOTA := ""
	if !deps.Offline {
		deviceCodename := deps.HostGet("ro.product.device")
		url, _, err := ResolveVendorChannel(deps.HTTP, channels.VendorChannel, arch, deviceCodename, string(vendorType))
		if err != nil {
			return nil, "", fmt.Errorf("initializer: %w", err)
		}
		vendorOTA = url
	}

	cfg := &domain.Config{
		Arch:          arch,
		VendorType:    vendorType,
		SystemOTA:     systemOTA,
		VendorOTA:     vendorOTA,
		SuspendAction: domain.SuspendFreeze,
		MountOverlays: true,
		Properties:    map[string]string{},
	}

	return cfg, string(vendorType), nil
}

func fetchImages(ctx context.Context, cfg *domain.Config, imagesPath string, deps Deps) error {
	log := deps.log()

	newSystemDT, err := SyncChannel(deps.HTTP, cfg.SystemOTA, imagesPath, cfg.SystemDatetime, log)
	if err != nil {
		return fmt.Errorf("initializer: syncing system image: %w", err)
	}
	cfg.SystemDatetime = newSystemDT

	newVendorDT, err := SyncChannel(deps.HTTP, cfg.VendorOTA, imagesPath, cfg.VendorDatetime, log)
	if err != nil {
		return fmt.Errorf("initializer: syncing vendor image: %w", err)
	}
	cfg.VendorDatetime = newVendorDT

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func writeLxcConfig(workDir string, cfg *domain.Config, sel domain.DriverSelection, deps Deps) error {
	if err := os.MkdirAll(lxcConfigDir(workDir), 0755); err != nil {
		return fmt.Errorf("initializer: creating lxc config dir: %w", err)
	}

	base, err := containercfg.SynthesizeBaseConfig(cfg.Arch, true)
	if err != nil {
		return fmt.Errorf("initializer: %w", err)
	}
	if err := os.WriteFile(filepath.Join(lxcConfigDir(workDir), "config"), []byte(base), 0644); err != nil {
		return fmt.Errorf("initializer: writing lxc config: %w", err)
	}

	nodes, err := containercfg.SynthesizeNodeMounts(deps.Exists, sel, string(cfg.VendorType), dataDirFor(workDir), hostPermsDir(workDir), deps.Glob)
	if err != nil {
		return fmt.Errorf("initializer: %w", err)
	}
	var nodesText string
	for _, e := range nodes {
		nodesText += e.String() + "\n"
	}
	if err := os.WriteFile(filepath.Join(lxcConfigDir(workDir), "config_nodes"), []byte(nodesText), 0644); err != nil {
		return fmt.Errorf("initializer: writing lxc node mounts: %w", err)
	}

	return nil
}

func writeBaseProps(workDir string, cfg *domain.Config, deps Deps) error {
	props, err := containercfg.SynthesizeBaseProperties(cfg, deps.HostGet, deps.FindHAL)
	if err != nil {
		return fmt.Errorf("initializer: %w", err)
	}
	if !deps.Driver.ProbeAshmem() {
		props["sys.use_memfd"] = "false"
	}
	return containercfg.WriteBasePropFile(workDir, props)
}

// createOverlaySkeletons lays out the empty overlay/overlay_rw/
// overlay_work directory tree from spec.md §6's on-disk layout, so the
// mount layer never has to create them mid-Start.
func createOverlaySkeletons(workDir string) error {
	dirs := []string{
		filepath.Join(workDir, "overlay"),
		filepath.Join(workDir, "overlay", "vendor"),
		filepath.Join(workDir, "overlay_rw", "system"),
		filepath.Join(workDir, "overlay_rw", "vendor"),
		filepath.Join(workDir, "overlay_work", "system"),
		filepath.Join(workDir, "overlay_work", "vendor"),
		filepath.Join(workDir, "data"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("initializer: creating %s: %w", d, err)
		}
	}
	return nil
}

func dataDirFor(workDir string) string {
	return filepath.Join(workDir, "data")
}
