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

// Package config loads and persists the general waydroid configuration:
// a two-section INI file under the work directory, "[waydroid]" for the
// init-time settings and "[properties]" for free-form Android property
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mvo5/goconfigparser"
	"github.com/sirupsen/logrus"

	"github.com/waydroid/waydroid/domain"
)

const (
	sectionWaydroid   = "waydroid"
	sectionProperties = "properties"

	fileName = "waydroid.cfg"
)

var configKeys = []string{
	"arch",
	"images_path",
	"vendor_type",
	"system_datetime",
	"vendor_datetime",
	"suspend_action",
	"mount_overlays",
	"auto_adb",
	"tools_version",
}

// Store persists Config to a work directory, the Go analogue of
// tools/config/{load,save}.py.
type Store struct {
	workDir string
	log     *logrus.Entry
}

var _ domain.ConfigStoreIface = (*Store)(nil)

// New returns a Store rooted at workDir (typically /var/lib/waydroid).
func New(workDir string) *Store {
	return &Store{
		workDir: workDir,
		log:     logrus.WithField("component", "config"),
	}
}

// WorkDir returns the root directory this store reads and writes under.
func (s *Store) WorkDir() string {
	return s.workDir
}

// Exists reports whether the config file has been written, i.e. whether
// "waydroid init" has run.
func (s *Store) Exists() bool {
	return domain.FileExists(s.path())
}

func (s *Store) path() string {
	return filepath.Join(s.workDir, fileName)
}

// Load reads the config file, filling in defaults for any key from
// configKeys that is absent, and dropping any key under "[waydroid]"
// that is no longer configurable.
func (s *Store) Load() (*domain.Config, error) {
	cfg := goconfigparser.New()
	cfg.AllowNoSectionHeader = false

	if domain.FileExists(s.path()) {
		s.log.WithField("path", s.path()).Debug("load config")
		if err := cfg.ReadFile(s.path()); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", s.path(), err)
		}
	}

	out := &domain.Config{
		Arch:          "arm64",
		ImagesPath:    filepath.Join(s.workDir, "images"),
		VendorType:    domain.VendorMainline,
		SuspendAction: domain.SuspendFreeze,
		MountOverlays: true,
		Properties:    map[string]string{},
	}

	if v, err := cfg.Get(sectionWaydroid, "arch"); err == nil && v != "" {
		out.Arch = v
	}
	if v, err := cfg.Get(sectionWaydroid, "images_path"); err == nil && v != "" {
		out.ImagesPath = v
	}
	if v, err := cfg.Get(sectionWaydroid, "vendor_type"); err == nil && v != "" {
		out.VendorType = domain.VendorType(v)
	}
	if v, err := cfg.Get(sectionWaydroid, "binder_driver"); err == nil {
		out.BinderDriver = v
	}
	if v, err := cfg.Get(sectionWaydroid, "vndbinder_driver"); err == nil {
		out.VndBinderDriver = v
	}
	if v, err := cfg.Get(sectionWaydroid, "hwbinder_driver"); err == nil {
		out.HwBinderDriver = v
	}
	if v, err := cfg.Get(sectionWaydroid, "system_ota"); err == nil {
		out.SystemOTA = v
	}
	if v, err := cfg.Get(sectionWaydroid, "vendor_ota"); err == nil {
		out.VendorOTA = v
	}
	if v, err := cfg.GetInt64(sectionWaydroid, "system_datetime"); err == nil {
		out.SystemDatetime = v
	}
	if v, err := cfg.GetInt64(sectionWaydroid, "vendor_datetime"); err == nil {
		out.VendorDatetime = v
	}
	if v, err := cfg.Get(sectionWaydroid, "suspend_action"); err == nil && v != "" {
		out.SuspendAction = domain.SuspendAction(v)
	}
	if v, err := cfg.GetBool(sectionWaydroid, "mount_overlays"); err == nil {
		out.MountOverlays = v
	}
	if v, err := cfg.GetBool(sectionWaydroid, "auto_adb"); err == nil {
		out.AutoADB = v
	}
	if v, err := cfg.Get(sectionWaydroid, "tools_version"); err == nil {
		out.ToolsVersion = v
	}

	for _, k := range cfg.Options(sectionProperties) {
		v, err := cfg.Get(sectionProperties, k)
		if err != nil {
			continue
		}
		out.Properties[k] = v
	}

	return out, nil
}

// Save writes cfg back to the work directory, creating it (mode 0700) if
// absent.
func (s *Store) Save(cfg *domain.Config) error {
	if err := os.MkdirAll(s.workDir, 0700); err != nil {
		return fmt.Errorf("config: creating work dir %s: %w", s.workDir, err)
	}

	f, err := os.OpenFile(s.path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("config: opening %s: %w", s.path(), err)
	}
	defer f.Close()

	out := goconfigparser.New()
	out.Set(sectionWaydroid, "arch", cfg.Arch)
	out.Set(sectionWaydroid, "images_path", cfg.ImagesPath)
	out.Set(sectionWaydroid, "vendor_type", string(cfg.VendorType))
	out.Set(sectionWaydroid, "binder_driver", cfg.BinderDriver)
	out.Set(sectionWaydroid, "vndbinder_driver", cfg.VndBinderDriver)
	out.Set(sectionWaydroid, "hwbinder_driver", cfg.HwBinderDriver)
	out.Set(sectionWaydroid, "system_ota", cfg.SystemOTA)
	out.Set(sectionWaydroid, "vendor_ota", cfg.VendorOTA)
	out.Set(sectionWaydroid, "system_datetime", strconv.FormatInt(cfg.SystemDatetime, 10))
	out.Set(sectionWaydroid, "vendor_datetime", strconv.FormatInt(cfg.VendorDatetime, 10))
	out.Set(sectionWaydroid, "suspend_action", string(cfg.SuspendAction))
	out.Set(sectionWaydroid, "mount_overlays", strconv.FormatBool(cfg.MountOverlays))
	out.Set(sectionWaydroid, "auto_adb", strconv.FormatBool(cfg.AutoADB))
	out.Set(sectionWaydroid, "tools_version", cfg.ToolsVersion)

	for k, v := range cfg.Properties {
		out.Set(sectionProperties, k, v)
	}

	if err := out.Write(f); err != nil {
		return fmt.Errorf("config: writing %s: %w", s.path(), err)
	}

	s.log.WithField("path", s.path()).Debug("saved config")
	return nil
}
