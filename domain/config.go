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

package domain

// VendorType classifies the host's VNDK compatibility, selecting the
// mount-layout and property-synthesis code paths used for the container.
type VendorType string

const (
	VendorMainline VendorType = "MAINLINE"
	vendorHaliumPrefix        = "HALIUM_"
)

// SuspendAction picks what happens to the container when the host session
// goes idle.
type SuspendAction string

const (
	SuspendFreeze SuspendAction = "freeze"
	SuspendStop   SuspendAction = "stop"
)

// Config is the on-disk general configuration, persisted under the work
// directory as a two-section key/value store (general + properties).
type Config struct {
	Arch                   string
	ImagesPath             string
	VendorType             VendorType
	BinderDriver           string
	VndBinderDriver        string
	HwBinderDriver         string
	BinderProtocol         BinderProtocolVersion
	ServiceManagerProtocol ServiceManagerProtocolVersion
	SystemOTA              string
	VendorOTA              string
	SystemDatetime         int64
	VendorDatetime         int64
	SuspendAction          SuspendAction
	MountOverlays          bool
	AutoADB                bool
	ToolsVersion           string

	// Properties holds the free-form Android property overrides from the
	// config's [properties] section, appended verbatim to the seed file.
	Properties map[string]string
}

// ConfigStoreIface persists and loads Config to/from the on-disk work
// directory. Implemented by the config package.
type ConfigStoreIface interface {
	Load() (*Config, error)
	Save(cfg *Config) error
	WorkDir() string
	Exists() bool
}
