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

package binder

import (
	"context"

	"github.com/waydroid/waydroid/domain"
)

// Transaction codes for lineageos.waydroid.IPlatform.
const (
	platformInterface = "lineageos.waydroid.IPlatform"
	platformService    = "waydroidplatform"

	txGetprop         uint32 = 1
	txSetprop         uint32 = 2
	txGetAppsInfo     uint32 = 3
	txGetAppInfo      uint32 = 4
	txInstallApp      uint32 = 5
	txRemoveApp       uint32 = 6
	txLaunchApp       uint32 = 7
	txGetAppName      uint32 = 8
	txSettingsPutStr  uint32 = 9
	txSettingsGetStr  uint32 = 10
	txSettingsPutInt  uint32 = 11
	txSettingsGetInt  uint32 = 12
	txLaunchIntent    uint32 = 13
)

// AppInfo mirrors the dictionary IPlatform.getAppInfo/getAppsInfo return on
// the Android side.
type AppInfo struct {
	Name                  string
	PackageName           string
	Action                string
	LaunchIntent          string
	ComponentPackageName  string
	ComponentClassName    string
	Categories            []string
}

// PlatformClient calls the Android-side waydroidplatform service exposed by
// IPlatform, matching spec.md §4.5/§6.
type PlatformClient struct {
	client *Client
	handle domain.BinderHandle
}

// NewPlatformClient resolves the waydroidplatform service and returns a
// typed client over it.
func NewPlatformClient(ctx context.Context, c *Client) (*PlatformClient, error) {
	if err := c.WaitServiceManager(ctx); err != nil {
		return nil, err
	}
	h, err := c.GetService(ctx, platformService)
	if err != nil {
		return nil, err
	}
	return &PlatformClient{client: c, handle: h}, nil
}

func (p *PlatformClient) call(ctx context.Context, code uint32, req []byte) (*Reader, error) {
	reply, err := p.client.Call(ctx, p.handle, code, req)
	if err != nil {
		return nil, err
	}
	if reply.Exception != 0 {
		return nil, nil
	}
	return NewReader(reply.Data), nil
}

// Getprop reads an Android system property through the platform service.
func (p *PlatformClient) Getprop(ctx context.Context, key, def string) (string, error) {
	w := NewWriter()
	w.WriteString16(key)
	w.WriteString16(def)

	r, err := p.call(ctx, txGetprop, w.Bytes())
	if err != nil || r == nil {
		return def, err
	}
	s, ok, err := r.ReadString16()
	if err != nil || !ok {
		return def, err
	}
	return s, nil
}

// Setprop sets an Android system property through the platform service.
func (p *PlatformClient) Setprop(ctx context.Context, key, value string) error {
	w := NewWriter()
	w.WriteString16(key)
	w.WriteString16(value)

	_, err := p.call(ctx, txSetprop, w.Bytes())
	return err
}

// GetAppsInfo lists installed Android applications.
func (p *PlatformClient) GetAppsInfo(ctx context.Context) ([]AppInfo, error) {
	r, err := p.call(ctx, txGetAppsInfo, nil)
	if err != nil || r == nil {
		return nil, err
	}

	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}

	apps := make([]AppInfo, 0, n)
	for i := int32(0); i < n; i++ {
		hasValue, err := r.ReadInt32()
		if err != nil {
			return apps, err
		}
		if hasValue != 1 {
			continue
		}
		info, err := readAppInfo(r)
		if err != nil {
			return apps, err
		}
		apps = append(apps, info)
	}
	return apps, nil
}

// GetAppInfo fetches a single application's info by package name.
func (p *PlatformClient) GetAppInfo(ctx context.Context, packageName string) (*AppInfo, error) {
	w := NewWriter()
	w.WriteString16(packageName)

	r, err := p.call(ctx, txGetAppInfo, w.Bytes())
	if err != nil || r == nil {
		return nil, err
	}

	hasValue, err := r.ReadInt32()
	if err != nil || hasValue != 1 {
		return nil, err
	}
	info, err := readAppInfo(r)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func readAppInfo(r *Reader) (AppInfo, error) {
	var info AppInfo
	var err error

	if info.Name, _, err = r.ReadString16(); err != nil {
		return info, err
	}
	if info.PackageName, _, err = r.ReadString16(); err != nil {
		return info, err
	}
	if info.Action, _, err = r.ReadString16(); err != nil {
		return info, err
	}
	if info.LaunchIntent, _, err = r.ReadString16(); err != nil {
		return info, err
	}
	if info.ComponentPackageName, _, err = r.ReadString16(); err != nil {
		return info, err
	}
	if info.ComponentClassName, _, err = r.ReadString16(); err != nil {
		return info, err
	}

	n, err := r.ReadInt32()
	if err != nil {
		return info, err
	}
	info.Categories = make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		cat, _, err := r.ReadString16()
		if err != nil {
			return info, err
		}
		info.Categories = append(info.Categories, cat)
	}
	return info, nil
}

// InstallApp requests installation of the APK at path, returning the
// Android-side result code.
func (p *PlatformClient) InstallApp(ctx context.Context, path string) (int32, error) {
	w := NewWriter()
	w.WriteString16(path)

	r, err := p.call(ctx, txInstallApp, w.Bytes())
	if err != nil || r == nil {
		return -1, err
	}
	return r.ReadInt32()
}

// RemoveApp requests removal of packageName, returning the Android-side
// result code.
func (p *PlatformClient) RemoveApp(ctx context.Context, packageName string) (int32, error) {
	w := NewWriter()
	w.WriteString16(packageName)

	r, err := p.call(ctx, txRemoveApp, w.Bytes())
	if err != nil || r == nil {
		return -1, err
	}
	return r.ReadInt32()
}

// LaunchApp requests that the Android side launch packageName.
func (p *PlatformClient) LaunchApp(ctx context.Context, packageName string) error {
	w := NewWriter()
	w.WriteString16(packageName)
	_, err := p.call(ctx, txLaunchApp, w.Bytes())
	return err
}

// LaunchIntent forwards an Android intent action/URI pair, returning any
// launcher response string.
func (p *PlatformClient) LaunchIntent(ctx context.Context, action, uri string) (string, error) {
	w := NewWriter()
	w.WriteString16(action)
	w.WriteString16(uri)

	r, err := p.call(ctx, txLaunchIntent, w.Bytes())
	if err != nil || r == nil {
		return "", err
	}
	s, _, err := r.ReadString16()
	return s, err
}

// GetAppName resolves packageName to its Android-side display label.
func (p *PlatformClient) GetAppName(ctx context.Context, packageName string) (string, error) {
	w := NewWriter()
	w.WriteString16(packageName)

	r, err := p.call(ctx, txGetAppName, w.Bytes())
	if err != nil || r == nil {
		return "", err
	}
	s, _, err := r.ReadString16()
	return s, err
}

// SettingsPutString writes a value into one of Android's Settings tables
// (table is Settings.Global/Secure/System's integer selector).
func (p *PlatformClient) SettingsPutString(ctx context.Context, table int32, key, value string) error {
	w := NewWriter()
	w.WriteInt32(table)
	w.WriteString16(key)
	w.WriteString16(value)

	_, err := p.call(ctx, txSettingsPutStr, w.Bytes())
	return err
}

// SettingsGetString reads a value from one of Android's Settings tables.
func (p *PlatformClient) SettingsGetString(ctx context.Context, table int32, key string) (string, error) {
	w := NewWriter()
	w.WriteInt32(table)
	w.WriteString16(key)

	r, err := p.call(ctx, txSettingsGetStr, w.Bytes())
	if err != nil || r == nil {
		return "", err
	}
	s, _, err := r.ReadString16()
	return s, err
}

// SettingsPutInt writes an integer value into one of Android's Settings
// tables.
func (p *PlatformClient) SettingsPutInt(ctx context.Context, table int32, key string, value int32) error {
	w := NewWriter()
	w.WriteInt32(table)
	w.WriteString16(key)
	w.WriteInt32(value)

	_, err := p.call(ctx, txSettingsPutInt, w.Bytes())
	return err
}

// SettingsGetInt reads an integer value from one of Android's Settings
// tables.
func (p *PlatformClient) SettingsGetInt(ctx context.Context, table int32, key string) (int32, error) {
	w := NewWriter()
	w.WriteInt32(table)
	w.WriteString16(key)

	r, err := p.call(ctx, txSettingsGetInt, w.Bytes())
	if err != nil || r == nil {
		return 0, err
	}
	return r.ReadInt32()
}
