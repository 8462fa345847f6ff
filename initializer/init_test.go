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
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waydroid/waydroid/domain"
)

// fakeConfigStore is a minimal in-memory domain.ConfigStoreIface.
type fakeConfigStore struct {
	workDir string
	cfg     *domain.Config
	saved   bool
	exists  bool
}

func (f *fakeConfigStore) Load() (*domain.Config, error) { return f.cfg, nil }
func (f *fakeConfigStore) Save(cfg *domain.Config) error  { f.cfg = cfg; f.saved = true; return nil }
func (f *fakeConfigStore) WorkDir() string                { return f.workDir }
func (f *fakeConfigStore) Exists() bool                   { return f.exists }

// fakeDriverService is a minimal domain.DriverServiceIface.
type fakeDriverService struct {
	sel        domain.DriverSelection
	selErr     error
	ashmem     bool
	renderNode domain.RenderNode
}

func (f *fakeDriverService) SelectBinderNodes(vendorType domain.VendorType) (domain.DriverSelection, error) {
	return f.sel, f.selErr
}
func (f *fakeDriverService) ProbeAshmem() bool { return f.ashmem }
func (f *fakeDriverService) SelectRenderNode(pinned string) (domain.RenderNode, error) {
	return f.renderNode, nil
}
func (f *fakeDriverService) VulkanICD(kernelDriver string, gen int) string { return "" }

// fakeMountService is a minimal domain.MountServiceIface.
type fakeMountService struct {
	umountErr error
}

func (f *fakeMountService) Setup(hlp domain.MountHelperIface) {}
func (f *fakeMountService) IsMounted(path string) (bool, error) { return false, nil }
func (f *fakeMountService) Bind(src, dst string) (domain.Mount, error) {
	return domain.Mount{}, nil
}
func (f *fakeMountService) BindFile(src, dst string) (domain.Mount, error) {
	return domain.Mount{}, nil
}
func (f *fakeMountService) MountOverlay(lowers []string, dst, upper, work string) (domain.Mount, error) {
	return domain.Mount{}, nil
}
func (f *fakeMountService) MountImage(imgPath, dst string, readonly bool) (domain.Mount, error) {
	return domain.Mount{}, nil
}
func (f *fakeMountService) UmountAll(prefix string) error { return f.umountErr }
func (f *fakeMountService) Unmount(m domain.Mount) error  { return nil }
func (f *fakeMountService) RollBack(mounts []domain.Mount) {}

// fakeLxcDriver is a minimal domain.LxcDriverIface, always reporting
// STOPPED so Init never attempts a stop/restart cycle unless a test opts in.
type fakeLxcDriver struct {
	status domain.ContainerState
}

func (f *fakeLxcDriver) Status() domain.ContainerState { return f.status }
func (f *fakeLxcDriver) Start() error                  { return nil }
func (f *fakeLxcDriver) Stop() error                   { return nil }
func (f *fakeLxcDriver) Freeze() error                 { return nil }
func (f *fakeLxcDriver) Unfreeze() error               { return nil }
func (f *fakeLxcDriver) Attach(opts domain.AttachOptions) ([]byte, error) {
	return nil, nil
}
func (f *fakeLxcDriver) ClassPath() (string, error) { return "", nil }

// fakeOKDoer answers every GET with 200 and an empty body, enough to drive
// setupConfig's reachability probes without a real OTA server.
type fakeOKDoer struct{}

func (fakeOKDoer) Get(url string) (*http.Response, error) {
	return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(nil))}, nil
}

func newTestDeps(t *testing.T, cs *fakeConfigStore) Deps {
	t.Helper()
	return Deps{
		ConfigStore: cs,
		Driver: &fakeDriverService{
			sel:    domain.DriverSelection{BinderNode: "/dev/binder", VndBinderNode: "/dev/vndbinder", HwBinderNode: "/dev/hwbinder"},
			ashmem: true,
		},
		Mount: &fakeMountService{},
		Lxc:   &fakeLxcDriver{status: domain.StateStopped},
		HTTP:  fakeOKDoer{},
		HostGet: func(prop string) string {
			switch prop {
			case "ro.vndk.version":
				return "31"
			case "ro.product.device":
				return "generic"
			}
			return ""
		},
		FindHAL: func(hardware string) string { return "" },
		Glob:    func(string) []string { return nil },
		Exists:  func(string) bool { return false },
	}
}

func TestInit_AlreadyInitializedSkipsWithoutForce(t *testing.T) {
	workDir := t.TempDir()
	cs := &fakeConfigStore{workDir: workDir, exists: true}
	deps := newTestDeps(t, cs)

	err := Init(context.Background(), false, workDir, DefaultChannels(), deps)
	require.NoError(t, err)
	assert.False(t, cs.saved, "Save should not be called when already initialized and force is false")
}

func TestInit_FreshWorkDirWritesLayoutAndConfig(t *testing.T) {
	workDir := t.TempDir()
	cs := &fakeConfigStore{workDir: workDir, exists: false}
	deps := newTestDeps(t, cs)

	var progressLines []string
	deps.OnProgress = func(line string) { progressLines = append(progressLines, line) }

	err := Init(context.Background(), false, workDir, DefaultChannels(), deps)
	require.NoError(t, err)

	require.True(t, cs.saved)
	assert.Equal(t, "HALIUM_12", string(cs.cfg.VendorType))
	assert.Equal(t, "/dev/binder", cs.cfg.BinderDriver)

	assert.DirExists(t, filepath.Join(workDir, "rootfs"))
	assert.DirExists(t, filepath.Join(workDir, "lxc", "waydroid"))
	assert.FileExists(t, filepath.Join(workDir, "lxc", "waydroid", "config"))
	assert.FileExists(t, filepath.Join(workDir, "lxc", "waydroid", "config_nodes"))
	assert.DirExists(t, filepath.Join(workDir, "overlay", "vendor"))
	assert.DirExists(t, filepath.Join(workDir, "overlay_rw", "system"))
	assert.DirExists(t, filepath.Join(workDir, "overlay_work", "vendor"))
	assert.DirExists(t, filepath.Join(workDir, "data"))

	assert.NotEmpty(t, progressLines)
	assert.Contains(t, progressLines[len(progressLines)-1], "done")
}

func TestInit_StopsRunningContainerAndRestarts(t *testing.T) {
	workDir := t.TempDir()
	require.NoError(t, os.MkdirAll(lxcConfigDir(workDir), 0755))

	cs := &fakeConfigStore{workDir: workDir, exists: false}
	deps := newTestDeps(t, cs)
	lxc := &fakeLxcDriver{status: domain.StateRunning}
	deps.Lxc = lxc
	deps.Exists = func(p string) bool {
		return p == lxcConfigDir(workDir)
	}

	restarted := false
	deps.Restart = func() error {
		restarted = true
		return nil
	}

	err := Init(context.Background(), false, workDir, DefaultChannels(), deps)
	require.NoError(t, err)
	assert.True(t, restarted)
}

func TestInit_ForceReinitializesEvenWhenConfigExists(t *testing.T) {
	workDir := t.TempDir()
	cs := &fakeConfigStore{workDir: workDir, exists: true}
	deps := newTestDeps(t, cs)

	err := Init(context.Background(), true, workDir, DefaultChannels(), deps)
	require.NoError(t, err)
	assert.True(t, cs.saved)
}

func TestSelectImagesPath_PrefersPreinstalled(t *testing.T) {
	preinstalled := "/opt/preinstalled"
	exists := func(p string) bool {
		return p == filepath.Join(preinstalled, "system.img") || p == filepath.Join(preinstalled, "vendor.img")
	}
	path, ok := SelectImagesPath([]string{preinstalled}, "/var/lib/waydroid", exists)
	assert.True(t, ok)
	assert.Equal(t, preinstalled, path)
}

func TestSelectImagesPath_FallsBackToWorkDirImages(t *testing.T) {
	path, ok := SelectImagesPath(nil, "/var/lib/waydroid", func(string) bool { return false })
	assert.False(t, ok)
	assert.Equal(t, filepath.Join("/var/lib/waydroid", "images"), path)
}
