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

package containermgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"

	"github.com/waydroid/waydroid/domain"
)

type fakeLxc struct {
	state      domain.ContainerState
	startErr   error
	stopErr    error
	attachOut  []byte
	attachErr  error
}

func (f *fakeLxc) Status() domain.ContainerState { return f.state }
func (f *fakeLxc) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.state = domain.StateRunning
	return nil
}
func (f *fakeLxc) Stop() error {
	if f.stopErr != nil {
		return f.stopErr
	}
	f.state = domain.StateStopped
	return nil
}
func (f *fakeLxc) Freeze() error   { f.state = domain.StateFrozen; return nil }
func (f *fakeLxc) Unfreeze() error { f.state = domain.StateRunning; return nil }
func (f *fakeLxc) Attach(opts domain.AttachOptions) ([]byte, error) {
	return f.attachOut, f.attachErr
}
func (f *fakeLxc) ClassPath() (string, error) { return "", nil }

type fakeMountSvc struct {
	mounted    map[string]bool
	rolledBack []domain.Mount
}

func newFakeMountSvc() *fakeMountSvc {
	return &fakeMountSvc{mounted: map[string]bool{}}
}

func (f *fakeMountSvc) Setup(hlp domain.MountHelperIface) {}
func (f *fakeMountSvc) IsMounted(path string) (bool, error) {
	return f.mounted[path], nil
}
func (f *fakeMountSvc) Bind(src, dst string) (domain.Mount, error) {
	f.mounted[dst] = true
	return domain.Mount{Source: src, Target: dst}, nil
}
func (f *fakeMountSvc) BindFile(src, dst string) (domain.Mount, error) {
	return f.Bind(src, dst)
}
func (f *fakeMountSvc) MountOverlay(lowers []string, dst, upper, work string) (domain.Mount, error) {
	return domain.Mount{Target: dst}, nil
}
func (f *fakeMountSvc) MountImage(imgPath, dst string, readonly bool) (domain.Mount, error) {
	return domain.Mount{Source: imgPath, Target: dst}, nil
}
func (f *fakeMountSvc) UmountAll(prefix string) error {
	delete(f.mounted, prefix)
	return nil
}
func (f *fakeMountSvc) Unmount(m domain.Mount) error {
	delete(f.mounted, m.Target)
	return nil
}
func (f *fakeMountSvc) RollBack(mounts []domain.Mount) {
	f.rolledBack = append(f.rolledBack, mounts...)
	for _, m := range mounts {
		delete(f.mounted, m.Target)
	}
}

type fakeDriverSvc struct {
	sel domain.DriverSelection
	err error
}

func (f *fakeDriverSvc) SelectBinderNodes(vendorType domain.VendorType) (domain.DriverSelection, error) {
	return f.sel, f.err
}
func (f *fakeDriverSvc) ProbeAshmem() bool { return true }
func (f *fakeDriverSvc) SelectRenderNode(pinned string) (domain.RenderNode, error) {
	return domain.RenderNode{}, nil
}
func (f *fakeDriverSvc) VulkanICD(kernelDriver string, gen int) string { return "" }

type fakeCfgStore struct {
	cfg *domain.Config
}

func (f *fakeCfgStore) Load() (*domain.Config, error) { return f.cfg, nil }
func (f *fakeCfgStore) Save(cfg *domain.Config) error  { f.cfg = cfg; return nil }
func (f *fakeCfgStore) WorkDir() string                { return "/work" }
func (f *fakeCfgStore) Exists() bool                   { return true }

// fakeLinker reports the bridge as already present and up, so Start never
// touches the host's real network namespace in tests.
type fakeLinker struct {
	link netlink.Link
}

func (f *fakeLinker) LinkByName(name string) (netlink.Link, error) { return f.link, nil }
func (f *fakeLinker) LinkAdd(link netlink.Link) error               { return nil }
func (f *fakeLinker) LinkSetUp(link netlink.Link) error             { return nil }
func (f *fakeLinker) AddrAdd(link netlink.Link, addr *netlink.Addr) error { return nil }

func newTestManager(t *testing.T) (*Manager, *fakeLxc, *fakeMountSvc) {
	t.Helper()
	lxc := &fakeLxc{state: domain.StateStopped}
	mountSvc := newFakeMountSvc()
	driverSvc := &fakeDriverSvc{sel: domain.DriverSelection{BinderNode: "binder", VndBinderNode: "vndbinder", HwBinderNode: "hwbinder"}}
	cfgStore := &fakeCfgStore{cfg: &domain.Config{VendorType: domain.VendorMainline}}

	m := New("/work")
	m.Setup(lxc, mountSvc, driverSvc, cfgStore)
	m.netlink = &fakeLinker{link: &netlink.Bridge{LinkAttrs: netlink.LinkAttrs{Name: bridgeName}}}
	return m, lxc, mountSvc
}

func TestManager_StartThenGetSession(t *testing.T) {
	m, lxc, _ := newTestManager(t)

	s := domain.Session{UserName: "erfan", UID: 1000, PID: 4242, WaydroidData: "/home/erfan/.local/share/waydroid-data"}
	err := m.Start(s, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StateRunning, lxc.state)

	got, ok := m.GetSession()
	require.True(t, ok)
	assert.Equal(t, "erfan", got.UserName)
	assert.Equal(t, domain.StateRunning, got.State)
}

func TestManager_StartRefusesSecondSession(t *testing.T) {
	m, _, _ := newTestManager(t)

	s := domain.Session{UID: 1000, PID: 1}
	require.NoError(t, m.Start(s, 0, 0))

	err := m.Start(s, 0, 0)
	assert.Error(t, err)
}

func TestManager_StartValidatesCallerIdentity(t *testing.T) {
	m, _, _ := newTestManager(t)

	s := domain.Session{UID: 1000, PID: 55}
	err := m.Start(s, 1001, 55)
	assert.Error(t, err)
}

func TestManager_StartAllowsRootForAnyUser(t *testing.T) {
	m, _, _ := newTestManager(t)

	s := domain.Session{UID: 1000, PID: 55}
	err := m.Start(s, 0, 9999)
	assert.NoError(t, err)
}

func TestManager_StopIsIdempotent(t *testing.T) {
	m, lxc, _ := newTestManager(t)

	require.NoError(t, m.Stop(false))
	assert.Equal(t, domain.StateStopped, lxc.state)

	require.NoError(t, m.Stop(false))
}

func TestManager_StopRollsBackMounts(t *testing.T) {
	m, _, mountSvc := newTestManager(t)

	s := domain.Session{UID: 0, PID: 1, WaydroidData: "/data"}
	require.NoError(t, m.Start(s, 0, 0))

	require.NoError(t, m.Stop(false))
	assert.NotEmpty(t, mountSvc.rolledBack)
}

func TestManager_FreezeRequiresRunning(t *testing.T) {
	m, _, _ := newTestManager(t)
	err := m.Freeze()
	assert.Error(t, err)
}

func TestManager_FreezeUnfreezeCycle(t *testing.T) {
	m, lxc, _ := newTestManager(t)
	lxc.state = domain.StateRunning

	require.NoError(t, m.Freeze())
	assert.Equal(t, domain.StateFrozen, lxc.state)

	require.NoError(t, m.Unfreeze())
	assert.Equal(t, domain.StateRunning, lxc.state)
}

func TestManager_GetSessionEmptyWhenUntracked(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, ok := m.GetSession()
	assert.False(t, ok)
}

func TestManager_AndroidActionsNoopWhenNotRunning(t *testing.T) {
	m, _, _ := newTestManager(t)

	err := m.Screen()
	assert.NoError(t, err)

	out, err := m.Getprop("ro.build.version.sdk")
	assert.NoError(t, err)
	assert.Empty(t, out)
}

func TestManager_GetpropRunsWhenRunning(t *testing.T) {
	m, lxc, _ := newTestManager(t)
	lxc.state = domain.StateRunning
	lxc.attachOut = []byte("30\n")

	v, err := m.Getprop("ro.build.version.sdk")
	require.NoError(t, err)
	assert.Equal(t, "30", v)
}
