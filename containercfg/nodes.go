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

// Package containercfg synthesizes the LXC configuration snippets,
// node-mount entries, and Android property files the container manager
// feeds to lxcdriver.Start, the Go analogue of tools/helpers/lxc.py's
// generate_nodes_lxc_config()/make_base_props().
package containercfg

import (
	"fmt"
	"path/filepath"

	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/waydroid/waydroid/domain"
	"github.com/waydroid/waydroid/waydroiderr"
)

// NodeMountEntry is one "lxc.mount.entry" line: a device/sysfs node the
// container needs bind-mounted in from the host.
type NodeMountEntry struct {
	Source  string
	Dest    string // relative to the container rootfs
	FsType  string
	Options string
}

func (e NodeMountEntry) String() string {
	return fmt.Sprintf("lxc.mount.entry = %s %s %s %s 0 0", e.Source, e.Dest, e.FsType, e.Options)
}

type entryBuilder struct {
	tree    *iradix.Tree
	present func(string) bool
}

func newEntryBuilder(present func(string) bool) *entryBuilder {
	return &entryBuilder{tree: iradix.New(), present: present}
}

// add registers an entry keyed by its destination path, skipping it (and
// reporting false) when check is true and the source doesn't exist,
// matching make_entry()'s "optional" gate.
func (b *entryBuilder) add(src, dest, fstype, options string, check bool) bool {
	if check && !b.present(src) {
		return false
	}
	if dest == "" {
		dest = src[1:] // strip leading '/'
	}
	e := NodeMountEntry{Source: src, Dest: dest, FsType: fstype, Options: options}
	b.tree, _, _ = b.tree.Insert([]byte(dest), e)
	return true
}

// entries returns the accumulated node mounts in destination-path order.
func (b *entryBuilder) entries() []NodeMountEntry {
	var out []NodeMountEntry
	b.tree.Root().Walk(func(key []byte, val interface{}) bool {
		out = append(out, val.(NodeMountEntry))
		return false
	})
	return out
}

// SynthesizeNodeMounts builds the full set of host device/sysfs nodes the
// container needs, mirroring generate_nodes_lxc_config()'s entry list
// exactly (including the Mediatek/WSLg/var extras the distilled spec
// omitted but the original carries).
func SynthesizeNodeMounts(exists func(string) bool, sel domain.DriverSelection, vendorType string, dataDir, hostPermsDir string, globFn func(string) []string) ([]NodeMountEntry, error) {
	b := newEntryBuilder(exists)

	b.add("tmpfs", "dev", "tmpfs", "nosuid,create=dir", false)
	b.add("/dev/zero", "", "none", "bind,create=file,optional", true)
	b.add("/dev/null", "", "none", "bind,create=file,optional", true)
	b.add("/dev/full", "", "none", "bind,create=file,optional", true)
	b.add("/dev/ashmem", "", "none", "bind,create=file,optional", false)
	b.add("/dev/fuse", "", "none", "bind,create=file,optional", true)
	b.add("/dev/ion", "", "none", "bind,create=file,optional", true)
	b.add("/dev/char", "", "none", "bind,create=dir,optional", true)

	b.add("/dev/kgsl-3d0", "", "none", "bind,create=file,optional", true)
	b.add("/dev/mali0", "", "none", "bind,create=file,optional", true)
	b.add("/dev/pvr_sync", "", "none", "bind,create=file,optional", true)
	b.add("/dev/pmsg0", "", "none", "bind,create=file,optional", true)
	b.add("/dev/dxg", "", "none", "bind,create=file,optional", true)
	b.add("/dev/dri", "", "none", "bind,create=dir,optional", true)

	for _, n := range globFn("/dev/fb*") {
		b.add(n, "", "none", "bind,create=file,optional", true)
	}
	for _, n := range globFn("/dev/graphics/fb*") {
		b.add(n, "", "none", "bind,create=file,optional", true)
	}
	for _, n := range globFn("/dev/video*") {
		b.add(n, "", "none", "bind,create=file,optional", true)
	}

	b.add("/dev/"+sel.BinderNode, "dev/binder", "none", "bind,create=file,optional", false)
	b.add("/dev/"+sel.VndBinderNode, "dev/vndbinder", "none", "bind,create=file,optional", false)
	b.add("/dev/"+sel.HwBinderNode, "dev/hwbinder", "none", "bind,create=file,optional", false)

	if vendorType != string(domain.VendorMainline) {
		if !b.add("/dev/hwbinder", "dev/host_hwbinder", "none", "bind,create=file,optional", true) {
			return nil, fmt.Errorf("%w: host hwbinder node not found for non-mainline vendor", waydroiderr.ErrDriverUnavailable)
		}
		b.add("/vendor", "vendor_extra", "none", "bind,optional", false)
	}

	b.add("none", "dev/pts", "devpts", "defaults,mode=644,ptmxmode=666,create=dir", false)
	b.add("/dev/uhid", "", "none", "bind,create=file,optional", true)

	b.add("/sys/module/lowmemorykiller", "", "none", "bind,create=dir,optional", true)

	b.add("tmpfs", "mnt", "tmpfs", "mode=0755,uid=0,gid=1000,create=dir", false)
	b.add(dataDir, "data", "none", "bind", false)

	b.add(hostPermsDir, "vendor/etc/host-permissions", "none", "bind,optional", true)

	b.add("/run", "", "none", "rbind,create=dir", true)

	b.add("/dev/sw_sync", "", "none", "bind,create=file,optional", true)
	b.add("/sys/kernel/debug", "", "none", "rbind,create=dir,optional", true)

	b.add("/dev/Vcodec", "", "none", "bind,create=file,optional", true)
	b.add("/dev/MTK_SMI", "", "none", "bind,create=file,optional", true)
	b.add("/dev/mdp_sync", "", "none", "bind,create=file,optional", true)
	b.add("/dev/mtk_cmdq", "", "none", "bind,create=file,optional", true)

	b.add("tmpfs", "mnt_extra", "tmpfs", "nodev,create=dir", false)
	b.add("/mnt/wslg", "mnt_extra/wslg", "none", "rbind,create=dir,optional", true)

	b.add("tmpfs", "var", "tmpfs", "nodev,create=dir", false)
	b.add("/var/run", "", "none", "rbind,create=dir,optional", true)

	return b.entries(), nil
}

// SynthesizeSessionMounts produces the Wayland/Pulse/XDG data mounts
// specific to a single running session, rejecting any source path that
// contains a newline (prevents lxc config-file injection via a crafted
// $XDG_RUNTIME_DIR) and any path not owned by the session's UID.
func SynthesizeSessionMounts(s domain.Session, statOwnerUID func(string) (uint32, bool)) ([]NodeMountEntry, error) {
	var entries []NodeMountEntry

	addSession := func(src, dest string) error {
		if containsNewline(src) {
			return fmt.Errorf("%w: session mount source contains newline: %q", waydroiderr.ErrSessionMismatch, src)
		}
		if uid, ok := statOwnerUID(src); ok && uid != s.UID {
			return fmt.Errorf("%w: session mount source %s not owned by uid %d", waydroiderr.ErrSessionMismatch, src, s.UID)
		}
		entries = append(entries, NodeMountEntry{
			Source:  src,
			Dest:    dest,
			FsType:  "none",
			Options: "rbind,create=dir,optional",
		})
		return nil
	}

	if s.XdgRuntimeDir != "" && s.WaylandDisplay != "" {
		if err := addSession(filepath.Join(s.XdgRuntimeDir, s.WaylandDisplay), "tmp/wayland"); err != nil {
			return nil, err
		}
	}
	if s.PulseRuntimeDir != "" {
		if err := addSession(s.PulseRuntimeDir, "tmp/pulse"); err != nil {
			return nil, err
		}
	}
	if s.WaydroidData != "" {
		if err := addSession(s.WaydroidData, "data"); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

func containsNewline(s string) bool {
	for _, r := range s {
		if r == '\n' || r == '\r' {
			return true
		}
	}
	return false
}
