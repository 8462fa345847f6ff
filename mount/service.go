//
// Copyright 2019-2020 Nestybox, Inc.
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

// Package mount implements the C2 mount layer: bind mounts, overlay
// composition, loop-mounted images, and recursive unmount, mirroring
// tools/helpers/mount.py's behavior with golang.org/x/sys/unix mount(2)
// calls in place of shelling out to /bin/mount.
package mount

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/waydroid/waydroid/domain"
	"github.com/waydroid/waydroid/waydroiderr"
)

// procMountsPath is a var, not a const, so tests can point it at a fixture
// file the way tools/helpers/mount.py's umount_all_list() accepts a
// "source" parameter for the same reason.
var procMountsPath = "/proc/self/mountinfo"

// kernelSupportsXinoOff is a variable so tests can override it; real
// detection happens in kernelVersionAtLeast.
var kernelSupportsXinoOff = func() bool {
	return kernelVersionAtLeast(4, 17)
}

// Service is the C2 mount layer.
type Service struct {
	mh  domain.MountHelperIface
	log *logrus.Entry
}

var _ domain.MountServiceIface = (*Service)(nil)

// NewService constructs a mount Service. Call Setup before use.
func NewService() *Service {
	return &Service{log: logrus.WithField("component", "mount")}
}

// Setup wires the mount-flag helper.
func (s *Service) Setup(hlp domain.MountHelperIface) {
	s.mh = hlp
}

// IsMounted reports whether path (after resolving symlinks) is a live
// mountpoint, working around the os.SameFile limitations that plague
// bind mounts the way Python's os.path.ismount() does (hence the manual
// /proc/mounts scan in the original).
func (s *Service) IsMounted(path string) (bool, error) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("mount: resolving %s: %w", path, err)
	}

	mounts, err := parseMountInfo(procMountsPath)
	if err != nil {
		return false, err
	}

	_, ok := mounts[real]
	return ok, nil
}

// Bind bind-mounts src onto dst, creating both if absent, matching
// tools/helpers/mount.py's bind().
func (s *Service) Bind(src, dst string) (domain.Mount, error) {
	mounted, err := s.IsMounted(dst)
	if err != nil {
		return domain.Mount{}, err
	}
	if mounted {
		return domain.Mount{Source: src, Target: dst, FsType: "bind", Flags: unix.MS_BIND}, nil
	}

	for _, p := range []string{src, dst} {
		if !domain.FileExists(p) {
			if err := os.MkdirAll(p, 0755); err != nil {
				return domain.Mount{}, fmt.Errorf("%w: creating %s: %v", waydroiderr.ErrMountFailure, p, err)
			}
		}
	}

	if err := unix.Mount(src, dst, "", unix.MS_BIND, ""); err != nil {
		return domain.Mount{}, fmt.Errorf("%w: bind %s -> %s: %v", waydroiderr.ErrMountFailure, src, dst, err)
	}

	mounted, err = s.IsMounted(dst)
	if err != nil {
		return domain.Mount{}, err
	}
	if !mounted {
		return domain.Mount{}, fmt.Errorf("%w: bind %s -> %s did not take effect", waydroiderr.ErrMountFailure, src, dst)
	}

	return domain.Mount{Source: src, Target: dst, FsType: "bind", Flags: unix.MS_BIND}, nil
}

// BindFile bind-mounts a single file, creating an empty destination file
// first if one does not exist, matching bind_file().
func (s *Service) BindFile(src, dst string) (domain.Mount, error) {
	mounted, err := s.IsMounted(dst)
	if err != nil {
		return domain.Mount{}, err
	}
	if mounted {
		return domain.Mount{Source: src, Target: dst, FsType: "bind", Flags: unix.MS_BIND}, nil
	}

	if !domain.FileExists(dst) {
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return domain.Mount{}, fmt.Errorf("%w: creating %s: %v", waydroiderr.ErrMountFailure, filepath.Dir(dst), err)
		}
		f, err := os.OpenFile(dst, os.O_CREATE, 0644)
		if err != nil {
			return domain.Mount{}, fmt.Errorf("%w: touching %s: %v", waydroiderr.ErrMountFailure, dst, err)
		}
		f.Close()
	}

	if err := unix.Mount(src, dst, "", unix.MS_BIND, ""); err != nil {
		return domain.Mount{}, fmt.Errorf("%w: bind file %s -> %s: %v", waydroiderr.ErrMountFailure, src, dst, err)
	}

	return domain.Mount{Source: src, Target: dst, FsType: "bind", Flags: unix.MS_BIND}, nil
}

// MountOverlay composes an overlayfs mount from lowers (passed to
// lowerdir in the given order, so the first entry is the topmost), an optional
// upper/work pair, and the kernel-version-gated xino=off option, per
// tools/helpers/mount.py's mount_overlay().
func (s *Service) MountOverlay(lowers []string, dst, upper, work string) (domain.Mount, error) {
	dirs := append([]string{}, lowers...)
	opts := []string{"lowerdir=" + strings.Join(lowers, ":")}

	if upper != "" {
		dirs = append(dirs, upper, work)
		opts = append(opts, "upperdir="+upper, "workdir="+work)
	}

	if kernelSupportsXinoOff() {
		opts = append(opts, "xino=off")
	}

	for _, d := range dirs {
		if !domain.FileExists(d) {
			if err := os.MkdirAll(d, 0755); err != nil {
				return domain.Mount{}, fmt.Errorf("%w: creating %s: %v", waydroiderr.ErrMountFailure, d, err)
			}
		}
	}
	if !domain.FileExists(dst) {
		if err := os.MkdirAll(dst, 0755); err != nil {
			return domain.Mount{}, fmt.Errorf("%w: creating %s: %v", waydroiderr.ErrMountFailure, dst, err)
		}
	}

	data := strings.Join(opts, ",")
	if err := unix.Mount("overlay", dst, "overlay", 0, data); err != nil {
		return domain.Mount{}, fmt.Errorf("%w: overlay -> %s: %v", waydroiderr.ErrMountFailure, dst, err)
	}

	return domain.Mount{Source: "overlay", Target: dst, FsType: "overlay", Data: data}, nil
}

// MountImage loop-mounts a filesystem image at imgPath onto dst.
func (s *Service) MountImage(imgPath, dst string, readonly bool) (domain.Mount, error) {
	if !domain.FileExists(dst) {
		if err := os.MkdirAll(dst, 0755); err != nil {
			return domain.Mount{}, fmt.Errorf("%w: creating %s: %v", waydroiderr.ErrMountFailure, dst, err)
		}
	}

	var flags uintptr
	if readonly {
		flags |= unix.MS_RDONLY
	}

	if err := unix.Mount(imgPath, dst, "ext4", flags, ""); err != nil {
		return domain.Mount{}, fmt.Errorf("%w: image %s -> %s: %v", waydroiderr.ErrMountFailure, imgPath, dst, err)
	}

	return domain.Mount{Source: imgPath, Target: dst, FsType: "ext4", Flags: uint64(flags)}, nil
}

// UmountAll unmounts every live mountpoint under prefix, deepest first,
// matching umount_all_list()/umount_all()'s reverse-sorted traversal and
// "(deleted)" suffix handling (done in parseMountInfoLine).
func (s *Service) UmountAll(prefix string) error {
	real, err := filepath.Abs(prefix)
	if err != nil {
		return fmt.Errorf("mount: resolving prefix %s: %w", prefix, err)
	}

	mounts, err := parseMountInfo(procMountsPath)
	if err != nil {
		return err
	}

	targets := mountsUnderPrefix(mounts, real)

	for _, mp := range targets {
		if err := unix.Unmount(mp, 0); err != nil {
			s.log.WithError(err).WithField("path", mp).Warn("umount failed, continuing teardown")
		}
	}

	for _, mp := range targets {
		mounted, err := s.IsMounted(mp)
		if err == nil && mounted {
			return fmt.Errorf("%w: %s still mounted after umount_all", waydroiderr.ErrMountFailure, mp)
		}
	}

	return nil
}

// Unmount reverses a single recorded Mount, logging but never
// propagating the error: teardown always tries to make progress.
func (s *Service) Unmount(m domain.Mount) error {
	if err := unix.Unmount(m.Target, 0); err != nil {
		s.log.WithError(err).WithField("path", m.Target).Warn("unmount failed during rollback")
		return nil
	}
	return nil
}

// RollBack unwinds mounts in reverse order, best-effort, matching the
// error-handling design's "all filesystem errors during teardown are
// logged but never propagated".
func (s *Service) RollBack(mounts []domain.Mount) {
	for i := len(mounts) - 1; i >= 0; i-- {
		_ = s.Unmount(mounts[i])
	}
}
