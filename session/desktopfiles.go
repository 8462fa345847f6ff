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

package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/waydroid/waydroid/binder"
)

// launcherCategory is the Android intent category that marks an app as
// launchable from a host menu.
const launcherCategory = "android.intent.category.LAUNCHER"

// desktopFileWriter materializes .desktop launchers for installed
// Android apps under the session's XDG applications directory, matching
// user_manager.py's makeMenuFiles/makeDesktopFile/makeWaydroidDesktopFile.
type desktopFileWriter struct {
	appsDir      string
	waydroidData string
	hostHome     string
}

func newDesktopFileWriter(appsDir, waydroidData, hostHome string) *desktopFileWriter {
	return &desktopFileWriter{appsDir: appsDir, waydroidData: waydroidData, hostHome: hostHome}
}

// makeMenuFiles writes the waydroid.menu freedesktop menu fragment and
// waydroid.directory submenu descriptor, if not already present.
func (w *desktopFileWriter) makeMenuFiles() error {
	menusDir := filepath.Join(w.hostHome, ".config/menus/applications-merged")
	dirsDir := filepath.Join(w.hostHome, ".local/share/desktop-directories")

	if err := os.MkdirAll(menusDir, 0755); err != nil {
		return fmt.Errorf("session: creating menus dir: %w", err)
	}
	if err := os.MkdirAll(dirsDir, 0755); err != nil {
		return fmt.Errorf("session: creating desktop-directories dir: %w", err)
	}

	menuPath := filepath.Join(menusDir, "waydroid.menu")
	if _, err := os.Stat(menuPath); os.IsNotExist(err) {
		menu := `<!DOCTYPE Menu PUBLIC "-//freedesktop//DTD Menu 1.0//EN"
"http://www.freedesktop.org/standards/menu-spec/menu-1.0.dtd">
<Menu>
	<Name>Applications</Name>
	<Menu>
		<Name>Waydroid</Name>
		<Directory>waydroid.directory</Directory>
		<Include>
			<Category>X-WayDroid-App</Category>
		</Include>
	</Menu>
</Menu>
`
		if err := os.WriteFile(menuPath, []byte(menu), 0644); err != nil {
			return fmt.Errorf("session: writing waydroid.menu: %w", err)
		}
	}

	dirPath := filepath.Join(dirsDir, "waydroid.directory")
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		dir := "[Desktop Entry]\nName=Waydroid\nIcon=waydroid\nType=Directory\n"
		if err := os.WriteFile(dirPath, []byte(dir), 0644); err != nil {
			return fmt.Errorf("session: writing waydroid.directory: %w", err)
		}
	}
	return nil
}

// makeDesktopFile writes a launcher entry for appInfo if it exposes the
// LAUNCHER intent category and does not already have one. Returns false
// when skipped (app is not a launcher, or its desktop file already
// exists) or when writing the file fails.
func (w *desktopFileWriter) makeDesktopFile(appInfo binder.AppInfo) bool {
	launchable := false
	for _, cat := range appInfo.Categories {
		if strings.TrimSpace(cat) == launcherCategory {
			launchable = true
			break
		}
	}
	if !launchable {
		return false
	}

	path := filepath.Join(w.appsDir, "waydroid."+appInfo.PackageName+".desktop")
	if _, err := os.Stat(path); err == nil {
		return false
	}

	lines := []string{
		"[Desktop Entry]",
		"Type=Application",
		"Name=" + appInfo.Name,
		"Exec=waydroid app launch " + appInfo.PackageName,
		"Icon=" + filepath.Join(w.waydroidData, "icons", appInfo.PackageName+".png"),
		"Categories=X-WayDroid-App;",
		"X-Purism-FormFactor=Workstation;Mobile;",
		"Actions=app_settings;",
		"[Desktop Action app_settings]",
		"Name=App Settings",
		"Exec=waydroid app intent android.settings.APPLICATION_DETAILS_SETTINGS package:" + appInfo.PackageName,
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		return false
	}
	return true
}

func (w *desktopFileWriter) removeDesktopFile(packageName string) {
	path := filepath.Join(w.appsDir, "waydroid."+packageName+".desktop")
	_ = os.Remove(path)
}

// makeWaydroidDesktopFile writes the launcher for the Waydroid full-UI
// shell itself, hidden from the menu when multi-window mode is active.
func (w *desktopFileWriter) makeWaydroidDesktopFile(hide bool) error {
	path := filepath.Join(w.appsDir, "Waydroid.desktop")
	_ = os.Remove(path)

	lines := []string{
		"[Desktop Entry]",
		"Type=Application",
		"Name=Waydroid",
		"Exec=waydroid show-full-ui",
		"Categories=X-WayDroid-App;",
		"X-Purism-FormFactor=Workstation;Mobile;",
	}
	if hide {
		lines = append(lines, "NoDisplay=true")
	}
	lines = append(lines, "Icon=waydroid")

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}
