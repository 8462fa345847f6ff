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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waydroid/waydroid/binder"
)

func TestDesktopFileWriter_MakeDesktopFileRequiresLauncherCategory(t *testing.T) {
	dir := t.TempDir()
	w := newDesktopFileWriter(dir, "/data", "/home/erfan")

	app := binder.AppInfo{PackageName: "com.example.app", Name: "Example", Categories: []string{"android.intent.category.DEFAULT"}}
	assert.False(t, w.makeDesktopFile(app))

	_, err := os.Stat(filepath.Join(dir, "waydroid.com.example.app.desktop"))
	assert.True(t, os.IsNotExist(err))
}

func TestDesktopFileWriter_MakeDesktopFileWritesLauncher(t *testing.T) {
	dir := t.TempDir()
	w := newDesktopFileWriter(dir, "/data", "/home/erfan")

	app := binder.AppInfo{PackageName: "com.example.app", Name: "Example", Categories: []string{"android.intent.category.LAUNCHER"}}
	require.True(t, w.makeDesktopFile(app))

	data, err := os.ReadFile(filepath.Join(dir, "waydroid.com.example.app.desktop"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Exec=waydroid app launch com.example.app")
	assert.Contains(t, string(data), "Name=Example")
}

func TestDesktopFileWriter_MakeDesktopFileSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	w := newDesktopFileWriter(dir, "/data", "/home/erfan")
	app := binder.AppInfo{PackageName: "com.example.app", Name: "Example", Categories: []string{"android.intent.category.LAUNCHER"}}

	require.True(t, w.makeDesktopFile(app))
	assert.False(t, w.makeDesktopFile(app))
}

func TestDesktopFileWriter_RemoveDesktopFile(t *testing.T) {
	dir := t.TempDir()
	w := newDesktopFileWriter(dir, "/data", "/home/erfan")
	app := binder.AppInfo{PackageName: "com.example.app", Name: "Example", Categories: []string{"android.intent.category.LAUNCHER"}}
	require.True(t, w.makeDesktopFile(app))

	w.removeDesktopFile("com.example.app")
	_, err := os.Stat(filepath.Join(dir, "waydroid.com.example.app.desktop"))
	assert.True(t, os.IsNotExist(err))
}

func TestDesktopFileWriter_MakeWaydroidDesktopFile(t *testing.T) {
	dir := t.TempDir()
	w := newDesktopFileWriter(dir, "/data", "/home/erfan")

	require.NoError(t, w.makeWaydroidDesktopFile(true))
	data, err := os.ReadFile(filepath.Join(dir, "Waydroid.desktop"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "NoDisplay=true")

	require.NoError(t, w.makeWaydroidDesktopFile(false))
	data, err = os.ReadFile(filepath.Join(dir, "Waydroid.desktop"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "NoDisplay=true")
}

func TestDesktopFileWriter_MakeMenuFiles(t *testing.T) {
	home := t.TempDir()
	w := newDesktopFileWriter(t.TempDir(), "/data", home)

	require.NoError(t, w.makeMenuFiles())

	menuPath := filepath.Join(home, ".config/menus/applications-merged/waydroid.menu")
	dirPath := filepath.Join(home, ".local/share/desktop-directories/waydroid.directory")

	_, err := os.Stat(menuPath)
	assert.NoError(t, err)
	_, err = os.Stat(dirPath)
	assert.NoError(t, err)
}
