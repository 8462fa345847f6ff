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
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waydroid/waydroid/waydroiderr"
)

// fakeDoer serves fixed responses keyed by URL, standing in for a real
// *http.Client so tests never touch the network.
type fakeDoer struct {
	responses map[string]*http.Response
}

func (f *fakeDoer) Get(url string) (*http.Response, error) {
	resp, ok := f.responses[url]
	if !ok {
		return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(bytes.NewReader(nil))}, nil
	}
	return resp, nil
}

func jsonResponse(t *testing.T, status int, v interface{}) *http.Response {
	t.Helper()
	buf, err := json.Marshal(v)
	require.NoError(t, err)
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(buf))}
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestSyncChannel_DownloadsNewerVerifiedImage(t *testing.T) {
	zipBytes := buildZip(t, map[string]string{"system.img": "image-bytes"})
	sum := sha256.Sum256(zipBytes)

	manifest := otaManifest{Response: []OtaEntry{
		{Datetime: 100, URL: "https://ota/system.zip", Filename: "system.zip", ID: hex.EncodeToString(sum[:])},
	}}

	doer := &fakeDoer{responses: map[string]*http.Response{
		"https://ota/channel.json": jsonResponse(t, 200, manifest),
		"https://ota/system.zip":   {StatusCode: 200, Body: io.NopCloser(bytes.NewReader(zipBytes))},
	}}

	dest := t.TempDir()
	logger, _ := test.NewNullLogger()
	entry := logrus.NewEntry(logger)

	newDT, err := SyncChannel(doer, "https://ota/channel.json", dest, 0, entry)
	require.NoError(t, err)
	assert.Equal(t, int64(100), newDT)

	data, err := os.ReadFile(filepath.Join(dest, "system.img"))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
}

func TestSyncChannel_SkipsWhenNotNewer(t *testing.T) {
	manifest := otaManifest{Response: []OtaEntry{
		{Datetime: 50, URL: "https://ota/system.zip", Filename: "system.zip", ID: "deadbeef"},
	}}
	doer := &fakeDoer{responses: map[string]*http.Response{
		"https://ota/channel.json": jsonResponse(t, 200, manifest),
	}}

	logger, _ := test.NewNullLogger()
	entry := logrus.NewEntry(logger)

	newDT, err := SyncChannel(doer, "https://ota/channel.json", t.TempDir(), 100, entry)
	require.NoError(t, err)
	assert.Equal(t, int64(100), newDT)
}

func TestSyncChannel_HashMismatchLeavesNoFile(t *testing.T) {
	zipBytes := buildZip(t, map[string]string{"system.img": "image-bytes"})

	manifest := otaManifest{Response: []OtaEntry{
		{Datetime: 100, URL: "https://ota/system.zip", Filename: "system.zip", ID: "0000000000000000000000000000000000000000000000000000000000000000"},
	}}
	doer := &fakeDoer{responses: map[string]*http.Response{
		"https://ota/channel.json": jsonResponse(t, 200, manifest),
		"https://ota/system.zip":   {StatusCode: 200, Body: io.NopCloser(bytes.NewReader(zipBytes))},
	}}

	dest := t.TempDir()
	logger, _ := test.NewNullLogger()
	entry := logrus.NewEntry(logger)

	_, err := SyncChannel(doer, "https://ota/channel.json", dest, 0, entry)
	require.Error(t, err)
	assert.ErrorIs(t, err, waydroiderr.ErrImageIntegrity)

	_, statErr := os.Stat(filepath.Join(dest, "system.img"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestResolveVendorChannel_PrefersDeviceCodename(t *testing.T) {
	doer := &fakeDoer{responses: map[string]*http.Response{
		"https://ota/vendor/waydroid_x86_64/pixel9.json": {StatusCode: 200, Body: io.NopCloser(bytes.NewReader(nil))},
	}}

	url, resolved, err := ResolveVendorChannel(doer, "https://ota/vendor", "x86_64", "pixel9", "MAINLINE")
	require.NoError(t, err)
	assert.Equal(t, "pixel9", resolved)
	assert.Contains(t, url, "pixel9.json")
}

func TestResolveVendorChannel_FallsBackToVendorType(t *testing.T) {
	doer := &fakeDoer{responses: map[string]*http.Response{
		"https://ota/vendor/waydroid_x86_64/MAINLINE.json": {StatusCode: 200, Body: io.NopCloser(bytes.NewReader(nil))},
	}}

	url, resolved, err := ResolveVendorChannel(doer, "https://ota/vendor", "x86_64", "unknown-device", "MAINLINE")
	require.NoError(t, err)
	assert.Equal(t, "MAINLINE", resolved)
	assert.Contains(t, url, "MAINLINE.json")
}

func TestResolveVendorChannel_NoneReachableReturnsError(t *testing.T) {
	doer := &fakeDoer{responses: map[string]*http.Response{}}
	_, _, err := ResolveVendorChannel(doer, "https://ota/vendor", "x86_64", "pixel9", "MAINLINE")
	assert.Error(t, err)
}
