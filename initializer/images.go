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

// images.go ports tools/helpers/images.py's sha256sum()/get(): OTA
// manifest resolution, download, SHA-256 verification, and zip
// extraction into the images directory.
package initializer

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/waydroid/waydroid/waydroiderr"
)

// OtaEntry is one published image in an OTA channel's JSON manifest.
type OtaEntry struct {
	Datetime int64  `json:"datetime"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	ID       string `json:"id"`
}

type otaManifest struct {
	Response []OtaEntry `json:"response"`
}

// HTTPDoer is the subset of *http.Client this package depends on, so
// tests can substitute a fake transport without a real network.
type HTTPDoer interface {
	Get(url string) (*http.Response, error)
}

// ResolveVendorChannel tries the host product codename first, then the
// derived vendor-type string, returning whichever OTA URL answers 200,
// matching setup_config()'s "for vendor in [device_codename,
// get_vendor_type(args)]" loop.
func ResolveVendorChannel(client HTTPDoer, vendorChannelBase, arch, deviceCodename, vendorType string) (otaURL string, resolvedVendor string, err error) {
	candidates := []string{}
	if deviceCodename != "" {
		candidates = append(candidates, deviceCodename)
	}
	candidates = append(candidates, vendorType)

	var lastErr error
	for _, candidate := range candidates {
		url := fmt.Sprintf("%s/waydroid_%s/%s.json", vendorChannelBase, arch, candidate)
		resp, getErr := client.Get(url)
		if getErr != nil {
			lastErr = getErr
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return url, candidate, nil
		}
		lastErr = fmt.Errorf("vendor OTA channel %s returned %d", url, resp.StatusCode)
	}

	return "", "", fmt.Errorf("initializer: resolving vendor OTA channel: %w", lastErr)
}

// fetchManifest downloads and parses an OTA channel's JSON manifest.
func fetchManifest(client HTTPDoer, channelURL string) (otaManifest, error) {
	resp, err := client.Get(channelURL)
	if err != nil {
		return otaManifest{}, fmt.Errorf("initializer: fetching OTA manifest %s: %w", channelURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return otaManifest{}, fmt.Errorf("initializer: OTA manifest %s returned %d", channelURL, resp.StatusCode)
	}

	var m otaManifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return otaManifest{}, fmt.Errorf("initializer: decoding OTA manifest %s: %w", channelURL, err)
	}
	if len(m.Response) == 0 {
		return otaManifest{}, fmt.Errorf("initializer: no images published on channel %s", channelURL)
	}
	return m, nil
}

// SyncChannel fetches channelURL's manifest, downloads and verifies any
// entry newer than recordedDatetime, extracts it into imagesPath, and
// returns the new recorded datetime. Entries are tried oldest-published-
// wins-once, matching images.py's get(): the first response newer than
// the recorded value is applied and the loop breaks.
func SyncChannel(client HTTPDoer, channelURL, imagesPath string, recordedDatetime int64, log *logrus.Entry) (int64, error) {
	manifest, err := fetchManifest(client, channelURL)
	if err != nil {
		return recordedDatetime, err
	}

	for _, entry := range manifest.Response {
		if entry.Datetime <= recordedDatetime {
			continue
		}

		log.WithField("url", entry.URL).Info("downloading image")
		zipPath, err := downloadToTemp(client, entry.URL)
		if err != nil {
			return recordedDatetime, fmt.Errorf("initializer: downloading %s: %w", entry.URL, err)
		}

		sum, err := sha256File(zipPath)
		if err != nil {
			os.Remove(zipPath)
			return recordedDatetime, fmt.Errorf("initializer: hashing %s: %w", zipPath, err)
		}
		if sum != entry.ID {
			os.Remove(zipPath)
			return recordedDatetime, fmt.Errorf("%w: expected %s, got %s", waydroiderr.ErrImageIntegrity, entry.ID, sum)
		}

		log.WithField("dest", imagesPath).Info("extracting image")
		if err := extractZip(zipPath, imagesPath); err != nil {
			os.Remove(zipPath)
			return recordedDatetime, fmt.Errorf("initializer: extracting %s: %w", zipPath, err)
		}
		os.Remove(zipPath)

		return entry.Datetime, nil
	}

	return recordedDatetime, nil
}

func downloadToTemp(client HTTPDoer, url string) (string, error) {
	resp, err := client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s returned %d", url, resp.StatusCode)
	}

	f, err := os.CreateTemp("", "waydroid-image-*.zip")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func extractZip(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}

	for _, f := range r.File {
		target := filepath.Join(dest, f.Name)
		if !isWithinDir(dest, target) {
			return fmt.Errorf("extractZip: illegal path %q in archive", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, f.Mode()); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return err
		}
		_, copyErr := io.Copy(out, rc)
		rc.Close()
		out.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return nil
}

func isWithinDir(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel != ".." && !filepathHasPrefix(rel, "../")
}

func filepathHasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
