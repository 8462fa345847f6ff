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

package driver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waydroid/waydroid/domain"
	"github.com/waydroid/waydroid/driver"
)

func TestService_SelectBinderNodesMainlineAcceptsPlainName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dri"), 0755))
	for _, n := range []string{"binder", "vndbinder", "hwbinder"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0644))
	}

	s := driver.NewServiceAt(dir)
	sel, err := s.SelectBinderNodes(domain.VendorMainline)
	require.NoError(t, err)

	assert.Equal(t, "binder", sel.BinderNode)
	assert.Equal(t, "vndbinder", sel.VndBinderNode)
	assert.Equal(t, "hwbinder", sel.HwBinderNode)
}

func TestService_SelectBinderNodesHaliumExcludesPlainName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "binder"), nil, 0644))

	s := driver.NewServiceAt(dir)
	_, err := s.SelectBinderNodes(domain.VendorType("HALIUM_9"))
	assert.Error(t, err)
}

func TestService_SelectBinderNodesMissingIsDriverUnavailable(t *testing.T) {
	dir := t.TempDir()

	s := driver.NewServiceAt(dir)
	_, err := s.SelectBinderNodes(domain.VendorMainline)
	assert.Error(t, err)
}

func TestService_VulkanICDFallsBackToLavapipe(t *testing.T) {
	s := driver.NewService()
	assert.Equal(t, "lvp_icd.x86_64.json", s.VulkanICD("nonsense", 0))
	assert.Equal(t, "intel_icd.x86_64.json", s.VulkanICD("i915", 12))
}

func TestService_SelectRenderNode_NoneFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dri"), 0755))

	s := driver.NewServiceAt(dir)
	_, err := s.SelectRenderNode("")
	assert.Error(t, err)
}
