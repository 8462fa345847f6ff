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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
)

type recordingLinker struct {
	byNameErr error
	addErr    error
	setUpErr  error
	addrErr   error

	added  []netlink.Link
	upped  []netlink.Link
	addrs  []*netlink.Addr
}

func (r *recordingLinker) LinkByName(name string) (netlink.Link, error) {
	if r.byNameErr != nil {
		return nil, r.byNameErr
	}
	return &netlink.Bridge{LinkAttrs: netlink.LinkAttrs{Name: name}}, nil
}

func (r *recordingLinker) LinkAdd(link netlink.Link) error {
	r.added = append(r.added, link)
	return r.addErr
}

func (r *recordingLinker) LinkSetUp(link netlink.Link) error {
	r.upped = append(r.upped, link)
	return r.setUpErr
}

func (r *recordingLinker) AddrAdd(link netlink.Link, addr *netlink.Addr) error {
	r.addrs = append(r.addrs, addr)
	return r.addrErr
}

func TestEnsureBridge_ExistingBridgeJustBroughtUp(t *testing.T) {
	nl := &recordingLinker{}
	require.NoError(t, ensureBridge(nl))
	assert.Empty(t, nl.added)
	assert.Len(t, nl.upped, 1)
}

func TestEnsureBridge_MissingBridgeIsCreatedAndAddressed(t *testing.T) {
	nl := &recordingLinker{byNameErr: errors.New("Link not found")}
	require.NoError(t, ensureBridge(nl))
	require.Len(t, nl.added, 1)
	assert.Equal(t, bridgeName, nl.added[0].Attrs().Name)
	require.Len(t, nl.addrs, 1)
	assert.Equal(t, bridgeCIDR, nl.addrs[0].String())
	assert.Len(t, nl.upped, 1)
}

func TestEnsureBridge_LinkAddFailurePropagates(t *testing.T) {
	nl := &recordingLinker{byNameErr: errors.New("Link not found"), addErr: errors.New("permission denied")}
	err := ensureBridge(nl)
	assert.Error(t, err)
}

func TestEnsureBridge_SetUpFailurePropagates(t *testing.T) {
	nl := &recordingLinker{setUpErr: errors.New("device unavailable")}
	err := ensureBridge(nl)
	assert.Error(t, err)
}
