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
	"fmt"

	"github.com/vishvananda/netlink"
)

const (
	// bridgeName matches the "waydroid0" link the container's
	// lxc.net.0.link config entry attaches its veth peer to, and the
	// name baked into /var/lib/misc/dnsmasq.waydroid0.leases (see
	// helpers/net.py's get_device_ip_address()).
	bridgeName = "waydroid0"
	bridgeCIDR = "192.168.240.1/24"
)

// NetworkLinker is the subset of netlink this package depends on, so
// tests can substitute a fake rather than touching the host's real
// network namespace.
type NetworkLinker interface {
	LinkByName(name string) (netlink.Link, error)
	LinkAdd(link netlink.Link) error
	LinkSetUp(link netlink.Link) error
	AddrAdd(link netlink.Link, addr *netlink.Addr) error
}

type realLinker struct{}

func (realLinker) LinkByName(name string) (netlink.Link, error) { return netlink.LinkByName(name) }
func (realLinker) LinkAdd(link netlink.Link) error               { return netlink.LinkAdd(link) }
func (realLinker) LinkSetUp(link netlink.Link) error             { return netlink.LinkSetUp(link) }
func (realLinker) AddrAdd(link netlink.Link, addr *netlink.Addr) error {
	return netlink.AddrAdd(link, addr)
}

// ensureBridge makes sure bridgeName exists and is up. When the bridge is
// absent it creates it, assigns bridgeCIDR and brings it up; when it
// already exists it is only brought up, and its address is not checked.
// There is no matching teardown — the bridge,
// like the real LXC network hook scripts it replaces, outlives any
// single container Stop.
func ensureBridge(nl NetworkLinker) error {
	link, err := nl.LinkByName(bridgeName)
	if err == nil {
		return nl.LinkSetUp(link)
	}

	br := &netlink.Bridge{
		LinkAttrs: netlink.LinkAttrs{Name: bridgeName},
	}
	if err := nl.LinkAdd(br); err != nil {
		return fmt.Errorf("containermgr: creating bridge %s: %w", bridgeName, err)
	}

	addr, err := netlink.ParseAddr(bridgeCIDR)
	if err != nil {
		return fmt.Errorf("containermgr: parsing bridge address %s: %w", bridgeCIDR, err)
	}
	if err := nl.AddrAdd(br, addr); err != nil {
		return fmt.Errorf("containermgr: assigning address to bridge %s: %w", bridgeName, err)
	}

	return nl.LinkSetUp(br)
}
