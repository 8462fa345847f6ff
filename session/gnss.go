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
	"context"
	"strconv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/waydroid/waydroid/binder"
)

// Location is a single position fix, matching gnss_manager.py's
// on_location_updated property set.
type Location struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
	Speed     float64
}

// LocationProvider supplies position fixes; a real implementation talks
// to org.freedesktop.GeoClue2 on the host system bus, the Go analogue of
// gnss_manager.py's Geoclue.Simple client.
type LocationProvider interface {
	Location(ctx context.Context) (Location, error)
}

// GnssService forwards host location updates into the Android property
// store, toggled by the id.waydro.StateChange "gnssStateChanged" signal,
// matching gnss_manager.py's LocationService.
type GnssService struct {
	conn     *dbus.Conn
	provider LocationProvider
	platform *binder.PlatformClient
	interval time.Duration
	log      *logrus.Entry

	cancel context.CancelFunc
}

// NewGnssService constructs a GnssService. conn is expected to be the
// host system bus; platform is used to push furios.gnss.* properties
// into the Android container.
func NewGnssService(conn *dbus.Conn, provider LocationProvider, platform *binder.PlatformClient) *GnssService {
	return &GnssService{
		conn:     conn,
		provider: provider,
		platform: platform,
		interval: 5 * time.Second,
		log:      logrus.WithField("component", "session-gnss"),
	}
}

// Start subscribes to gnssStateChanged and blocks until ctx is canceled.
func (g *GnssService) Start(ctx context.Context) error {
	if err := g.conn.AddMatchSignal(
		dbus.WithMatchInterface("id.waydro.StateChange"),
		dbus.WithMatchMember("gnssStateChanged"),
	); err != nil {
		return err
	}

	signals := make(chan *dbus.Signal, 8)
	g.conn.Signal(signals)

	for {
		select {
		case <-ctx.Done():
			g.stopTracking()
			return nil
		case sig := <-signals:
			if sig == nil || len(sig.Body) == 0 {
				continue
			}
			enabled, ok := sig.Body[0].(bool)
			if !ok {
				continue
			}
			if enabled {
				g.startTracking(ctx)
			} else {
				g.stopTracking()
			}
		}
	}
}

func (g *GnssService) startTracking(parent context.Context) {
	if g.cancel != nil {
		g.log.Info("location tracking is already running")
		return
	}
	trackCtx, cancel := context.WithCancel(parent)
	g.cancel = cancel
	go g.trackLoop(trackCtx)
}

func (g *GnssService) stopTracking() {
	if g.cancel == nil {
		return
	}
	g.cancel()
	g.cancel = nil
}

func (g *GnssService) trackLoop(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		loc, err := g.provider.Location(ctx)
		if err != nil {
			g.log.WithError(err).Error("error starting geoclue")
		} else {
			g.publish(ctx, loc)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (g *GnssService) publish(ctx context.Context, loc Location) {
	_ = g.platform.Setprop(ctx, "furios.gnss.latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	_ = g.platform.Setprop(ctx, "furios.gnss.longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	_ = g.platform.Setprop(ctx, "furios.gnss.altitude", strconv.FormatFloat(loc.Altitude, 'f', -1, 64))
	if loc.Speed != -1 {
		_ = g.platform.Setprop(ctx, "furios.gnss.speed", strconv.FormatFloat(loc.Speed, 'f', -1, 64))
	}
}
