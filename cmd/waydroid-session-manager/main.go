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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/waydroid/waydroid/binder"
	"github.com/waydroid/waydroid/domain"
	"github.com/waydroid/waydroid/session"
)

const usage string = `waydroid-session-manager

waydroid-session-manager runs in the host user's session: it builds the
per-user session descriptor, drives the container manager over the
system bus, and keeps the user-monitor, clipboard, notification, and
GNSS auxiliary services alive for the lifetime of the session.
`

var version string

func main() {
	app := cli.NewApp()
	app.Name = "waydroid-session-manager"
	app.Usage = usage
	app.Version = version

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "background",
			Usage: "start without a foreground UI session attached",
		},
		cli.DurationFlag{
			Name:  "idle-timeout",
			Usage: "stop the session after this long with no serviced request (0 disables)",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "log level (debug, info, warning, error, fatal)",
		},
	}

	app.Before = func(ctx *cli.Context) error {
		logrus.SetOutput(os.Stderr)
		logrus.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
		})
		level, err := logrus.ParseLevel(ctx.GlobalString("log-level"))
		if err != nil {
			return fmt.Errorf("log-level option %q not recognized", ctx.GlobalString("log-level"))
		}
		logrus.SetLevel(level)
		return nil
	}

	app.Action = func(ctx *cli.Context) error {
		logrus.Info("Initiating waydroid-session-manager ...")

		sessionBus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("connecting to session bus: %w", err)
		}
		defer sessionBus.Close()

		systemBus, err := dbus.ConnectSystemBus()
		if err != nil {
			return fmt.Errorf("connecting to system bus: %w", err)
		}
		defer systemBus.Close()

		mgr := session.New(sessionBus, systemBus)
		if _, err := session.ExportObject(sessionBus, mgr); err != nil {
			return fmt.Errorf("exporting session object: %w", err)
		}

		runCtx, cancel := context.WithCancel(context.Background())
		defer cancel()

		opts := session.StartOpts{Background: ctx.Bool("background")}

		binderClient, err := binder.NewClient("binder", domain.BinderProtoV4)
		if err != nil {
			logrus.WithError(err).Warn("binder device unavailable, auxiliary services disabled")
		} else {
			opts.BinderClient = binderClient
			platform, err := binder.NewPlatformClient(runCtx, binderClient)
			if err != nil {
				logrus.WithError(err).Warn("waydroidplatform service unavailable")
			} else {
				opts.Platform = platform
			}
		}

		if err := mgr.Start(runCtx, opts); err != nil {
			return fmt.Errorf("starting session: %w", err)
		}

		if timeout := ctx.Duration("idle-timeout"); timeout > 0 {
			mgr.SetIdleTimeout(timeout, func() {
				logrus.Info("session idle, shutting down")
				_ = mgr.Stop()
				os.Exit(0)
			})
		}

		exitChan := make(chan os.Signal, 1)
		signal.Notify(exitChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)

		go func() {
			for s := range exitChan {
				logrus.Warnf("waydroid-session-manager caught signal: %s", s)
				switch s {
				case syscall.SIGUSR1:
					mgr.TeardownAux()
				default:
					_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
					_ = mgr.Stop()
					cancel()
					os.Exit(0)
				}
			}
		}()

		_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

		logrus.Info("Ready ...")
		select {}
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
