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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/waydroid/waydroid/containermgr"
	"github.com/waydroid/waydroid/driver"
	"github.com/waydroid/waydroid/lxcdriver"
	"github.com/waydroid/waydroid/mount"
	"github.com/waydroid/waydroid/pidfile"
	waydroidconfig "github.com/waydroid/waydroid/config"
)

const (
	runDir     string = "/run/waydroid"
	pidFile    string = runDir + "/container-manager.pid"
	defaultDir string = "/var/lib/waydroid"
	usage      string = `waydroid-container-manager

waydroid-container-manager owns the Android LXC container's lifecycle:
starting and stopping the session, applying device permissions, and
mediating every privileged filesystem mutation the control plane needs.
`
)

var version string

func exitHandler(signalChan chan os.Signal, mgr *containermgr.Manager) {
	s := <-signalChan
	logrus.Warnf("waydroid-container-manager caught signal: %s", s)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if err := mgr.Stop(false); err != nil {
		logrus.WithError(err).Warn("stop did not complete cleanly")
	}

	if err := pidfile.Destroy(pidFile); err != nil {
		logrus.Warnf("failed to destroy pid file: %v", err)
	}

	logrus.Info("Exiting ...")
	os.Exit(0)
}

func setupRunDir() error {
	if err := os.MkdirAll(runDir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", runDir, err)
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "waydroid-container-manager"
	app.Usage = usage
	app.Version = version

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "work-dir",
			Value: defaultDir,
			Usage: "waydroid work directory (config, overlay, vendor images)",
		},
		cli.StringFlag{
			Name:  "lxc-path",
			Value: defaultDir + "/lxc",
			Usage: "LXC container path",
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
		logrus.Info("Initiating waydroid-container-manager ...")

		if err := setupRunDir(); err != nil {
			return err
		}
		if err := pidfile.Create("waydroid-container-manager", pidFile); err != nil {
			return err
		}

		workDir := ctx.GlobalString("work-dir")

		cfgStore := waydroidconfig.New(workDir)
		mountSvc := mount.NewService()
		mountSvc.Setup(mount.NewHelper())
		driverSvc := driver.NewService()
		lxcDrv := lxcdriver.New(ctx.GlobalString("lxc-path"))

		mgr := containermgr.New(workDir)
		mgr.Setup(lxcDrv, mountSvc, driverSvc, cfgStore)

		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			return fmt.Errorf("connecting to system bus: %w", err)
		}
		defer conn.Close()

		if _, err := containermgr.Export(conn, mgr); err != nil {
			return fmt.Errorf("exporting container manager: %w", err)
		}

		exitChan := make(chan os.Signal, 1)
		signal.Notify(exitChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		go exitHandler(exitChan, mgr)

		_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

		logrus.Info("Ready ...")
		select {}
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
