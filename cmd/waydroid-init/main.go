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
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	waydroidconfig "github.com/waydroid/waydroid/config"
	"github.com/waydroid/waydroid/driver"
	"github.com/waydroid/waydroid/initializer"
	"github.com/waydroid/waydroid/lxcdriver"
	"github.com/waydroid/waydroid/mount"
)

const (
	// initializerBusName is the well-known system-bus name waydroid-init
	// claims in --serve mode; distinct from containermgr.BusName since
	// this runs as its own process rather than sharing the container
	// manager's connection, with initializer.ObjectPath/InterfaceName
	// reachable through it.
	initializerBusName string = "id.waydro.Initializer"
	defaultDir         string = "/var/lib/waydroid"
	usage              string = `waydroid-init

waydroid-init bootstraps or upgrades a waydroid installation: it detects
the host's architecture and vendor type, downloads or locates the system
and vendor images, lays out the binder device nodes and LXC container
config, and (on the system bus) exposes the same as id.waydro.Initializer
so the session manager can trigger a first-run install remotely.
`
)

var version string

// hostGetprop shells to the host getprop binary when present, matching
// tools/helpers/props.py's host_get(): silently returns "" when getprop
// isn't on PATH (common off-device, e.g. under a desktop Linux waydroid
// build) rather than failing outright.
func hostGetprop(prop string) string {
	path, err := exec.LookPath("getprop")
	if err != nil {
		return ""
	}
	out, err := exec.Command(path, prop).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// findHAL walks the ro.hardware.<name>/ro.hardware/ro.product.board/
// ro.arch/ro.board.platform fallback chain and resolves the first
// vendor HAL .so a readlink -f can reach, matching lxc.py's find_hal().
func findHAL(hardware string) string {
	candidates := []string{
		"ro.hardware." + hardware,
		"ro.hardware",
		"ro.product.board",
		"ro.arch",
		"ro.board.platform",
	}
	for _, prop := range candidates {
		val := hostGetprop(prop)
		if val == "" {
			continue
		}
		for _, lib := range []string{"lib", "lib64"} {
			halFile := fmt.Sprintf("/vendor/%s/hw/%s.%s.so", lib, hardware, val)
			resolved, err := filepath.EvalSymlinks(halFile)
			if err != nil {
				continue
			}
			if info, err := os.Stat(resolved); err == nil && !info.IsDir() {
				return val
			}
		}
	}
	return ""
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func globMatches(pattern string) []string {
	matches, _ := filepath.Glob(pattern)
	return matches
}

func buildDeps(workDir string) initializer.Deps {
	mountSvc := mount.NewService()
	mountSvc.Setup(mount.NewHelper())

	return initializer.Deps{
		ConfigStore: waydroidconfig.New(workDir),
		Driver:      driver.NewService(),
		Mount:       mountSvc,
		Lxc:         lxcdriver.New(filepath.Join(workDir, "lxc")),
		HTTP:        &http.Client{Timeout: 2 * time.Minute},
		HostGet:     hostGetprop,
		FindHAL:     findHAL,
		Glob:        globMatches,
		Exists:      pathExists,
		PreinstalledImagePaths: []string{
			"/usr/share/waydroid-extra/images",
			"/etc/waydroid-extra/images",
		},
	}
}

func main() {
	app := cli.NewApp()
	app.Name = "waydroid-init"
	app.Usage = usage
	app.Version = version

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "work-dir",
			Value: defaultDir,
			Usage: "waydroid work directory (config, overlay, vendor images)",
		},
		cli.BoolFlag{
			Name:  "force",
			Usage: "reinitialize even if already initialized",
		},
		cli.BoolFlag{
			Name:  "offline",
			Usage: "skip the OTA image fetch, requiring a preinstalled images path",
		},
		cli.StringFlag{
			Name:  "system-channel",
			Value: "",
			Usage: "override the system image OTA channel base URL",
		},
		cli.StringFlag{
			Name:  "vendor-channel",
			Value: "",
			Usage: "override the vendor image OTA channel base URL",
		},
		cli.StringFlag{
			Name:  "system-type",
			Value: "",
			Usage: "override the system image type (VANILLA, GAPPS, ...)",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "log level (debug, info, warning, error, fatal)",
		},
		cli.BoolFlag{
			Name:  "serve",
			Usage: "export id.waydro.Initializer on the system bus and wait, instead of running once",
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
		workDir := ctx.GlobalString("work-dir")
		deps := buildDeps(workDir)
		deps.Offline = ctx.GlobalBool("offline")
		deps.OnProgress = func(line string) { fmt.Println(line) }

		channels := initializer.DefaultChannels()
		if v := ctx.GlobalString("system-channel"); v != "" {
			channels.SystemChannel = v
		}
		if v := ctx.GlobalString("vendor-channel"); v != "" {
			channels.VendorChannel = v
		}
		if v := ctx.GlobalString("system-type"); v != "" {
			channels.SystemType = v
		}

		if ctx.GlobalBool("serve") {
			return serve(workDir, deps)
		}

		if deps.ConfigStore.Exists() && !ctx.GlobalBool("force") {
			logrus.Info("already initialized, use --force to reinitialize or run the upgrade subcommand")
			return initializer.Upgrade(context.Background(), deps.Offline, workDir, channels, deps)
		}
		return initializer.Init(context.Background(), ctx.GlobalBool("force"), workDir, channels, deps)
	}

	app.Commands = []cli.Command{
		{
			Name:  "upgrade",
			Usage: "refresh images and re-synthesize the container config against the installed channels",
			Action: func(ctx *cli.Context) error {
				workDir := ctx.GlobalString("work-dir")
				deps := buildDeps(workDir)
				deps.OnProgress = func(line string) { fmt.Println(line) }
				return initializer.Upgrade(context.Background(), ctx.GlobalBool("offline"), workDir, initializer.DefaultChannels(), deps)
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

// serve exports id.waydro.Initializer on the system bus and blocks,
// letting the session manager (or any Polkit-authorized caller) trigger
// Init remotely, matching spec.md §4.8's "remote init service" paragraph.
func serve(workDir string, deps initializer.Deps) error {
	logrus.Info("Initiating waydroid-init (serve mode) ...")

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("connecting to system bus: %w", err)
	}
	defer conn.Close()

	reply, err := conn.RequestName(initializerBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("requesting bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already owned by another process", initializerBusName)
	}

	if _, err := initializer.ExportDbusInitializer(conn, workDir, deps); err != nil {
		return fmt.Errorf("exporting initializer: %w", err)
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	logrus.Info("Ready ...")
	select {}
}
