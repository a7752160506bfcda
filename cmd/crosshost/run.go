package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/portside/crosshost/boot"
	"github.com/portside/crosshost/config"
	"github.com/portside/crosshost/emul"
	"github.com/portside/crosshost/emul/guest"
	"github.com/portside/crosshost/fsops"
)

var (
	runDemo  bool
	runWatch bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runDemo, "demo", false, "Seed a demo component layout before booting")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Watch the config file and hot-swap dispatch policy tables")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot the layer and run the guest startup sequence",
	Long: "Boots the interposition layer against an emulated host runtime, runs\n" +
		"the simulated guest's startup under the fault guard, then exercises the\n" +
		"guest's channels so the policy outcomes are visible.",
	RunE: runLayer,
}

func runLayer(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, host, app, err := bootAndRunGuest(ctx, log)
	if err != nil {
		return err
	}

	fmt.Printf("identity: real %s, guest sees %s\n", rt.Identity().Real(), rt.Identity().Virtual())

	// Exercise the guest's channels through the host's inbound path.
	for _, suffix := range []string{
		"AppFeatures_getSupportedFeatures",
		"Settings_get",
		"Window_minimize",
	} {
		ch := app.Channel(suffix)
		res, err := host.Invoke(ctx, ch, nil)
		if err != nil {
			fmt.Printf("%-40s error: %v\n", suffix, err)
			continue
		}
		fmt.Printf("%-40s %v\n", suffix, res)
	}

	for _, w := range host.StockWindows().Created() {
		fmt.Printf("window %q: frame=%v titleBarStyle=%q menuBar=%v\n",
			w.Opts.Title, w.Opts.Frame != nil && *w.Opts.Frame, w.Opts.TitleBarStyle, w.MenuVisible)
	}

	if !runWatch {
		return nil
	}
	if flagConfig == "" {
		return fmt.Errorf("--watch requires --config")
	}

	reloader, err := config.NewReloader(flagConfig, log.Named("config"), func(c *config.Config) {
		table, terr := c.PolicyTable()
		if terr != nil {
			log.Warn("reloaded config has a bad dispatch section", zap.Error(terr))
			return
		}
		rt.Dispatch().SetTable(table)
	})
	if err != nil {
		return err
	}
	log.Info("watching config", zap.String("path", flagConfig))
	return reloader.Run(ctx)
}

// bootAndRunGuest loads configuration, boots the layer over a fresh emulated
// host, and runs the guest's startup sequence under the fault guard.
func bootAndRunGuest(ctx context.Context, log *zap.Logger) (*boot.Runtime, *emul.Host, *guest.App, error) {
	cfg, err := config.LoadConfig(flagConfig)
	if err != nil {
		return nil, nil, nil, err
	}

	if runDemo {
		if err := seedDemo(flagComponents, cfg); err != nil {
			return nil, nil, nil, fmt.Errorf("seed demo layout: %w", err)
		}
	}

	host := emul.NewHost(flagComponents, cfg.Staging.Root)
	rt, err := boot.Boot(ctx, cfg, host, log.Named("boot"))
	if err != nil {
		return nil, nil, nil, err
	}

	app := guest.New(cfg.Guest.Version)
	if err := boot.Guard(log.Named("guard"), func() error {
		return app.Run(ctx, rt)
	}); err != nil {
		return nil, nil, nil, err
	}
	return rt, host, app, nil
}

// seedDemo assembles a throwaway component bundle in a scratch directory and
// moves it into place, crossing filesystems when scratch and destination
// live on different devices.
func seedDemo(components string, cfg *config.Config) error {
	if _, err := os.Stat(components); err == nil {
		return nil // layout already present
	}

	scratch, err := os.MkdirTemp("", "crosshost-demo-*")
	if err != nil {
		return err
	}

	manifests := map[string]string{
		"app/main.yaml":         "name: app-main\nkind: script\nexports: [boot]\n",
		"swift_addon.node.yaml": "name: swift_addon\nkind: native\n",
		"nativeWidget.bin.yaml": "name: nativeWidget\nkind: script\nexports: [draw]\n",
	}
	for name, content := range manifests {
		p := filepath.Join(scratch, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return err
		}
	}
	if err := fsops.Move(scratch, components); err != nil {
		return err
	}

	// Substitute source the registry probes for before redirecting.
	if err := os.MkdirAll(cfg.Staging.Root, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cfg.Staging.Root, "swift-shim.yaml"),
		[]byte("name: swift-shim\nkind: script\nexports: [nativeFrame]\n"), 0o644)
}
