// crosshost boots the identity and call interposition layer over the
// emulated host runtime and drives the simulated guest build under it.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/portside/crosshost/dispatch"
	"github.com/portside/crosshost/resolver"
	"github.com/portside/crosshost/window"
)

var (
	flagConfig     string
	flagComponents string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "crosshost",
	Short: "Runtime identity and call interposition layer",
	Long: "Installs environment-identity virtualization, component substitution,\n" +
		"dispatch policy interception, and window-constructor normalization into\n" +
		"a host runtime before the guest application loads.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config YAML path (defaults apply when absent)")
	rootCmd.PersistentFlags().StringVar(&flagComponents, "components", "components", "Component manifest directory")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
}

// newLogger builds the process logger and hands package-scoped children to
// the layers that log on their own.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !flagVerbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	resolver.SetLogger(log.Named("resolver"))
	dispatch.SetLogger(log.Named("dispatch"))
	window.SetLogger(log.Named("window"))
	return log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
