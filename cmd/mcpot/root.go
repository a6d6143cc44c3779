package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gstoney/mcpot/config"
)

var (
	cfgFile string
	Version = "dev"

	rootCmd = &cobra.Command{
		Use:   "mcpot",
		Short: "Minecraft honeypot",
		Long: `mcpot answers Minecraft server list pings and login attempts without
running a game, and records who connected, with which client version and
under which player name.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	serveCmd = &cobra.Command{
		Use:          "serve",
		Short:        "Run the honeypot in the foreground (default)",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runServe,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcpot %s %s/%s %s\n", Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./mcpot.toml or $XDG_CONFIG_HOME/mcpot/mcpot.toml)")
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loginsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig layers the config sources for cmd and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		File:    cfgFile,
		EnvFile: ".env",
		Flags:   cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
