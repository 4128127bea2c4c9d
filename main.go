package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/semihalev/ingressdns/config"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	cfgPath  string
	generate bool
)

var rootCmd = &cobra.Command{
	Use:   "ingressdns",
	Short: "ingressdns - DNS answers for Kubernetes Ingress hosts",
	Long: `ingressdns answers A and ANY queries with the pod address for every name
routed by a Kubernetes Ingress, and replies NoData, optionally delayed,
for everything else.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if generate {
			return config.Generate(cfgPath)
		}

		return run(cmd.Context(), cfgPath)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "ingressdns v"+version)
	},
}

func init() {
	rootCmd.SetVersionTemplate("ingressdns v{{.Version}}\n")

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "ingressdns.conf", "location of the config file, environment variables override its values")
	rootCmd.Flags().BoolVar(&generate, "generate", false, "write the default config file to the config location and exit")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
