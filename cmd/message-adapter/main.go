// message-adapter runs the message adapter commands for task processes.
//
// Usage:
//
//	message-adapter [--config FILE] [--debug] [--testing] <command>
//	message-adapter [--config FILE] serve
//
// Commands read their JSON documents from stdin and write the result to
// stdout. "stream" keeps the process alive for many commands.
package main

import (
	"fmt"
	"os"

	"github.com/aura-studio/message-adapter/adapter"
	"github.com/aura-studio/message-adapter/server"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var (
		configPath  string
		debugMode   bool
		testingMode bool
	)

	configBytes := func() ([]byte, error) {
		path := configPath
		if path == "" {
			p, err := server.FindDefaultConfigFile()
			if err != nil {
				return nil, nil
			}
			path = p
		}
		return os.ReadFile(path)
	}

	adapterOptions := func(cmd *cobra.Command) ([]adapter.Option, error) {
		b, err := configBytes()
		if err != nil {
			return nil, err
		}
		var opts []adapter.Option
		if b != nil {
			opt, err := server.AdapterConfig(b)
			if err != nil {
				return nil, err
			}
			opts = append(opts, opt)
		}
		if cmd.Flags().Changed("debug") {
			opts = append(opts, adapter.WithDebugMode(debugMode))
		}
		if cmd.Flags().Changed("testing") {
			opts = append(opts, adapter.WithTestingMode(testingMode))
		}
		return opts, nil
	}

	rootCmd := &cobra.Command{
		Use:           "message-adapter <command>",
		Short:         "Expand workflow messages for tasks and build the next event",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := adapterOptions(cmd)
			if err != nil {
				return err
			}
			os.Exit(adapter.Serve(args[0], os.Stdin, os.Stdout, os.Stderr, opts...))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: search message-adapter.yaml, server.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "log each command")
	rootCmd.PersistentFlags().BoolVar(&testingMode, "testing", false, "read remote documents from local fixtures")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the adapter in the mode selected by the config (invoke, sqs or http)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := configBytes()
			if err != nil {
				return err
			}
			var opts []server.Option
			if b != nil {
				opts = append(opts, server.WithServeConfig(b))
			}
			if cmd.Flags().Changed("debug") {
				opts = append(opts, server.WithAdapter(adapter.WithDebugMode(debugMode)))
			}
			if cmd.Flags().Changed("testing") {
				opts = append(opts, server.WithAdapter(adapter.WithTestingMode(testingMode)))
			}
			return server.Serve(opts...)
		},
	}
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
