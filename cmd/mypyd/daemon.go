package main

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucalysoft/mypy/internal/analyzer"
	"github.com/lucalysoft/mypy/internal/server"
)

// daemonCommand runs the server in the foreground. start/restart spawn it
// detached; invoking it directly is useful for debugging.
func daemonCommand() *cobra.Command {
	var optionsData string
	var timeout int
	var daemonLogFile string
	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Run the daemon in the foreground",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := server.DefaultOptions()
			if optionsData != "" {
				decoded, err := base64.StdEncoding.DecodeString(optionsData)
				if err != nil {
					return fmt.Errorf("invalid --options-data: %w", err)
				}
				opts, err = server.OptionsFromSnapshot(string(decoded))
				if err != nil {
					return err
				}
			}
			logger := log.New(os.Stderr, "mypyd: ", log.LstdFlags)
			if daemonLogFile != "" {
				f, err := os.OpenFile(daemonLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				logger = log.New(f, "mypyd: ", log.LstdFlags)
			}

			sema := analyzer.NewNullAnalyzer()
			srv := server.New(server.Config{
				Options:    opts,
				StatusFile: statusFile,
				Timeout:    time.Duration(timeout) * time.Second,
				Log:        logger,
				Analyzer:   sema,
				Sources: func(files []string, _ server.Options) ([]analyzer.BuildSource, error) {
					sources, err := analyzer.ListSources(files)
					if err != nil {
						return nil, &server.InvalidSourceList{Reason: err.Error()}
					}
					for _, src := range sources {
						sema.RegisterModule(src.Module, src.Path)
					}
					return sources, nil
				},
			})
			return srv.Serve()
		},
	}
	cmd.Flags().StringVar(&optionsData, "options-data", "", "base64-packed options snapshot")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "idle timeout in seconds")
	cmd.Flags().StringVar(&daemonLogFile, "daemon-log-file", "", "append server logs to this file")
	return cmd
}
