// Command mypyd is the daemon driver: it starts, queries and stops the
// long-lived analyzer process, forwarding per-subcommand flags verbatim to
// the server's run handler.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	statusFile string
	logFile    string

	red  = color.New(color.FgRed).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

func main() {
	root := &cobra.Command{
		Use:           "mypyd",
		Short:         "Client for the analyzer daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&statusFile, "status-file", ".mypyd.json", "status file to retrieve daemon details")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "daemon log file")

	root.AddCommand(
		startCommand(),
		restartCommand(),
		stopCommand(),
		statusCommand(),
		checkCommand(),
		recheckCommand(),
		runCommand(),
		suggestCommand(),
		inspectCommand(),
		daemonCommand(),
		killCommand(),
		consoleCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(2)
	}
}

func startCommand() *cobra.Command {
	var timeout int
	cmd := &cobra.Command{
		Use:   "start [flags] [-- mypy-flags...]",
		Short: "Start the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if isRunning() {
				return fmt.Errorf("Daemon is still alive")
			}
			return daemonize(args, timeout)
		},
	}
	cmd.Flags().IntVar(&timeout, "timeout", 0, "server shutdown timeout in seconds")
	return cmd
}

func restartCommand() *cobra.Command {
	var timeout int
	cmd := &cobra.Command{
		Use:   "restart [flags] [-- mypy-flags...]",
		Short: "Restart the daemon (stop, then start)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if isRunning() {
				if _, err := request("stop", nil); err != nil {
					return err
				}
			}
			return daemonize(args, timeout)
		},
	}
	cmd.Flags().IntVar(&timeout, "timeout", 0, "server shutdown timeout in seconds")
	return cmd
}

func stopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon cleanly",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := request("stop", nil)
			if err != nil {
				return err
			}
			if errMsg, ok := resp["error"].(string); ok {
				return fmt.Errorf("%s", errMsg)
			}
			fmt.Println("Daemon stopped")
			return nil
		},
	}
}

func statusCommand() *cobra.Command {
	var dumpFile string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}
			if dumpFile != "" {
				payload["fswatcher_dump_file"] = dumpFile
			}
			resp, err := request("status", payload)
			if err != nil {
				return err
			}
			if errMsg, ok := resp["error"].(string); ok {
				return fmt.Errorf("%s", errMsg)
			}
			fmt.Printf("%s\n", bold("Daemon is up and running"))
			for _, key := range []string{"memory_rss_mib", "memory_vms_mib", "memory_maxrss_mib"} {
				if v, ok := resp[key]; ok {
					fmt.Printf("  %s: %.1f\n", key, v)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dumpFile, "fswatcher-dump-file", "", "write watcher snapshot to this file")
	return cmd
}

func checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILES...",
		Short: "Check some files (requires a running daemon)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkOutput(request("check", map[string]interface{}{
				"files":          args,
				"is_tty":         isTTY(),
				"terminal_width": terminalWidth(),
			}))
		},
	}
}

func recheckCommand() *cobra.Command {
	var remove, update []string
	cmd := &cobra.Command{
		Use:   "recheck",
		Short: "Re-check the previously checked files",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"is_tty":         isTTY(),
				"terminal_width": terminalWidth(),
			}
			if cmd.Flags().Changed("remove") {
				payload["remove"] = remove
			}
			if cmd.Flags().Changed("update") {
				payload["update"] = update
			}
			return checkOutput(request("recheck", payload))
		},
	}
	cmd.Flags().StringSliceVar(&remove, "remove", nil, "paths to remove from the previous list")
	cmd.Flags().StringSliceVar(&update, "update", nil, "paths to treat as changed")
	return cmd
}

func runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run [flags and files...]",
		Short: "Check files, starting or restarting the daemon as needed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isRunning() {
				if err := daemonize(nil, 0); err != nil {
					return err
				}
			}
			for {
				resp, err := request("run", map[string]interface{}{
					"version":        clientVersion,
					"args":           args,
					"is_tty":         isTTY(),
					"terminal_width": terminalWidth(),
				})
				if err != nil {
					return err
				}
				if reason, ok := resp["restart"].(string); ok {
					fmt.Printf("Restarting: %s\n", reason)
					if _, err := request("stop", nil); err != nil {
						return err
					}
					if err := daemonize(nil, 0); err != nil {
						return err
					}
					continue
				}
				return checkOutput(resp, nil)
			}
		},
	}
}

func suggestCommand() *cobra.Command {
	var callsites bool
	cmd := &cobra.Command{
		Use:   "suggest FUNCTION",
		Short: "Suggest a signature for a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkOutput(request("suggest", map[string]interface{}{
				"function":  args[0],
				"callsites": callsites,
			}))
		},
	}
	cmd.Flags().BoolVar(&callsites, "callsites", false, "show call sites instead")
	return cmd
}

func inspectCommand() *cobra.Command {
	var show string
	var raw bool
	cmd := &cobra.Command{
		Use:   "inspect LOCATION",
		Short: "Inspect inferred types at a location (path:line[:col])",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkOutput(request("inspect", map[string]interface{}{
				"show":     show,
				"location": args[0],
				"raw":      raw,
			}))
		},
	}
	cmd.Flags().StringVar(&show, "show", "type", "what to show: type, attrs or definition")
	cmd.Flags().BoolVar(&raw, "raw", false, "dump raw records")
	return cmd
}

func killCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kill",
		Short: "Kill the daemon process without a clean stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return killDaemon()
		},
	}
}
