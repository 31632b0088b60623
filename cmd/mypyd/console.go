package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

// consoleCommand is an interactive client: each line is a command name
// followed by optional JSON arguments, sent to the running daemon.
func consoleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactively send commands to the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)

			commands := []string{"status", "check", "recheck", "run", "suggest", "inspect", "hang", "stop"}
			line.SetCompleter(func(prefix string) []string {
				var out []string
				for _, c := range commands {
					if strings.HasPrefix(c, prefix) {
						out = append(out, c)
					}
				}
				return out
			})

			fmt.Println(bold("mypyd console") + " — type a command, or 'quit' to leave")
			for {
				input, err := line.Prompt(">>> ")
				if err != nil {
					fmt.Println()
					return nil
				}
				input = strings.TrimSpace(input)
				if input == "" {
					continue
				}
				if input == "quit" || input == "exit" {
					return nil
				}
				line.AppendHistory(input)

				name, rest, _ := strings.Cut(input, " ")
				payload := map[string]interface{}{}
				if rest = strings.TrimSpace(rest); rest != "" {
					if err := json.Unmarshal([]byte(rest), &payload); err != nil {
						fmt.Printf("%s: arguments must be a JSON object: %v\n", red("Error"), err)
						continue
					}
				}
				resp, err := request(name, payload)
				if err != nil {
					fmt.Printf("%s: %v\n", red("Error"), err)
					continue
				}
				rendered, err := json.MarshalIndent(resp, "", "  ")
				if err != nil {
					fmt.Printf("%s: %v\n", red("Error"), err)
					continue
				}
				fmt.Println(string(rendered))
				if name == "stop" {
					return nil
				}
			}
		},
	}
}
