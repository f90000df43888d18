package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/console"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/entity"
	"github.com/aretw0/parley/pkg/session"
	"github.com/aretw0/parley/pkg/template"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [template]",
	Short: "Run a conversation interactively",
	Long: `Starts a single conversation against a template document and drives it
from the terminal. Each input line is an event name, optionally followed by a
JSON payload or key=value pairs.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("templates")
		templateID, _ := cmd.Flags().GetString("template")
		if templateID == "" && len(args) > 0 {
			templateID = args[0]
		}

		if err := runSession(dir, templateID); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("template", "t", "", "Template id to run")
}

func runSession(dir, templateID string) error {
	registry := template.NewRegistry()
	if _, err := registry.LoadDir(dir); err != nil {
		return err
	}

	ids := registry.IDs()
	if len(ids) == 0 {
		return fmt.Errorf("no templates found in %s", dir)
	}
	if templateID == "" {
		if len(ids) > 1 {
			return fmt.Errorf("multiple templates found, pick one of %v with --template", ids)
		}
		templateID = ids[0]
	}

	orchestrator := session.New(registry, memory.NewStore(), console.New(),
		session.WithLogger(logging.NewNop()))

	ctx := context.Background()
	const owner = "local"

	if _, err := orchestrator.Start(ctx, templateID, owner, owner); err != nil {
		return err
	}

	fmt.Println(`(type an event name to advance, "/finish", "/cancel" or "/quit" to leave)`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit":
			return nil
		case "/finish":
			if _, err := orchestrator.Finish(ctx, owner); err != nil {
				fmt.Printf("! %v\n", err)
				continue
			}
			fmt.Println("Conversation finished.")
			return nil
		case "/cancel":
			if _, err := orchestrator.Cancel(ctx, owner); err != nil {
				fmt.Printf("! %v\n", err)
				continue
			}
			fmt.Println("Conversation cancelled.")
			return nil
		}

		event, payload, err := parseInput(line)
		if err != nil {
			fmt.Printf("! %v\n", err)
			continue
		}

		result, err := orchestrator.ProcessInput(ctx, owner, event, payload)
		if err != nil {
			var guardErr *entity.GuardError
			if errors.As(err, &guardErr) {
				fmt.Printf("Rejected: %s\n", guardErr.Error())
				continue
			}
			return err
		}
		if !result.Applied {
			fmt.Printf("(no transition for %q in state %q)\n", event, result.FromState)
		}
	}
}

// parseInput splits "EVENT {...}" or "EVENT key=value ..." into an event name
// and payload map.
func parseInput(line string) (string, map[string]any, error) {
	event, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return event, nil, nil
	}

	payload := make(map[string]any)
	if strings.HasPrefix(rest, "{") {
		if err := json.Unmarshal([]byte(rest), &payload); err != nil {
			return "", nil, fmt.Errorf("invalid payload: %w", err)
		}
		return event, payload, nil
	}

	for _, pair := range strings.Fields(rest) {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return "", nil, fmt.Errorf("invalid payload pair %q (want key=value)", pair)
		}
		payload[key] = value
	}
	return event, payload, nil
}
