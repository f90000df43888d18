package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/template"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Check template documents for consistency",
	Long:  `Parses and builds each template document, reporting broken transitions, missing views and invalid entity descriptors.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Templates are valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	files := args
	if len(files) == 0 {
		dir, _ := cmd.Flags().GetString("templates")
		registry := template.NewRegistry()
		loaded, err := registry.LoadDir(dir)
		if err != nil {
			return reportDefinitionErrors(err)
		}
		if loaded == 0 {
			return fmt.Errorf("no template documents found in %s", dir)
		}
		fmt.Printf("Checked %d template(s) from %s\n", loaded, dir)
		return nil
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		doc, err := template.Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if _, err := doc.Build(); err != nil {
			return fmt.Errorf("%s: %w", file, reportDefinitionErrors(err))
		}
		fmt.Printf("Checked %s\n", file)
	}
	return nil
}

// reportDefinitionErrors prints each definition problem on its own line so a
// broken document surfaces all issues in one pass.
func reportDefinitionErrors(err error) error {
	issues := domain.DefinitionErrors(err)
	if len(issues) <= 1 {
		return err
	}
	for _, issue := range issues {
		fmt.Printf("  - %v\n", issue)
	}
	return fmt.Errorf("%d problems found", len(issues))
}
