package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shubh-37/minddump/internal/pipeline"
	"github.com/shubh-37/minddump/internal/taxonomy"
)

var (
	processCategory string
	processSource   string
)

var processCmd = &cobra.Command{
	Use:   "process <text>",
	Short: "Process one thought and print the result envelope",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProcess,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the categories a thought can be filed under",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		for _, c := range taxonomy.All() {
			fmt.Fprintf(out, "%-14s %-16s %-8s %s\n", c.ID, c.DisplayName, taxonomy.LegacyTypeFor(c.ID), c.Description)
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processCategory, "category", "", "force the category by id or display name")
	processCmd.Flags().StringVar(&processSource, "source", "cli", "source recorded on the thought")
}

func runProcess(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	env, err := a.pipeline.Process(cmd.Context(), pipeline.Request{
		Text:     strings.Join(args, " "),
		Category: processCategory,
		Source:   processSource,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}
