package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nhatlinh9898/novelvip/internal/export"
	"github.com/Nhatlinh9898/novelvip/internal/manuscript"
	"github.com/Nhatlinh9898/novelvip/internal/outline"
	"github.com/Nhatlinh9898/novelvip/internal/session"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Generate an outline, write every entry and save the manuscript",
	RunE:  runDraftCmd,
}

func runDraftCmd(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	summaries, _ := cmd.Flags().GetBool("summaries")

	format, err := export.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	application, err := newApp(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := cmd.Context()
	gen, err := application.Generator(ctx)
	if err != nil {
		return err
	}

	premise := premiseFromFlags(cmd, application.Global.Novel)
	out := cmd.ErrOrStderr()

	fmt.Fprintln(out, "Generating outline...")
	draft, err := gen.Structure(ctx, premise)
	if err != nil {
		return err
	}
	state := session.New(premise).ImportStructure(draft, outline.NewUUIDGenerator())
	fmt.Fprintf(out, "Outline: %q with %d entries\n", state.Tree.Title, outline.Count(*state.Tree))

	state, err = manuscript.Draft(ctx, gen, state, manuscript.Options{
		Concurrency: concurrency,
		Summarize:   summaries,
		Logger:      application.Logger,
		Progress: func(done, total int, n outline.Node) {
			fmt.Fprintf(out, "[%d/%d] %s: %s\n", done, total, n.Level.Label(), n.Title)
		},
	})
	if err != nil {
		return err
	}

	path, err := application.Exporter.Manuscript(*state.Tree, format)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", path)
	return nil
}
