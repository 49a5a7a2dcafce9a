// Package main is the entry point for novelvip.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Nhatlinh9898/novelvip/internal/app"
	"github.com/Nhatlinh9898/novelvip/internal/outline"
	"github.com/Nhatlinh9898/novelvip/internal/speech"
	"github.com/Nhatlinh9898/novelvip/internal/tui"
	"github.com/Nhatlinh9898/novelvip/internal/tui/views"
	"github.com/Nhatlinh9898/novelvip/pkg/types"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "novelvip",
	Short: "A TUI application for outlining and drafting novels with AI assistance",
	Long: `novelvip turns a premise into a novel outline of parts, chapters and
sections, then helps you write each entry: continue the text, summarize it,
close it with an ending, or pick an opening line. Entries can be read aloud
and exported as text files.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runWriteCmd,
}

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Open the outline workspace",
	Long: `Collects the premise with a short wizard and opens the workspace.
Pass --idea to skip the wizard.`,
	RunE: runWriteCmd,
}

// newApp builds the application from the persistent flags.
func newApp(cmd *cobra.Command, logOutput io.Writer) (*app.App, error) {
	configPath, _ := cmd.Flags().GetString("config")
	provider, _ := cmd.Flags().GetString("provider")

	application, err := app.New(app.Options{
		ConfigPath: configPath,
		Provider:   provider,
		LogOutput:  logOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return application, nil
}

func runWriteCmd(cmd *cobra.Command, args []string) error {
	// The terminal belongs to the TUI, so logs only go to a configured file.
	application, err := newApp(cmd, io.Discard)
	if err != nil {
		return err
	}
	defer application.Close()

	premise := premiseFromFlags(cmd, application.Global.Novel)
	if !cmd.Flags().Changed("idea") {
		var ok bool
		premise, ok, err = runWizard(premise)
		if err != nil || !ok {
			return err
		}
	}

	ctx := cmd.Context()
	gen, err := application.Generator(ctx)
	if err != nil {
		return err
	}

	deps := tui.Deps{
		Generator: gen,
		Exporter:  application.Exporter,
		Logger:    application.Logger,
	}

	// Playback completion is reported to the program once it exists.
	var program *tea.Program
	player, err := application.Player(func(err error) {
		if program != nil {
			program.Send(tui.SpeechDoneMsg{Err: err})
		}
	})
	if err != nil {
		application.Logger.Warn("speech disabled", "error", err)
	} else {
		deps.Speaker = player
	}

	model := tui.New(ctx, premise, deps)
	_, err = tui.Run(ctx, model, func(p *tea.Program) { program = p })
	return err
}

// runWizard collects a premise interactively. ok is false if the user
// cancelled.
func runWizard(initial types.NovelConfig) (types.NovelConfig, bool, error) {
	wizard := views.NewWizard(initial)
	p := tea.NewProgram(wizard, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return initial, false, fmt.Errorf("wizard error: %w", err)
	}

	w, ok := finalModel.(*views.WizardModel)
	if !ok || w.Cancelled() || !w.Completed() {
		fmt.Println("Setup cancelled.")
		return initial, false, nil
	}
	return w.Result(), true, nil
}

// addPremiseFlags registers the flags that override the configured premise.
func addPremiseFlags(cmd *cobra.Command) {
	cmd.Flags().String("genre", "", "Genre, e.g. \"Tiên Hiệp\"")
	cmd.Flags().String("tone", "", "Tone of the writing")
	cmd.Flags().String("pov", "", "Point of view")
	cmd.Flags().String("setting", "", "World and era of the story")
	cmd.Flags().String("character", "", "Main character")
	cmd.Flags().String("idea", "", "Core plot idea")
	cmd.Flags().String("language", "", "Language of the generated text")
}

// premiseFromFlags returns base with the flags the user set applied.
func premiseFromFlags(cmd *cobra.Command, base types.NovelConfig) types.NovelConfig {
	fields := map[string]*string{
		"genre":     &base.Genre,
		"tone":      &base.Tone,
		"pov":       &base.POV,
		"setting":   &base.Setting,
		"character": &base.MainCharacter,
		"idea":      &base.PlotIdea,
		"language":  &base.Language,
	}
	for name, field := range fields {
		if cmd.Flags().Changed(name) {
			*field, _ = cmd.Flags().GetString(name)
		}
	}
	return base
}

var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Generate an outline from the premise and print it",
	RunE:  runOutlineCmd,
}

func runOutlineCmd(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

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

	draft, err := gen.Structure(ctx, premiseFromFlags(cmd, application.Global.Novel))
	if err != nil {
		return err
	}
	root := outline.ImportStructure(draft, outline.LevelNovel, outline.NewUUIDGenerator())

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(root)
	}
	printTree(out, root)
	return nil
}

// printTree writes one indented line per node.
func printTree(w io.Writer, root outline.Node) {
	outline.Walk(root, func(n outline.Node, depth int) bool {
		fmt.Fprintf(w, "%s%s: %s\n", strings.Repeat("  ", depth), n.Level.Label(), n.Title)
		if n.Summary != "" {
			fmt.Fprintf(w, "%s  %s\n", strings.Repeat("  ", depth), n.Summary)
		}
		return true
	})
}

var introCmd = &cobra.Command{
	Use:   "intro",
	Short: "Suggest opening lines in a given style",
	RunE: func(cmd *cobra.Command, args []string) error {
		style, _ := cmd.Flags().GetString("style")

		application, err := newApp(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer application.Close()

		if style == "" {
			style = application.Global.Novel.Tone
		}

		ctx := cmd.Context()
		gen, err := application.Generator(ctx)
		if err != nil {
			return err
		}
		options, err := gen.IntroOptions(ctx, style)
		if err != nil {
			return err
		}
		for i, opt := range options {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, opt)
		}
		return nil
	},
}

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices available for read-aloud",
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")

		application, err := newApp(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer application.Close()

		synth, err := application.Synthesizer()
		if err != nil {
			return err
		}
		voices, err := synth.Voices(cmd.Context())
		if err != nil {
			return err
		}

		current := application.Global.Voice.VoiceID
		if current == "" {
			current = speech.DefaultVoice(voices, lang)
		}
		for _, v := range speech.PreferredVoices(voices, lang) {
			mark := "  "
			if v.ID == current {
				mark = "* "
			}
			line := mark + v.Name
			if v.Lang != "" {
				line += " (" + v.Lang + ")"
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

var speakCmd = &cobra.Command{
	Use:   "speak [file]",
	Short: "Read a text file aloud (use '-' or no argument for stdin)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		application, err := newApp(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer application.Close()

		player, err := application.Player(nil)
		if err != nil {
			return err
		}
		applyVoiceFlags(cmd, player)

		if !player.Toggle(cmd.Context(), text) {
			return speech.ErrNoText
		}
		return player.Wait()
	},
}

func applyVoiceFlags(cmd *cobra.Command, player *speech.Player) {
	cfg := player.Config()
	if cmd.Flags().Changed("voice") {
		cfg.VoiceID, _ = cmd.Flags().GetString("voice")
	}
	if cmd.Flags().Changed("rate") {
		cfg.Rate, _ = cmd.Flags().GetFloat64("rate")
	}
	player.SetConfig(cfg)
}

func readText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file not found: %s", args[0])
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/novelvip/config.yaml)")
	rootCmd.PersistentFlags().String("provider", "", "Text generation provider: openai, gemini or local")

	addPremiseFlags(rootCmd)
	addPremiseFlags(writeCmd)
	addPremiseFlags(outlineCmd)
	addPremiseFlags(draftCmd)

	outlineCmd.Flags().Bool("json", false, "Print the outline as JSON")

	introCmd.Flags().String("style", "", "Style of the opening lines (default: the configured tone)")

	voicesCmd.Flags().String("lang", "vi", "Preferred voice language")

	speakCmd.Flags().String("voice", "", "Voice to use")
	speakCmd.Flags().Float64("rate", 1.0, "Speaking rate, 0.5 to 2")

	draftCmd.Flags().String("format", "txt", "Manuscript format: txt, md or html")
	draftCmd.Flags().IntP("concurrency", "j", 3, "Entries written at the same time")
	draftCmd.Flags().Bool("summaries", false, "Also summarize every written entry")

	authCmd.Flags().BoolP("list", "l", false, "List configured providers")
	authCmd.Flags().StringP("remove", "r", "", "Remove a provider configuration")
	authCmd.Flags().StringP("provider", "p", "", "Configure a specific provider")

	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(outlineCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(introCmd)
	rootCmd.AddCommand(voicesCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(authCmd)
}
