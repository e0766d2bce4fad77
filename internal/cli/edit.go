package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alonsovb/sermonkit/internal/ideas"
)

// EditCmd creates the edit command with subcommands.
// The env parameter provides injectable dependencies for testing.
func EditCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Convert key ideas between JSON and editable text",
		Long: `Convert key ideas between JSON and an editable text format.

The text format groups ideas by act with labelled fields, so the
quotes, references, and context can be reviewed and reworded in any
editor. Converting back recomputes the derived fields; re-run align
afterwards to refresh timestamps.`,
		Example: `  sermonkit edit json2txt ideas.json
  vi ideas.txt
  sermonkit edit txt2json ideas.txt`,
	}

	cmd.AddCommand(editJSON2TxtCmd(env))
	cmd.AddCommand(editTxt2JSONCmd(env))

	return cmd
}

// editJSON2TxtCmd creates the "edit json2txt" subcommand.
func editJSON2TxtCmd(env *Env) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "json2txt <ideas-json>",
		Short:   "Render ideas as editable text",
		Example: `  sermonkit edit json2txt ideas.json -o review.txt`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditJSON2Txt(env, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output text path (default: <input>.txt)")

	return cmd
}

// editTxt2JSONCmd creates the "edit txt2json" subcommand.
func editTxt2JSONCmd(env *Env) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "txt2json <ideas-txt>",
		Short:   "Parse edited text back into ideas JSON",
		Example: `  sermonkit edit txt2json review.txt -o ideas.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditTxt2JSON(env, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output JSON path (default: <input>.json)")

	return cmd
}

// runEditJSON2Txt handles the "edit json2txt" subcommand.
func runEditJSON2Txt(env *Env, inputPath, output string) error {
	if err := statFile(inputPath); err != nil {
		return err
	}

	cfg := loadConfig(env)
	output = resolveOutput(cfg, output, replaceExt(filepath.Base(inputPath), ".txt"))

	list, err := ideas.Load(inputPath)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(output, ideas.FormatEditable(list)); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Done: %s\n", output)
	return nil
}

// runEditTxt2JSON handles the "edit txt2json" subcommand.
func runEditTxt2JSON(env *Env, inputPath, output string) error {
	if err := statFile(inputPath); err != nil {
		return err
	}

	cfg := loadConfig(env)
	output = resolveOutput(cfg, output, replaceExt(filepath.Base(inputPath), ".json"))

	// #nosec G304 -- user-specified input file
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("cannot read editable ideas: %w", err)
	}

	list, err := ideas.ParseEditable(string(data))
	if err != nil {
		return err
	}
	printWarnings(env.Stderr, ideas.Validate(list))

	if err := ideas.Save(list, output); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Parsed %d ideas\n", len(list))
	fmt.Fprintf(env.Stderr, "Timestamps were reset; re-run 'sermonkit align' before cutting clips.\n")
	fmt.Fprintf(env.Stderr, "Done: %s\n", output)
	return nil
}
