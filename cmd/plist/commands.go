package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Neumenon/plist/plist"
	"github.com/Neumenon/plist/source"
)

// ============================================================
// fmt / check
// ============================================================

func (a *app) fmtCmd() *cobra.Command {
	var write, list bool
	cmd := &cobra.Command{
		Use:   "fmt [files...]",
		Short: "Reformat documents canonically",
		Long: `Reformat documents with the configured style. Without flags the result
is written to stdout. -w rewrites files in place, keeping their compression;
-l lists files whose formatting differs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.SerializeOptions()
			if write && slices.Contains(args, source.Stdin) {
				return errors.New("cannot use -w with standard input")
			}
			if len(args) == 0 {
				if write {
					return errors.New("cannot use -w with standard input")
				}
				_, v, err := a.parseInput(cmd, args)
				if err != nil {
					return err
				}
				out, err := plist.SerializeWithOptions(v, opts)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), withNewline(out))
				return err
			}

			results, err := a.parseAll(cmd, args)
			if err != nil {
				return err
			}
			failed := 0
			for _, res := range results {
				if res.Err != nil {
					a.report(cmd, res)
					failed++
					continue
				}
				out, err := plist.SerializeWithOptions(res.Value, opts)
				if err != nil {
					return fmt.Errorf("%s: %w", res.Path, err)
				}
				out = withNewline(out)
				changed := out != res.Document.Text

				if list && changed {
					fmt.Fprintln(cmd.OutOrStdout(), res.Path)
				}
				if write && changed {
					if err := source.Save(res.Path, out, res.Document.Compression); err != nil {
						return err
					}
					a.logger.Debug("rewrote document", zap.String("path", res.Path))
				}
				if !write && !list {
					if _, err := io.WriteString(cmd.OutOrStdout(), out); err != nil {
						return err
					}
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to parse", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write result to the source file instead of stdout")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list files whose formatting differs")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [files...]",
		Short: "Report syntax errors with line and column",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_, _, err := a.parseInput(cmd, args)
				return err
			}
			results, err := a.parseAll(cmd, args)
			if err != nil {
				return err
			}
			failed := 0
			for _, res := range results {
				if res.Err != nil {
					a.report(cmd, res)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed check", failed, len(results))
			}
			return nil
		},
	}
}

// ============================================================
// Conversions
// ============================================================

func (a *app) toJSONCmd() *cobra.Command {
	var opts plist.BridgeOpts
	cmd := &cobra.Command{
		Use:   "to-json [file]",
		Short: "Convert a document to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, v, err := a.parseInput(cmd, args)
			if err != nil {
				return err
			}
			out, err := plist.ToJSONWithOpts(v, opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.Extended, "extended", false, `write data as {"$data": "<hex>"} so it converts back`)
	cmd.Flags().StringVar(&opts.Indent, "json-indent", "", "pretty-print with this indent")
	return cmd
}

func (a *app) fromJSONCmd() *cobra.Command {
	var opts plist.BridgeOpts
	cmd := &cobra.Command{
		Use:   "from-json [file]",
		Short: "Convert JSON (comments allowed) to a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convertIn(cmd, args, func(b []byte) (*plist.Value, error) {
				return plist.FromJSONWithOpts(b, opts)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.Extended, "extended", false, `read {"$data": "<hex>"} objects as data`)
	return cmd
}

func (a *app) toYAMLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "to-yaml [file]",
		Short: "Convert a document to YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, v, err := a.parseInput(cmd, args)
			if err != nil {
				return err
			}
			out, err := plist.ToYAML(v)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func (a *app) fromYAMLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "from-yaml [file]",
		Short: "Convert YAML to a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convertIn(cmd, args, plist.FromYAML)
		},
	}
}

// convertIn reads a foreign document, converts it with conv and writes it
// in the configured style.
func (a *app) convertIn(cmd *cobra.Command, args []string, conv func([]byte) (*plist.Value, error)) error {
	doc, err := a.load(cmd, args)
	if err != nil {
		return err
	}
	v, err := conv([]byte(doc.Text))
	if err != nil {
		return fmt.Errorf("%s: %w", doc.Path, err)
	}
	out, err := plist.SerializeWithOptions(v, a.cfg.SerializeOptions())
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), withNewline(out))
	return err
}

// ============================================================
// hash / version
// ============================================================

func (a *app) hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [files...]",
		Short: "Print BLAKE3 fingerprints of the canonical form",
		Long: `Print the BLAKE3-256 fingerprint of each document's canonical text.
Documents that differ only in layout, comments or quoting hash the same.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				doc, v, err := a.parseInput(cmd, args)
				if err != nil {
					return err
				}
				return printHash(cmd.OutOrStdout(), doc.Path, v)
			}
			results, err := a.parseAll(cmd, args)
			if err != nil {
				return err
			}
			failed := 0
			for _, res := range results {
				if res.Err != nil {
					a.report(cmd, res)
					failed++
					continue
				}
				if err := printHash(cmd.OutOrStdout(), res.Path, res.Value); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to parse", failed, len(results))
			}
			return nil
		},
	}
}

func printHash(w io.Writer, path string, v *plist.Value) error {
	sum, err := plist.FingerprintHex(v)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	_, err = fmt.Fprintf(w, "%s  %s\n", sum, path)
	return err
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "plist version %s\n", version)
		},
	}
}

// ============================================================
// Helpers
// ============================================================

// load reads the single input named by args, or stdin.
func (a *app) load(cmd *cobra.Command, args []string) (*source.Document, error) {
	if len(args) == 0 || args[0] == source.Stdin {
		return source.Read(cmd.InOrStdin(), source.Stdin)
	}
	return source.Load(args[0])
}

// parseInput loads and parses a single input, printing a diagnostic on
// syntax errors.
func (a *app) parseInput(cmd *cobra.Command, args []string) (*source.Document, *plist.Value, error) {
	doc, err := a.load(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	v, err := doc.Parse(a.cfg.ParseOptions())
	if err != nil {
		a.report(cmd, source.Result{Path: doc.Path, Document: doc, Err: err})
		return nil, nil, fmt.Errorf("%s: invalid property list", doc.Path)
	}
	return doc, v, nil
}

func (a *app) parseAll(cmd *cobra.Command, paths []string) ([]source.Result, error) {
	return source.ParseAll(cmd.Context(), paths, source.Options{
		Parse:   a.cfg.ParseOptions(),
		Workers: a.cfg.Workers,
		Stdin:   cmd.InOrStdin(),
		Logger:  a.logger,
	})
}

// report prints a failed result to stderr, with a source excerpt when the
// document text is available.
func (a *app) report(cmd *cobra.Command, res source.Result) {
	label := color.New(color.FgRed, color.Bold).Sprint(res.Path + ":")
	if res.Document == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", label, res.Err)
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s%s\n", label, plist.Diagnostic(res.Document.Text, res.Err))
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
