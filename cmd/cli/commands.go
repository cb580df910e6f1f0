package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dvloznov/spendlens/internal/categorize"
	"github.com/dvloznov/spendlens/internal/domain"
	"github.com/dvloznov/spendlens/internal/extract"
	"github.com/dvloznov/spendlens/internal/ledger"
	"github.com/dvloznov/spendlens/internal/pdftext"
	"github.com/dvloznov/spendlens/internal/pipeline"
	"github.com/dvloznov/spendlens/internal/sources"
	"github.com/dvloznov/spendlens/internal/summary"
)

func (a *app) ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <path|glob|gs://uri>...",
		Short: "Extract transactions from statement files into the ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.context(cmd)

			rt, err := a.runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			uris, err := rt.Fetcher.Expand(ctx, args)
			if err != nil {
				return err
			}
			if len(uris) == 0 {
				return fmt.Errorf("no statement files found in %s", strings.Join(args, " "))
			}

			l, err := a.loadLedger()
			if err != nil {
				return err
			}

			srcs := make([]pipeline.Source, len(uris))
			for i, uri := range uris {
				srcs[i] = pipeline.Source{URI: uri}
			}
			results := rt.NewProcessor(l).ProcessBatch(ctx, srcs)

			if err := a.saveLedger(l); err != nil {
				return err
			}

			writeResults(cmd.OutOrStdout(), results)
			if failed := pipeline.Failed(results); len(failed) == len(results) {
				return fmt.Errorf("all %d files failed", len(results))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Bool("spending-only", false, "Keep expenses only")
	flags.Bool("dedup", true, "Drop transactions already in the ledger")
	flags.Bool("enrich", true, "Ask the oracle to re-categorize extracted transactions")
	flags.Int("workers", 0, "Files processed concurrently")
	_ = a.v.BindPFlag("pipeline.spending_only", flags.Lookup("spending-only"))
	_ = a.v.BindPFlag("pipeline.dedup", flags.Lookup("dedup"))
	_ = a.v.BindPFlag("pipeline.enrich", flags.Lookup("enrich"))
	_ = a.v.BindPFlag("pipeline.workers", flags.Lookup("workers"))
	return cmd
}

func writeResults(w io.Writer, results []pipeline.FileResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tKIND\tEXTRACTED\tREJECTED\tADDED\tDUPLICATES\tSTATUS")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = "failed: " + r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.SourceFile, r.Kind, r.Extracted, r.Rejected, r.Added, r.Duplicates, status)
	}
	tw.Flush()
}

func (a *app) uploadCmd() *cobra.Command {
	var bucket, prefix string
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Copy local statement files to Cloud Storage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if bucket == "" {
				bucket = a.cfg.Storage.Bucket
			}
			if bucket == "" {
				return fmt.Errorf("no bucket given (--bucket or storage.bucket)")
			}
			ctx := a.context(cmd)

			rt, err := a.runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			for _, p := range args {
				data, err := os.ReadFile(p)
				if err != nil {
					return err
				}
				uri := sources.GCSURI(bucket, path.Join(prefix, filepath.Base(p)))
				if err := rt.Fetcher.Upload(ctx, uri, data); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to %s\n", p, uri)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "GCS bucket (default storage.bucket)")
	cmd.Flags().StringVar(&prefix, "prefix", "statements", "Object name prefix")
	return cmd
}

func (a *app) inspectCmd() *cobra.Command {
	var rows bool
	cmd := &cobra.Command{
		Use:   "inspect <path|gs://uri>",
		Short: "Dry-run one file and print what it would add",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.context(cmd)
			out := cmd.OutOrStdout()

			rt, err := a.runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			data, err := rt.Fetcher.Fetch(ctx, args[0])
			if err != nil {
				return err
			}

			if rows {
				kind, err := extract.DetectKind(args[0])
				if err != nil {
					return err
				}
				if kind != extract.KindPDF {
					return fmt.Errorf("--rows applies to PDF files, got %s", kind)
				}
				pages, err := pdftext.NewReader().Fragments(data)
				if err != nil {
					return err
				}
				for _, row := range extract.ReconstructPages(pages) {
					fmt.Fprintln(out, row)
				}
				return nil
			}

			scratch := ledger.New()
			res := rt.NewProcessor(scratch).ProcessFile(ctx, pipeline.Source{URI: args[0], Data: data})
			if res.Err != nil {
				return res.Err
			}
			writeTransactions(out, scratch.All())
			fmt.Fprintf(out, "\n%s: kind=%s extracted=%d rejected=%d skipped=%d\n",
				res.SourceFile, res.Kind, res.Extracted, res.Rejected, res.Stats.Skipped())
			return nil
		},
	}
	cmd.Flags().BoolVar(&rows, "rows", false, "Print the reconstructed text rows of a PDF instead")
	return cmd
}

func (a *app) summaryCmd() *cobra.Command {
	var narrate bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print spending totals per currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.loadLedger()
			if err != nil {
				return err
			}
			report := summary.Summarize(l.All())
			out := cmd.OutOrStdout()
			if err := summary.WriteText(out, report); err != nil {
				return err
			}
			if !narrate {
				return nil
			}

			ctx := a.context(cmd)
			rt, err := a.runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			text, _ := rt.Oracle.Narrative(ctx, report)
			_, err = fmt.Fprintf(out, "\nNarrative:\n%s\n", strings.TrimSpace(text))
			return err
		},
	}
	cmd.Flags().BoolVar(&narrate, "narrate", false, "Add a plain-language summary from the oracle")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var (
		source, month string
		asJSON        bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.loadLedger()
			if err != nil {
				return err
			}
			txs := l.All()
			if source != "" {
				txs = l.BySource(source)
			}
			filtered := make([]domain.Transaction, 0, len(txs))
			for _, tx := range txs {
				if month == "" || tx.Month() == month {
					filtered = append(filtered, tx)
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(filtered)
			}
			writeTransactions(cmd.OutOrStdout(), filtered)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Only transactions from this file")
	cmd.Flags().StringVar(&month, "month", "", "Only transactions in this month (YYYY-MM)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func writeTransactions(w io.Writer, txs []domain.Transaction) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDESCRIPTION\tAMOUNT\tCURRENCY\tCATEGORY\tSOURCE")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t%s\n",
			tx.Date, tx.Description, tx.Amount, tx.Currency, tx.Category, tx.SourceFile)
	}
	tw.Flush()
}

func (a *app) removeCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "remove --source <file>",
		Short: "Remove every transaction that came from one file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.loadLedger()
			if err != nil {
				return err
			}
			removed, err := l.RemoveSource(source)
			if errors.Is(err, ledger.ErrNotFound) {
				return fmt.Errorf("no transactions from %s", source)
			}
			if err != nil {
				return err
			}
			if err := a.saveLedger(l); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d transactions from %s\n", removed, source)
			return err
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Source file name")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove every transaction from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.saveLedger(ledger.New()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Ledger cleared")
			return err
		},
	}
}

func (a *app) recurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recurring",
		Short: "Flag and list recurring expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.loadLedger()
			if err != nil {
				return err
			}
			l.MarkRecurring(summary.RecurringPeriods(l.All()))
			if err := a.saveLedger(l); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PERIOD\tDATE\tDESCRIPTION\tAMOUNT\tCURRENCY")
			for _, tx := range l.All() {
				if tx.IsRecurring {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n",
						tx.RecurringPeriod, tx.Date, tx.Description, tx.Amount, tx.Currency)
				}
			}
			return tw.Flush()
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the stored configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration with the API key redacted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				data, err := yaml.Marshal(a.cfg.Redacted())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "# %s\n", a.cfg.Path())
				_, err = out.Write(data)
				return err
			},
		},
		&cobra.Command{
			Use:   "set-key <api-key>",
			Short: "Store the oracle API key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if strings.TrimSpace(args[0]) == "" {
					return fmt.Errorf("API key must not be empty")
				}
				if err := a.cfg.SetAPIKey(args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "API key saved to %s\n", a.cfg.Path())
				return err
			},
		},
		&cobra.Command{
			Use:   "clear-key",
			Short: "Remove the stored oracle API key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := a.cfg.ClearAPIKey(); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "API key cleared")
				return err
			},
		},
		&cobra.Command{
			Use:   "rules",
			Short: "Print the active category keyword table",
			Long:  "Print the category keyword table in the format pipeline.categories_file accepts.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := categorize.NewMatcherFromFile(a.cfg.Pipeline.CategoriesFile)
				if err != nil {
					return err
				}
				return categorize.EncodeRules(cmd.OutOrStdout(), m.Rules())
			},
		},
	)
	return cmd
}
