package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gedtree/internal/audit"
	"gedtree/internal/blob"
	"gedtree/internal/core"
	"gedtree/internal/tree"
	"gedtree/pkg/domain"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "gedtree",
		Short:         "Family tree charts from GEDCOM sources",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newImportCmd(a),
		newSourcesCmd(a),
		newDumpCmd(a),
		newCheckCmd(a),
		newChartCmd(a, core.QueryDescendants, "Print the descendant chart of a person"),
		newChartCmd(a, core.QueryAncestors, "Print the ancestor chart of a person"),
		newChartCmd(a, core.QueryCousins, "Print the nth cousins of a person"),
		newRelatedCmd(a),
		newBatchCmd(a),
		newAuditCmd(a),
	)
	return root
}

func newImportCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Validate a GEDCOM file and store it as a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			if name == "" {
				name = args[0]
			}
			info, err := a.svc.Import(cmd.Context(), name, f)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.stdout, "stored %s (%d bytes, %s persons, %s families)\n",
				info.Key, info.Size, info.Metadata["persons"], info.Metadata["families"])
			return err
		},
	}
	cmd.Flags().StringVar(&name, "key", "", "source name to store under (default: file name)")
	return cmd
}

func newSourcesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List stored sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := a.svc.Store().List(cmd.Context(), blob.SourcePrefix)
			if err != nil {
				return err
			}
			for _, info := range infos {
				if _, err := fmt.Fprintf(a.stdout, "%s\t%d\t%s\n", info.Key, info.Size, info.LastModified.UTC().Format(time.RFC3339)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <source>...",
		Short: "Delete stored sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				if err := a.svc.RemoveSource(cmd.Context(), name); err != nil {
					return err
				}
				if _, err := fmt.Fprintf(a.stdout, "removed %s\n", name); err != nil {
					return err
				}
			}
			return nil
		},
	})
	return cmd
}

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <source>",
		Short: "Print every person and family with their links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.svc.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.svc.Dump(cmd.Context(), t, tree.WriterSink(a.stdout))
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <source>",
		Short: "Report dangling and unreciprocated links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.svc.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			violations, err := a.svc.Check(cmd.Context(), t)
			if err != nil {
				return err
			}
			if len(violations) == 0 {
				_, err := fmt.Fprintln(a.stdout, "no integrity issues")
				return err
			}
			blocking := 0
			for _, v := range violations {
				if v.Severity == domain.SeverityBlock {
					blocking++
				}
				if _, err := fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", v.Severity, v.Rule, v.Message); err != nil {
					return err
				}
			}
			if blocking > 0 {
				return fmt.Errorf("integrity check failed: %d blocking of %d findings", blocking, len(violations))
			}
			return nil
		},
	}
}

// newChartCmd builds the descendants, ancestors and cousins commands, which
// differ only in kind and the cousins degree flag.
func newChartCmd(a *app, kind core.QueryKind, short string) *cobra.Command {
	var (
		degree  int
		publish bool
	)
	cmd := &cobra.Command{
		Use:   string(kind) + " <source> <id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := a.svc.Load(ctx, args[0])
			if err != nil {
				return err
			}
			q := core.Query{Kind: kind, Subject: domain.PersonID(args[1])}
			if kind == core.QueryCousins {
				q.Degree = degree
			}
			var buf tree.LineBuffer
			if err := a.svc.Run(ctx, t, q, &buf); err != nil {
				return err
			}
			if _, err := fmt.Fprint(a.stdout, buf.String()); err != nil {
				return err
			}
			if !publish {
				return nil
			}
			info, err := a.svc.Publish(ctx, q, buf.Lines())
			if err != nil {
				return err
			}
			a.logger.Info("chart published", "key", info.Key, "url", info.URL)
			return nil
		},
	}
	if kind == core.QueryCousins {
		cmd.Flags().IntVarP(&degree, "degree", "n", 1, "cousin degree (1 for first cousins)")
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "also store the chart under charts/")
	return cmd
}

func newRelatedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "related <source> <ancestor> <id>",
		Short: "Tell whether a person descends from another",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.svc.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ancestor, candidate := domain.PersonID(args[1]), domain.PersonID(args[2])
			ok, err := a.svc.Related(cmd.Context(), t, ancestor, candidate)
			if err != nil {
				return err
			}
			verb := "descends"
			if !ok {
				verb = "does not descend"
			}
			_, err = fmt.Fprintf(a.stdout, "%s %s from %s\n", candidate, verb, ancestor)
			return err
		},
	}
}

func newBatchCmd(a *app) *cobra.Command {
	var (
		specs   []string
		publish bool
	)
	cmd := &cobra.Command{
		Use:   "batch <source> --query kind:id[:n]...",
		Short: "Run several chart queries concurrently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(specs) == 0 {
				return fmt.Errorf("at least one --query is required")
			}
			queries := make([]core.Query, 0, len(specs))
			for _, s := range specs {
				q, err := core.ParseQuery(s)
				if err != nil {
					return err
				}
				queries = append(queries, q)
			}
			t, err := a.svc.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			results, err := a.svc.RunBatch(cmd.Context(), t, queries, publish)
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					_, _ = fmt.Fprintf(a.stdout, "# %s: error: %v\n", r.Query, r.Err)
					continue
				}
				_, _ = fmt.Fprintf(a.stdout, "# %s\n%s", r.Query, strings.Join(r.Lines, "\n")+"\n")
				switch {
				case r.URL != "":
					_, _ = fmt.Fprintf(a.stdout, "# published %s %s\n", r.Key, r.URL)
				case r.Key != "":
					_, _ = fmt.Fprintf(a.stdout, "# published %s\n", r.Key)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d queries failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&specs, "query", "q", nil, "query as kind:id or cousins:id:n (repeatable)")
	cmd.Flags().BoolVar(&publish, "publish", false, "store every chart under charts/")
	return cmd
}

func newAuditCmd(a *app) *cobra.Command {
	var f audit.Filter
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent operations from the audit trail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := a.svc.Audit().Recent(cmd.Context(), f)
			if err != nil {
				return err
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s", e.StartedAt.Format(time.RFC3339), e.Operation, e.Subject, e.Status, e.Duration)
				if e.Error != "" {
					line += "\t" + e.Error
				} else if e.Detail != "" {
					line += "\t" + e.Detail
				}
				if _, err := fmt.Fprintln(a.stdout, line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Operation, "operation", "", "only show this operation")
	cmd.Flags().IntVar(&f.Limit, "limit", audit.DefaultLimit, "maximum entries")
	return cmd
}
