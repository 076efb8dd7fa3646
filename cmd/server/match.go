package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/cleservice/backend/internal/domain"
	"github.com/cleservice/backend/internal/infrastructure/sqlite"
)

func newMatchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "match <name>",
		Short: "Rank catalog keys by similarity to a name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if limit <= 0 {
				limit = cfg.Matching.DefaultLimit
			}
			limit = min(limit, cfg.Matching.MaxLimit)

			resolver := newResolver(cfg, sqlite.NewCatalogStore(db))
			ranked, err := resolver.RankMatches(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}

			renderMatches(cmd.OutOrStdout(), ranked)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of matches (defaults to matching.default_limit)")
	return cmd
}

// renderMatches writes ranked candidates as a table, best first
func renderMatches(w io.Writer, ranked []domain.MatchCandidate) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Name", "Brand", "Distance", "Price"})
	for i, c := range ranked {
		t.AppendRow(table.Row{i + 1, c.Entry.Name, c.Entry.Brand, c.Distance, fmt.Sprintf("%.2f", c.Entry.Price)})
	}
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
}
