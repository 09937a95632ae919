package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/park285/adaptive-chess/internal/adapter/chesspresenter"
	"github.com/park285/adaptive-chess/internal/apiclient"
	"github.com/park285/adaptive-chess/internal/archive"
	"github.com/park285/adaptive-chess/pkg/chessdto"
)

func newGamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List recently archived games",
		Args:  cobra.NoArgs,
		RunE:  runGamesCmd,
	}
	cmd.Flags().Int("limit", 10, "number of games")
	cmd.Flags().String("server", "", "read from a running server instead of the archive")
	return cmd
}

func runGamesCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}

	var games []*chessdto.GameRecord
	if server := resolveServer(cmd, cfg, false); server != "" {
		games, err = apiclient.NewClient(server).RecentGames(cmd.Context(), limit)
		if err != nil {
			return err
		}
	} else {
		repo, err := archive.Open(cmd.Context(), cfg.ArchiveDSN)
		if err != nil {
			return err
		}
		defer repo.Close()
		records, err := repo.RecentGames(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, r := range records {
			games = append(games, chesspresenter.ToGameRecord(r))
		}
	}

	p := chesspresenter.NewPresenter(cmd.OutOrStdout(), nil)
	return p.Show(p.History(games))
}
