package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/park285/adaptive-chess/internal/adapter/chesspresenter"
	"github.com/park285/adaptive-chess/internal/chess"
	"github.com/park285/adaptive-chess/internal/chess/uci"
	"github.com/park285/adaptive-chess/internal/chessbuilder"
	"github.com/park285/adaptive-chess/internal/obslog"
	"github.com/park285/adaptive-chess/internal/rules"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Show the engine's best lines for a position",
		Args:  cobra.NoArgs,
		RunE:  runAnalyzeCmd,
	}
	cmd.Flags().String("fen", "", "position in FEN (required)")
	cmd.Flags().Int("depth", 12, "search depth")
	cmd.Flags().Int("lines", 1, fmt.Sprintf("number of lines 1-%d", uci.MaxMultiPV))
	_ = cmd.MarkFlagRequired("fen")
	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	fen, _ := cmd.Flags().GetString("fen")
	depth, _ := cmd.Flags().GetInt("depth")
	count, _ := cmd.Flags().GetInt("lines")

	fen = strings.TrimSpace(fen)
	if _, err := rules.New().Parse(fen); err != nil {
		return err
	}
	if depth < 1 || depth > chess.MaxSearchDepth {
		return fmt.Errorf("depth must be between 1 and %d", chess.MaxSearchDepth)
	}
	if count < 1 || count > uci.MaxMultiPV {
		return fmt.Errorf("lines must be between 1 and %d", uci.MaxMultiPV)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	gw := chessbuilder.NewGateway(cfg, obslog.L())
	defer gw.Close()

	h, err := gw.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer h.Close()

	lines, err := h.BestMoves(cmd.Context(), fen, depth, count)
	if err != nil {
		return err
	}
	p := chesspresenter.NewPresenter(cmd.OutOrStdout(), nil)
	return p.Show(p.Lines(fen, depth, lines))
}
