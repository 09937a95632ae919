package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/park285/adaptive-chess/internal/adapter/chesspresenter"
	"github.com/park285/adaptive-chess/internal/skill"
)

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate-elo",
		Short: "Convert an average centipawn loss into a rating and bot depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			acpl, _ := cmd.Flags().GetFloat64("acpl")
			if acpl < 0 {
				return errors.New("acpl must not be negative")
			}
			rating := skill.EstimateRating(acpl)
			p := chesspresenter.NewPresenter(cmd.OutOrStdout(), nil)
			return p.Show(p.Estimate(acpl, rating, skill.DepthFor(rating)))
		},
	}
	cmd.Flags().Float64("acpl", 0, "average centipawn loss")
	_ = cmd.MarkFlagRequired("acpl")
	return cmd
}
