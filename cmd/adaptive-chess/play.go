package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/park285/adaptive-chess/internal/adapter/chesspresenter"
	"github.com/park285/adaptive-chess/internal/apiclient"
	"github.com/park285/adaptive-chess/internal/chessbuilder"
	"github.com/park285/adaptive-chess/internal/obslog"
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runPlayCmd,
	}
	cmd.Flags().Int("depth", 0, "initial bot depth 1-8 (default from config)")
	cmd.Flags().String("session", "", "session id (generated when empty)")
	cmd.Flags().String("server", "", "play against a running server instead of in-process")
	return cmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	id, _ := cmd.Flags().GetString("session")
	var depth *int
	if cmd.Flags().Changed("depth") {
		d, _ := cmd.Flags().GetInt("depth")
		depth = &d
	}

	var backend gameBackend
	if server := resolveServer(cmd, cfg, false); server != "" {
		backend = &remoteBackend{client: apiclient.NewClient(server)}
	} else {
		// a single terminal game never goes idle long enough to evict
		cfg.EvictInterval = -1
		deps, err := chessbuilder.New(cmd.Context(), cfg, obslog.L())
		if err != nil {
			return err
		}
		backend = &localBackend{deps: deps}
	}
	defer backend.Close()

	p := chesspresenter.NewPresenter(cmd.OutOrStdout(), nil)
	return playGame(cmd.Context(), backend, p, cmd.InOrStdin(), id, depth)
}

// playGame runs the read-move-reply loop until the game ends, the input is
// exhausted or the player quits.
func playGame(ctx context.Context, b gameBackend, p *chesspresenter.Presenter, in io.Reader, id string, depth *int) error {
	view, err := b.Create(ctx, id, depth)
	if err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	id = view.SessionID
	_ = p.Show(p.Start(view))

	scanner := bufio.NewScanner(in)
	for {
		_ = p.Show("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "":
			continue
		case "quit", "exit", "resign":
			_ = b.Delete(ctx, id)
			_ = p.Show("Game ended.")
			return nil
		case "help":
			_ = p.Show(p.Help())
			continue
		case "status":
			if v, err := b.Get(ctx, id); err != nil {
				_ = p.Show("Error: " + err.Error())
			} else {
				_ = p.Show(p.Status(v))
			}
			continue
		case "legal":
			if moves, err := b.Legal(ctx, id); err != nil {
				_ = p.Show("Error: " + err.Error())
			} else {
				_ = p.Show(p.Legal(moves))
			}
			continue
		case "hint":
			if h, err := b.Hint(ctx, id); err != nil {
				_ = p.Show("Error: " + err.Error())
			} else {
				_ = p.Show(p.Hint(h))
			}
			continue
		case "bot":
			if over := botTurn(ctx, b, p, id); over {
				return nil
			}
			continue
		}

		res, err := b.Move(ctx, id, input)
		if err != nil {
			_ = p.Show("Error: " + err.Error())
			continue
		}
		_ = p.Show(p.HumanMove(res))
		if res.GameOver {
			return nil
		}
		if over := botTurn(ctx, b, p, id); over {
			return nil
		}
	}
	return scanner.Err()
}

// botTurn asks for the reply and reports whether the game is over.
func botTurn(ctx context.Context, b gameBackend, p *chesspresenter.Presenter, id string) bool {
	res, err := b.Bot(ctx, id)
	if err != nil {
		_ = p.Show("Bot failed: " + err.Error() + " (type 'bot' to retry)")
		return false
	}
	_ = p.Show(p.BotMove(res))
	return res.GameOver
}
