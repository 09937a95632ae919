package chesspresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/adaptive-chess/internal/chess"
	"github.com/park285/adaptive-chess/internal/events"
	"github.com/park285/adaptive-chess/pkg/chessdto"
)

const recentMovesLimit = 6

// Formatter renders chess DTOs into plain terminal text.
type Formatter struct {
	loc *time.Location
}

func NewFormatter() *Formatter {
	return &Formatter{loc: time.Local}
}

func (f *Formatter) Start(v *chessdto.SessionView) string {
	if v == nil {
		return "Could not start a game."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("♟ Game %s started. You play white.\n", v.SessionID))
	sb.WriteString(fmt.Sprintf("• Bot depth: %d\n", v.Depth))
	sb.WriteString(fmt.Sprintf("• Starting rating: %d\n", v.Rating))
	sb.WriteString("\n")
	sb.WriteString(f.Help())
	return sb.String()
}

func (f *Formatter) Help() string {
	return strings.Join([]string{
		"Commands:",
		"  <move>   play a move in UCI notation, e.g. e2e4 or e7e8q",
		"  legal    list the legal moves",
		"  hint     ask the engine for the best move",
		"  bot      ask the bot to move again after a failure",
		"  status   show the position and your rating",
		"  help     show this list",
		"  quit     end the game (also exit, resign)",
	}, "\n")
}

func (f *Formatter) Status(v *chessdto.SessionView) string {
	if v == nil {
		return "No game in progress."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("♞ %s\n", v.Status))
	sb.WriteString(fmt.Sprintf("• Moves: %d (%s)\n", len(v.MovesUCI), formatRecentMoves(v.Moves)))
	sb.WriteString(fmt.Sprintf("• Rating: %d from %d scored moves, ACPL %.1f\n", v.Rating, v.SampleCount, v.ACPL))
	sb.WriteString(fmt.Sprintf("• Bot depth: %d\n", v.Depth))
	sb.WriteString(fmt.Sprintf("• FEN: %s", v.FEN))
	return sb.String()
}

func (f *Formatter) HumanMove(r *chessdto.MoveResponse) string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You played %s.", r.SAN))
	switch {
	case r.Loss == nil:
		sb.WriteString(" (not scored: engine unavailable)")
	case *r.Loss == 0:
		sb.WriteString(" Best move!")
	default:
		sb.WriteString(fmt.Sprintf(" Loss %d cp (%s)", *r.Loss, lossLabel(*r.Loss)))
		if r.BestMove != "" && r.BestMove != r.Move {
			sb.WriteString(fmt.Sprintf(", engine preferred %s", r.BestMove))
		}
		sb.WriteString(".")
	}
	if s := r.Session; s != nil {
		sb.WriteString(fmt.Sprintf("\nRating %d, bot depth now %d.", s.Rating, s.Depth))
		if r.GameOver {
			sb.WriteString("\n")
			sb.WriteString(f.Outcome(s))
		}
	}
	return sb.String()
}

func (f *Formatter) BotMove(r *chessdto.BotMoveResponse) string {
	if r == nil {
		return ""
	}
	text := fmt.Sprintf("Bot played %s (depth %d).", r.SAN, r.Depth)
	if r.GameOver && r.Session != nil {
		text += "\n" + f.Outcome(r.Session)
	}
	return text
}

func (f *Formatter) Outcome(v *chessdto.SessionView) string {
	var headline string
	switch v.Result {
	case "1-0":
		headline = "✅ You won!"
	case "0-1":
		headline = "❌ The bot won."
	case "1/2-1/2":
		headline = "🤝 Draw."
	default:
		return "Game over."
	}
	if v.Method != "" {
		headline += fmt.Sprintf(" (%s)", strings.ReplaceAll(v.Method, "_", " "))
	}
	return fmt.Sprintf("%s\nFinal rating %d, ACPL %.1f over %d moves.", headline, v.Rating, v.ACPL, v.SampleCount)
}

// Event renders one streamed event as a single line.
func (f *Formatter) Event(ev events.Event) string {
	ts := ev.At.In(f.loc).Format("15:04:05")
	switch ev.Type {
	case events.SessionCreated:
		return fmt.Sprintf("[%s] session %s created, depth %d", ts, ev.SessionID, ev.Depth)
	case events.HumanMoved:
		loss := "unscored"
		if ev.Loss != nil {
			loss = fmt.Sprintf("loss %d", *ev.Loss)
		}
		return fmt.Sprintf("[%s] human %s (%s) rating %d depth %d", ts, ev.SAN, loss, ev.Rating, ev.Depth)
	case events.BotMoved:
		return fmt.Sprintf("[%s] bot %s", ts, ev.SAN)
	case events.GameOver:
		return fmt.Sprintf("[%s] %s", ts, ev.Status)
	default:
		return fmt.Sprintf("[%s] session %s %s", ts, ev.SessionID, ev.Type)
	}
}

func (f *Formatter) History(games []*chessdto.GameRecord) string {
	if len(games) == 0 {
		return "No archived games."
	}
	var sb strings.Builder
	sb.WriteString("♜ Recent games\n")
	for _, g := range games {
		sb.WriteString(fmt.Sprintf("• %s %s %s, %d moves, rating %d (%s)\n",
			formatShortTime(g.EndedAt.In(f.loc)), formatResultBadge(g.Result), g.SessionID,
			len(g.MovesUCI), g.FinalRating, g.Reason))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) Game(g *chessdto.GameRecord) string {
	if g == nil {
		return "Game not found."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("♜ Game %s\n", g.ID))
	sb.WriteString(fmt.Sprintf("• Result: %s", formatResultBadge(g.Result)))
	if g.Method != "" {
		sb.WriteString(fmt.Sprintf(" by %s", g.Method))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("• Ended: %s (%s)\n", formatShortTime(g.EndedAt.In(f.loc)), g.Reason))
	if d := formatGameDuration(time.Duration(g.DurationMS) * time.Millisecond); d != "" {
		sb.WriteString(fmt.Sprintf("• Duration: %s\n", d))
	}
	sb.WriteString(fmt.Sprintf("• Final rating %d, depth %d\n", g.FinalRating, g.FinalDepth))
	if len(g.MovesSAN) > 0 {
		sb.WriteString("\n")
		sb.WriteString(formatMoveList(g.MovesSAN))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) Legal(l *chessdto.LegalMoves) string {
	if l == nil || len(l.Moves) == 0 {
		return "No legal moves."
	}
	parts := make([]string, 0, len(l.Moves))
	for _, mv := range l.Moves {
		parts = append(parts, fmt.Sprintf("%s (%s)", mv.Move, mv.SAN))
	}
	return fmt.Sprintf("Legal moves (%d): %s", len(l.Moves), strings.Join(parts, ", "))
}

func (f *Formatter) Hint(h *chessdto.HintResponse) string {
	if h == nil {
		return ""
	}
	return fmt.Sprintf("Hint: %s (%s), eval %s at depth %d", h.Move, h.SAN, formatEval(chess.Line{Eval: h.Eval, Mate: h.Mate}), h.Depth)
}

func (f *Formatter) Estimate(acpl float64, rating, depth int) string {
	return fmt.Sprintf("ACPL %.1f → estimated rating %d, recommended bot depth %d", acpl, rating, depth)
}

func (f *Formatter) Lines(fen string, depth int, lines []chess.Line) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analysis at depth %d\n%s\n", depth, fen))
	for i, l := range lines {
		sb.WriteString(fmt.Sprintf("%d. %-6s %s", i+1, l.Move, formatEval(l)))
		if len(l.PV) > 1 {
			sb.WriteString("  ")
			sb.WriteString(strings.Join(l.PV, " "))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatEval(l chess.Line) string {
	if l.Mate != 0 {
		return fmt.Sprintf("#%d", l.Mate)
	}
	return fmt.Sprintf("%+.2f", float64(l.Eval)/100)
}

func lossLabel(loss int) string {
	switch {
	case loss >= 300:
		return "blunder"
	case loss >= 100:
		return "mistake"
	case loss >= 50:
		return "inaccuracy"
	default:
		return "good"
	}
}

func formatRecentMoves(moves []string) string {
	if len(moves) == 0 {
		return "-"
	}
	if len(moves) <= recentMovesLimit {
		return strings.Join(moves, " ")
	}
	return "… " + strings.Join(moves[len(moves)-recentMovesLimit:], " ")
}

// formatMoveList numbers SAN moves in pairs: "1. e4 e5 2. Nf3".
func formatMoveList(moves []string) string {
	var sb strings.Builder
	for i, mv := range moves {
		if i%2 == 0 {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(fmt.Sprintf("%d. ", i/2+1))
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteString(mv)
	}
	return sb.String()
}

func formatResultBadge(result string) string {
	switch strings.TrimSpace(result) {
	case "1-0":
		return "✅ 1-0"
	case "0-1":
		return "❌ 0-1"
	case "1/2-1/2":
		return "🤝 ½-½"
	default:
		return "▫️ *"
	}
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func formatGameDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
