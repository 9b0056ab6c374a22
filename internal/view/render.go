// Package view renders session snapshots for the terminal.
package view

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"figgie_go/internal/domain"
	"figgie_go/internal/state"
)

var (
	clrBorder = lipgloss.Color("#30363d")
	clrSubtle = lipgloss.Color("#8b949e")
	clrGold   = lipgloss.Color("#e3b341")
	clrGreen  = lipgloss.Color("#3fb950")
	clrRed    = lipgloss.Color("#f85149")
	clrTitle  = lipgloss.Color("#58a6ff")

	// Spade, Club, Diamond, Heart
	suitColors = [domain.NumSuits]lipgloss.Color{
		lipgloss.Color("#50FA7B"),
		lipgloss.Color("#44AAFF"),
		lipgloss.Color("#FFD700"),
		lipgloss.Color("#FF6B6B"),
	}
)

// Renderer draws a state.View. It is not safe for concurrent use.
type Renderer struct {
	out    io.Writer
	r      *lipgloss.Renderer
	tail   int
	border lipgloss.Border
}

// New creates a renderer writing to out. theme "plain" uses square ASCII-ish
// borders; anything else gets rounded ones.
func New(out io.Writer, tradeTail int, theme string) *Renderer {
	border := lipgloss.RoundedBorder()
	if theme == "plain" {
		border = lipgloss.NormalBorder()
	}
	if tradeTail <= 0 {
		tradeTail = 8
	}
	return &Renderer{
		out:    out,
		r:      lipgloss.NewRenderer(out),
		tail:   tradeTail,
		border: border,
	}
}

func (r *Renderer) fg(c lipgloss.Color) lipgloss.Style {
	return r.r.NewStyle().Foreground(c)
}

func (r *Renderer) bold(c lipgloss.Color) lipgloss.Style {
	return r.r.NewStyle().Foreground(c).Bold(true)
}

func (r *Renderer) box(title, content string) string {
	return r.r.NewStyle().
		Border(r.border).
		BorderForeground(clrBorder).
		Padding(0, 1).
		Render(r.bold(clrTitle).Render(title) + "\n" + content)
}

// Draw clears the screen and writes the rendered view.
func (r *Renderer) Draw(v state.View) error {
	_, err := io.WriteString(r.out, "\033[H\033[2J"+r.Render(v)+"\n")
	return err
}

// Render lays out header, hand, book, players and trades, followed by the
// last round result or the final standings.
func (r *Renderer) Render(v state.View) string {
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		r.box("Book", r.renderBook(v)), " ",
		r.box("Hand", r.renderHand(v.Hand)))

	sections := []string{
		r.renderHeader(v),
		top,
		r.box("Players", r.renderPlayers(v)),
		r.box("Trades", r.renderTrades(v)),
	}
	switch {
	case v.GameOver:
		sections = append(sections, r.box("Final standings", r.renderStandings(v.Final, "")))
	case v.Result != nil && v.Round.Phase == domain.PhaseEnded:
		title := fmt.Sprintf("Round %d result", v.Result.RoundID)
		sections = append(sections, r.box(title, r.renderStandings(v.Result.Standings, v.Result.GoalSuit)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (r *Renderer) renderHeader(v state.View) string {
	name := v.RoomName
	if name == "" {
		name = v.RoomID
	}
	phase := v.Round.Phase.String()
	if v.Round.Provisional {
		phase += "*"
	}

	clock := FormatCountdown(v.Remaining)
	clockStyle := r.bold(clrGreen)
	if v.Remaining <= 30*time.Second {
		clockStyle = r.bold(clrRed)
	}

	return fmt.Sprintf("%s  %s  round %d  %s  %s",
		r.bold(clrGold).Render(name),
		r.fg(clrSubtle).Render("as "+v.Self.DisplayName()),
		v.Round.ID,
		r.fg(clrSubtle).Render(phase),
		clockStyle.Render(clock))
}

// FormatCountdown renders d as mm:ss, clamped at zero.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func (r *Renderer) suit(s domain.Suit) string {
	i := s.Index()
	if i < 0 {
		return string(s)
	}
	return r.fg(suitColors[i]).Render(s.Symbol() + " " + fmt.Sprintf("%-7s", s))
}

func (r *Renderer) renderBook(v state.View) string {
	names := make(map[string]string, len(v.Players))
	for _, p := range v.Players {
		names[p.Identity.ID] = p.Identity.DisplayName()
	}
	side := func(q domain.Quote, ok bool) string {
		if !ok {
			return fmt.Sprintf("%12s", "-")
		}
		who := names[q.PlayerID]
		if who == "" {
			who = q.PlayerID
		}
		return fmt.Sprintf("%4d %-7s", q.Price, truncate(who, 7))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-9s  %12s  %12s", "", "bid", "offer")
	for i, lvl := range v.Book {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s  %s  %s",
			r.suit(domain.Suits[i]),
			r.fg(clrGreen).Render(side(lvl.Bid, lvl.HasBid)),
			r.fg(clrRed).Render(side(lvl.Offer, lvl.HasOffer)))
	}
	return b.String()
}

func (r *Renderer) renderHand(h domain.Hand) string {
	lines := make([]string, 0, domain.NumSuits+1)
	for i, s := range domain.Suits {
		lines = append(lines, fmt.Sprintf("%s %3d", r.suit(s), h[i]))
	}
	lines = append(lines, fmt.Sprintf("%-9s %3d", "total", h.Total()))
	return strings.Join(lines, "\n")
}

func (r *Renderer) renderPlayers(v state.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %6s %5s  %s", "player", "cash", "cards", "Δ ♠ ♣ ♦ ♥")
	for _, p := range v.Players {
		name := truncate(p.Identity.DisplayName(), 12)
		if p.Identity.ID == v.Self.ID {
			name = truncate("> "+p.Identity.DisplayName(), 12)
		}
		deltas := make([]string, 0, domain.NumSuits)
		for _, d := range p.SuitDeltas {
			deltas = append(deltas, fmt.Sprintf("%+d", d))
		}
		b.WriteString("\n")
		b.WriteString(r.fg(lipgloss.Color(p.Color)).Render(fmt.Sprintf("%-12s", name)))
		fmt.Fprintf(&b, " %6d %5d  %s", p.Cash, p.TotalCards, strings.Join(deltas, " "))
	}
	return b.String()
}

func (r *Renderer) renderTrades(v state.View) string {
	var b strings.Builder
	trades := v.Trades
	if len(trades) > r.tail {
		trades = trades[len(trades)-r.tail:]
	}
	if len(trades) == 0 {
		b.WriteString(r.fg(clrSubtle).Render("no trades yet"))
	}
	for i := len(trades) - 1; i >= 0; i-- {
		t := trades[i]
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s ← %s @ %d",
			r.suit(t.Suit),
			truncate(t.Buyer.DisplayName(), 10),
			truncate(t.Seller.DisplayName(), 10),
			t.Price)
	}

	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%-9s %5s %8s %7s %5s", "", "count", "turnover", "avg", "last")
	for _, st := range v.Stats {
		fmt.Fprintf(&b, "\n%s %5d %8d %7s %5d",
			r.suit(st.Suit), st.Count, st.Turnover, st.AvgPrice.StringFixed(2), st.LastPrice)
	}
	return b.String()
}

func (r *Renderer) renderStandings(rows []domain.Standing, goal domain.Suit) string {
	var b strings.Builder
	if goal != "" {
		fmt.Fprintf(&b, "goal suit: %s\n", r.suit(goal))
	}
	for i, st := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		line := fmt.Sprintf("%d. %-12s %6d  %d cards", i+1, truncate(st.Identity.DisplayName(), 12), st.Cash, st.TotalCards)
		if goal != "" {
			line += fmt.Sprintf("  %d %s", st.Hand.Count(goal), goal.Symbol())
		}
		if i == 0 {
			b.WriteString(r.bold(clrGold).Render(line))
		} else {
			b.WriteString(line)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}
