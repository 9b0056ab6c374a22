package infra

import (
	"fmt"
	"io"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner writes the startup banner for the room about to be joined.
func PrintBanner(w io.Writer, cfg *Config, roomID string) {
	color := ColorGreen
	if cfg.Storage.Journal {
		color = ColorCyan
	}

	player := cfg.Player.Name
	if player == "" {
		player = cfg.Player.ID
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s###########################################################%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#                                                         #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#                ♠ ♣ ♦ ♥  Figgie Client                   #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#                                                         #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#   ROOM:    %-44s #%s\n", color, truncate(roomID, 44), ColorReset)
	fmt.Fprintf(w, "%s#   PLAYER:  %-44s #%s\n", color, truncate(player, 44), ColorReset)
	fmt.Fprintf(w, "%s#   SERVER:  %-44s #%s\n", color, truncate(cfg.Server.WSURL, 44), ColorReset)
	fmt.Fprintf(w, "%s#   VERSION: %-44s #%s\n", color, cfg.App.Version, ColorReset)
	fmt.Fprintf(w, "%s#                                                         #%s\n", color, ColorReset)
	if cfg.Storage.Journal {
		fmt.Fprintf(w, "%s#   JOURNAL ON: every frame is recorded for replay        #%s\n", ColorYellow, ColorReset)
	}
	fmt.Fprintf(w, "%s###########################################################%s\n", color, ColorReset)
	fmt.Fprintln(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
