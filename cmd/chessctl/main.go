package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/park285/hotseat-chess/internal/chessclient"
	appcfg "github.com/park285/hotseat-chess/internal/config"
	"github.com/park285/hotseat-chess/pkg/chessdto"
)

const usage = `usage: chessctl <command> [args]

  new [white] [black]        start a game
  show <id>                  print the game
  select <id> <square>       list targets of the piece on square
  move <id> <move> [promo]   play a move (e2e4, or e7 e8 with promo as third arg)
  undo <id>                  take back the last move
  next <id>                  start the next round
  flip <id>                  flip the board
  hints <id> on|off          toggle move hints
  clock <id> on|off          toggle the game clock
  pgn <id>                   print the PGN
  board <id> <out.png> [sq]  save the rendered board
  history [limit]            list finished games
  archived <archive-id>      print a finished game
  watch <id>                 follow the live feed`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	client := chessclient.NewClient(cfg.ServerURL, chessclient.WithTimeout(8*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "watch" {
		cancel()
		err = watch(client, args)
	} else {
		err = run(ctx, client, cmd, args)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func run(ctx context.Context, c *chessclient.Client, cmd string, args []string) error {
	switch cmd {
	case "new":
		req := chessdto.CreateGameRequest{}
		if len(args) > 0 {
			req.WhiteName = args[0]
		}
		if len(args) > 1 {
			req.BlackName = args[1]
		}
		return printState(c.CreateGame(ctx, req))
	case "show":
		if err := need(args, 1); err != nil {
			return err
		}
		return printState(c.Get(ctx, args[0]))
	case "select":
		if err := need(args, 2); err != nil {
			return err
		}
		sel, err := c.Select(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if sel.Message != "" {
			fmt.Println(sel.Message)
		}
		var parts []string
		for _, t := range sel.Targets {
			if t.Capture {
				parts = append(parts, t.To+"x")
			} else {
				parts = append(parts, t.To)
			}
		}
		fmt.Printf("%s: %s\n", sel.Square, strings.Join(parts, " "))
		return nil
	case "move":
		if err := need(args, 2); err != nil {
			return err
		}
		req := chessdto.MoveRequest{Move: args[1]}
		if len(args) > 2 {
			req = chessdto.MoveRequest{From: args[1][:min(2, len(args[1]))], To: args[1][min(2, len(args[1])):], Promotion: args[2]}
		}
		sum, err := c.Move(ctx, args[0], req)
		if err != nil {
			return err
		}
		fmt.Printf("played %s (%s)\n", sum.Notation, sum.UCI)
		return printState(sum.State, nil)
	case "undo":
		if err := need(args, 1); err != nil {
			return err
		}
		return printState(c.Undo(ctx, args[0]))
	case "next":
		if err := need(args, 1); err != nil {
			return err
		}
		return printState(c.NewGame(ctx, args[0]))
	case "flip":
		if err := need(args, 1); err != nil {
			return err
		}
		return printState(c.Flip(ctx, args[0]))
	case "hints", "clock":
		if err := need(args, 2); err != nil {
			return err
		}
		on, err := parseSwitch(args[1])
		if err != nil {
			return err
		}
		if cmd == "hints" {
			return printState(c.SetHints(ctx, args[0], on))
		}
		return printState(c.SetClock(ctx, args[0], on))
	case "pgn":
		if err := need(args, 1); err != nil {
			return err
		}
		text, err := c.PGN(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	case "board":
		if err := need(args, 2); err != nil {
			return err
		}
		selected := ""
		if len(args) > 2 {
			selected = args[2]
		}
		img, err := c.Board(ctx, args[0], selected)
		if err != nil {
			return err
		}
		return os.WriteFile(args[1], img, 0o644)
	case "history":
		limit := 0
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("limit must be a number: %w", err)
			}
			limit = n
		}
		games, err := c.History(ctx, limit)
		if err != nil {
			return err
		}
		for _, g := range games {
			fmt.Printf("%s  %s - %s  %s (%s)  %s\n", g.ID, g.WhiteName, g.BlackName, g.Result, g.Status, g.EndedAt.Format(time.RFC3339))
		}
		return nil
	case "archived":
		if err := need(args, 1); err != nil {
			return err
		}
		g, err := c.Archived(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Print(g.PGN)
		return nil
	default:
		return fmt.Errorf("unknown command\n%s", usage)
	}
}

func watch(c *chessclient.Client, args []string) error {
	if err := need(args, 1); err != nil {
		return err
	}
	w := c.Watch(args[0], 5)
	w.OnStateChange(func(state chessclient.WatchState) {
		log.Printf("WS state: %s", state)
	})
	w.OnEvent(func(ev *chessdto.Event) {
		switch {
		case ev.Error != nil:
			fmt.Printf("[%s] %s\n", ev.Type, ev.Error.Message)
		case ev.State != nil:
			fmt.Printf("[%s] ", ev.Type)
			_ = printState(ev.State, nil)
		}
	})

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.Connect(cctx); err != nil {
		return err
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return w.Close(context.Background())
}

func printState(st *chessdto.GameState, err error) error {
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s (white) vs %s (black)  %s  %s\n", st.ID, st.WhiteName, st.BlackName, st.Status, st.Result)
	fmt.Printf("fen: %s\n", st.FEN)
	for _, r := range st.Rows {
		fmt.Printf("%3d. %-8s %s\n", r.Number, r.White, r.Black)
	}
	if st.Clock != nil {
		fmt.Printf("clock: white %s  black %s\n", st.Clock.White, st.Clock.Black)
	}
	if st.Message != "" {
		fmt.Println(st.Message)
	}
	return nil
}

func need(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("expected %d argument(s)\n%s", n, usage)
	}
	return nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
