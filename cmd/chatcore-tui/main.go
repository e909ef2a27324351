// ABOUTME: Interactive inbox client for exercising the chat core against a live backend
// ABOUTME: Readline-style loop over the session API with colorized output

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/couponly/chatcore/internal/channel"
	"github.com/couponly/chatcore/internal/chat"
	"github.com/couponly/chatcore/internal/config"
	"github.com/couponly/chatcore/internal/directory"
	"github.com/couponly/chatcore/internal/session"
)

func main() {
	configPath := flag.String("config", "chatcore.yaml", "Path to config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.API.Token)
	gw, err := channel.Dial(ctx, cfg.Channel.URL, header, logger)
	if err != nil {
		return fmt.Errorf("connecting channel: %w", err)
	}
	defer gw.Close()

	dir := directory.New(cfg.API.BaseURL, &http.Client{Timeout: cfg.API.RequestTimeout}, logger)
	sess := session.New(gw, dir, chat.Role(cfg.Viewer.Role), cfg.API.Token, logger)
	sess.Start()
	defer sess.Close()

	if err := sess.Refresh(ctx); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}

	// Echo live pushes so the prompt is not the only sign of life.
	gw.Subscribe(channel.EventNewMessage, func(json.RawMessage) {
		color.New(color.FgHiBlack).Fprintln(os.Stdout, "  « new message arrived, /inbox to refresh")
	})

	fmt.Printf("chatcore-tui connected to %s as %s\n", cfg.Channel.URL, cfg.Viewer.Role)
	fmt.Println("Commands: /inbox, /open <id>, /close, /refresh, /quit. Anything else sends.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		printPrompt(sess)

		line, ok := readLine(ctx, scanner)
		if !ok {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return nil
		case line == "/inbox":
			printInbox(sess)
		case line == "/close":
			sess.Deselect()
		case line == "/refresh":
			if err := sess.Refresh(ctx); err != nil {
				color.Red("refresh failed: %v", err)
			}
		case strings.HasPrefix(line, "/open "):
			id := strings.TrimSpace(strings.TrimPrefix(line, "/open "))
			if err := sess.Select(id); err != nil {
				color.Red("open failed: %v", err)
				continue
			}
			printMessages(sess)
		case strings.HasPrefix(line, "/"):
			color.Yellow("unknown command %s", line)
		default:
			if err := sess.Send(line); err != nil {
				color.Red("send failed: %v", err)
			}
		}
	}
}

// readLine reads one line of input, bailing out when the context ends.
func readLine(ctx context.Context, scanner *bufio.Scanner) (string, bool) {
	lines := make(chan string, 1)
	go func() {
		if scanner.Scan() {
			lines <- scanner.Text()
		} else {
			close(lines)
		}
	}()

	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-lines:
		return line, ok
	}
}

func printPrompt(sess *session.Session) {
	sel := sess.Selected()
	if sel.ID != "" {
		fmt.Printf("[%s]> ", sel.ID)
	} else {
		fmt.Print("> ")
	}
}

func printInbox(sess *session.Session) {
	entries := sess.Inbox()
	if len(entries) == 0 {
		color.New(color.FgHiBlack).Println("  (empty)")
		return
	}

	draft := color.New(color.FgHiBlack)
	name := color.New(color.FgCyan)
	for _, e := range entries {
		fmt.Print("  ")
		name.Print(e.ParticipantName)
		if e.IsDraft {
			draft.Print(" (no messages yet)")
		} else if n := len(e.Messages); n > 0 {
			last := e.Messages[n-1]
			fmt.Printf("  %s", truncate(last.Content, 48))
			draft.Printf("  %s", e.UpdatedAt.Format("Jan 2 15:04"))
		}
		draft.Printf("  id=%s", e.ID)
		fmt.Println()
	}
}

func printMessages(sess *session.Session) {
	for _, m := range sess.Messages() {
		sender := color.GreenString(string(m.SenderRole))
		fmt.Printf("  %s %s: %s\n", color.HiBlackString(m.CreatedAt.Format("15:04")), sender, m.Content)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
