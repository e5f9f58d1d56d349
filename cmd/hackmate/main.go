package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hackmate/client/internal/api"
	"github.com/hackmate/client/internal/infrastructure/config"
	"github.com/hackmate/client/internal/infrastructure/logging"
	"github.com/hackmate/client/internal/infrastructure/monitoring"
	"github.com/hackmate/client/internal/realtime"
	"github.com/hackmate/client/internal/shared/types"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	teamID := flag.String("team", "", "Team chat to join on startup")
	userID := flag.String("user", "", "User identifier")
	username := flag.String("name", "", "Display name")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.NewDefault()
	if *verbose {
		log = logging.NewDevelopment()
	}
	defer log.Sync()

	if cfg.API.Token == "" {
		fmt.Fprintln(os.Stderr, "no token configured; set HACKMATE_API_TOKEN or api.token in the config file")
		os.Exit(1)
	}

	session := types.Session{
		UserID:   *userID,
		Username: *username,
		Token:    cfg.API.Token,
	}

	metrics := monitoring.NewMetrics()
	rest := api.New(cfg.API, cfg.RateLimit, log)

	client := realtime.New(session, realtime.OptionsFromConfig(cfg.Realtime, log, metrics))
	client.OnNotification(func(n types.Notification) {
		fmt.Printf("** %s: %s\n", n.Type, n.Message)
	})
	client.OnStatusChange(func(s types.ConnectionStatus) {
		fmt.Printf("-- connection %s\n", s)
	})
	client.OnSubscriptionError(func(teamID string, err error) {
		fmt.Fprintf(os.Stderr, "!! %v\n", err)
	})
	client.OnConnectionError(func(err error) {
		fmt.Fprintf(os.Stderr, "!! connection: %v\n", err)
	})

	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		log.Warn("connect failed", zap.Error(err))
	}
	defer client.Disconnect()

	if *teamID != "" {
		seedHistory(ctx, rest, *teamID)
		if err := client.JoinTeamChat(*teamID); err != nil {
			fmt.Fprintf(os.Stderr, "join %s: %v\n", *teamID, err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	printLoop(client, *teamID, lines, sigChan)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// seedHistory prints the persisted tail of the team chat before live
// delivery starts.
func seedHistory(ctx context.Context, rest *api.Client, teamID string) {
	msgs, err := rest.RecentTeamMessages(ctx, teamID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		return
	}
	for _, m := range msgs {
		fmt.Printf("<%s> %s\n", m.SenderName, m.Content)
	}
}

func printLoop(client *realtime.Client, teamID string, lines <-chan string, sigChan <-chan os.Signal) {
	seen := 0
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if line == "" {
				continue
			}
			if teamID == "" {
				fmt.Fprintln(os.Stderr, "no team joined; start with -team")
				continue
			}
			if err := client.SendMessage(teamID, line); err != nil {
				fmt.Fprintf(os.Stderr, "send: %v\n", err)
			}
			// Echo newly arrived messages since the last prompt.
			for _, m := range client.TeamMessages(teamID)[seen:] {
				fmt.Printf("<%s> %s\n", m.SenderName, m.Content)
				seen++
			}
		case <-sigChan:
			return
		}
	}
}
