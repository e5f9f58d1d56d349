package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/hackmate/client/internal/broker"
	"github.com/hackmate/client/internal/infrastructure/logging"
)

func main() {
	port := flag.String("port", "8080", "Listen port")
	tokens := flag.String("tokens", "dev-token:u1:dev", "Comma-separated token:user_id:username triples")
	flag.Parse()

	log := logging.NewDevelopment()
	defer log.Sync()

	srv := broker.NewServer(broker.Options{
		Tokens: parseTokens(*tokens),
		Logger: log,
	})

	httpSrv := &http.Server{Addr: ":" + *port, Handler: srv.Handler()}

	errChan := make(chan error, 1)
	go func() {
		log.Info("dev broker listening", zap.String("addr", httpSrv.Addr))
		errChan <- httpSrv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info("shutting down")
		httpSrv.Close()
	case err := <-errChan:
		log.Fatal("broker failed", zap.Error(err))
	}
}

func parseTokens(s string) map[string]broker.Identity {
	tokens := make(map[string]broker.Identity)
	for _, triple := range strings.Split(s, ",") {
		parts := strings.SplitN(triple, ":", 3)
		if len(parts) != 3 {
			continue
		}
		tokens[parts[0]] = broker.Identity{UserID: parts[1], Username: parts[2]}
	}
	return tokens
}
