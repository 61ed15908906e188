package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rukhmanov/kwadro-backend/logger"
	"github.com/rukhmanov/kwadro-backend/server"
)

func main() {
	// Local development keeps secrets in .env; in production the variables
	// arrive from the environment and the file is simply absent.
	_ = godotenv.Load()

	s := server.NewServer()

	s.TelegramListener.Start()
	defer s.TelegramListener.Stop()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			logger.Errorf("shutdown: %v", err)
		}
	}()

	addr := s.Config.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	s.Start(addr)
}
