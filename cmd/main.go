package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/classroom-backend/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application.Start()

	errCh := make(chan error, 1)
	go func() { errCh <- application.Run(":" + application.Cfg.Port) }()

	exitCode := 0
	select {
	case <-ctx.Done():
		application.Log.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			application.Log.Error("Server failed", "error", err)
			exitCode = 1
		}
	}
	application.Close()
	os.Exit(exitCode)
}
