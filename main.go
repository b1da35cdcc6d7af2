package main

import (
	"context"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"
	launcher "github.com/palgania/launcher/cmd/launcher"
	"github.com/palgania/launcher/internal/lifecycle"
	"github.com/palgania/launcher/internal/perf"
	"github.com/palgania/launcher/internal/telemetry"
)

func main() {
	perf.Init()
	telemetry.Init()

	lifecycle.Register(func(os.Signal) {
		telemetry.Shutdown()
		_ = perf.Shutdown(context.Background())
	})

	err := launcher.Execute()

	telemetry.Shutdown()
	_ = perf.Shutdown(context.Background())

	if err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
