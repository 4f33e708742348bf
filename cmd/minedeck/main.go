package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/app"
	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	theme := flag.String("theme", "", "color theme: "+strings.Join(ui.ThemeNames(), ", "))
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: *configPath, Theme: *theme}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "minedeck: %v\n", err)
		return 1
	}
	return 0
}
