package main

import (
	"context"
	"fmt"
	"github.com/spf13/pflag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"twitchchat/internal/pkg/app"
)

func main() {
	var opts app.Options

	flagSet := pflag.NewFlagSet("twitchchat", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.ConfigPath, "config", "c", "config.json", "path to the JSON config file, created with defaults if missing")
	flagSet.StringVar(&opts.LogLevel, "log-level", "", "override app.log_level (trace, debug, info, warn, error)")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, opts); err != nil {
		log.Fatal(err)
	}
}
