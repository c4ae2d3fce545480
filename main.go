package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/PAPAMICA/wallix-ssh/internal/app"
	"github.com/PAPAMICA/wallix-ssh/internal/config"
	"github.com/PAPAMICA/wallix-ssh/internal/log"
)

func main() {
	// Ctrl-C during a prompt or a fetch is a normal way out: clean line,
	// exit 0, no trace.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		fmt.Println()
		os.Exit(0)
	}()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	if err := app.Command(cfg).Execute(context.Background()); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
