package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harborpm/spm/cmd"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		<-c
		cancel()
	}()

	os.Exit(cmd.Execute(ctx))
}
