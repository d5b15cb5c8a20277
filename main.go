package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kong/ideamixer/internal/build"
	"github.com/kong/ideamixer/internal/cmd/root"
	"github.com/kong/ideamixer/internal/iostreams"
)

var (
	// version may be overridden by the linker
	version = "dev"
	// commit may be overridden by the linker
	commit = "unknown"
	// date may be overridden by the linker
	date = "unknown"
)

func registerSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		sig := <-sigs
		fmt.Fprintln(os.Stderr, "received", sig, ", terminating...")
		cancel()
	}()
	return ctx
}

func main() {
	ctx := registerSignalHandler()
	root.Execute(ctx, iostreams.GetOSIOStreams(), build.NewInfo(version, commit, date))
}
