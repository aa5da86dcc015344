package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lfsinitrd/internal/lfsinitrd"
)

func main() {
	// 1. CONTEXT AND SIGNAL SETUP
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	// First signal cancels the running stage gracefully; a second one
	// forces an immediate exit. Aborted runs are resumed with the skip
	// flags, so there is no uninterruptible phase to protect.
	go func() {
		select {
		case sig := <-sigs:
			fmt.Printf("\n[INFO] Received %v. Cancelling process gracefully...\n", sig)
			cancel()

			// Give the command a moment to die and flush its buffers.
			time.Sleep(100 * time.Millisecond)

			select {
			case <-sigs:
				fmt.Println("\n[FATAL] Second interrupt received. Forcing immediate exit.")
				os.Exit(130)
			case <-time.After(500 * time.Millisecond):
				return
			}
		case <-ctx.Done():
			return
		}
	}()

	if len(os.Args) < 2 {
		lfsinitrd.PrintHelp()
		os.Exit(1)
	}

	cfg, err := lfsinitrd.LoadConfig(lfsinitrd.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to read %s: %v\n", lfsinitrd.ConfigFile, err)
	}
	lfsinitrd.InitConfig(cfg)

	switch os.Args[1] {
	case "run":
		os.Exit(lfsinitrd.RunCommand(ctx, cfg, os.Args[2:]))
	case "log":
		os.Exit(lfsinitrd.LogCommand(cfg, os.Args[2:]))
	case "version", "--version":
		lfsinitrd.PrintVersion()
	case "help", "-h", "--help":
		lfsinitrd.PrintHelp()
	default:
		fmt.Println("Unknown command:", os.Args[1])
		lfsinitrd.PrintHelp()
		os.Exit(1)
	}
}
