// Package main plays hide and seek from the command line after configuring the client from the environment and flags.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacobpatterson1549/hide-and-seek/config"
)

// main configures the client and runs the command.
func main() {
	logFlags := log.Ldate | log.Ltime | log.LUTC | log.Lshortfile | log.Lmsgprefix
	log := log.New(os.Stderr, "", logFlags)
	m, args := newMainFlags(os.Args, os.LookupEnv)
	environment, err := m.readEnvironment(os.Environ())
	if err != nil {
		log.Fatalf("reading environment: %v", err)
	}
	cfg, err := config.Parse(environment)
	if err != nil {
		log.Fatalf("reading configuration: %v", err)
	}
	if err := m.apply(cfg); err != nil {
		log.Fatalf("reading flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	a, err := newApp(ctx, *cfg, log)
	if err != nil {
		log.Fatalf("creating application: %v", err)
	}
	runErr := a.run(ctx, args, os.Stdout)
	if err := a.close(); err != nil {
		log.Printf("stopping application: %v", err)
	}
	if runErr == errUsage {
		m.newFlagSet(os.LookupEnv).Usage()
	}
	if runErr != nil {
		log.Fatalf("running command: %v", runErr)
	}
}
