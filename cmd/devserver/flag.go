package main

import (
	"flag"
	"fmt"
	"strconv"
)

const (
	envPort  = "PORT"
	envDebug = "HIDE_AND_SEEK_DEBUG"
)

// mainFlags configure the development server.
type mainFlags struct {
	port  int
	debug bool
}

// newMainFlags reads the flags in the arguments after the program name.
// Flags that are not given default to the environment variable named in their usage, then to other defaults.
func newMainFlags(osArgs []string, osLookupEnvFunc func(string) (string, bool)) mainFlags {
	m := mainFlags{
		port: 4000,
	}
	if v, ok := osLookupEnvFunc(envPort); ok {
		if port, err := strconv.Atoi(v); err == nil {
			m.port = port
		}
	}
	_, m.debug = osLookupEnvFunc(envDebug)
	fs := flag.NewFlagSet("devserver", flag.ExitOnError)
	fs.IntVar(&m.port, "port", m.port, fmt.Sprintf("The TCP port to listen on [%v].", envPort))
	fs.BoolVar(&m.debug, "debug", m.debug, fmt.Sprintf("Logs the type of each message read from or written to players [%v].", envDebug))
	if len(osArgs) > 1 {
		fs.Parse(osArgs[1:])
	}
	return m
}
