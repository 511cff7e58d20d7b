package main

import (
	"flag"
	"fmt"
	"maps"
	"strings"

	"github.com/jacobpatterson1549/hide-and-seek/config"
	"github.com/joho/godotenv"
)

const (
	environmentVariableEnvironment = "HIDE_AND_SEEK_ENVIRONMENT"
	environmentVariableAPIURL      = "HIDE_AND_SEEK_API_URL"
	environmentVariableStore       = "HIDE_AND_SEEK_STORE"
	environmentVariableStoreURL    = "HIDE_AND_SEEK_STORE_URL"
	environmentVariableDebug       = "HIDE_AND_SEEK_DEBUG"
	environmentVariableEnvFile     = "HIDE_AND_SEEK_ENV_FILE"
)

// mainFlags are the configuration options which can be easily changed for a single run.
// Empty values leave the environment configuration unchanged.
type mainFlags struct {
	envFile     string
	environment string
	apiURL      string
	store       string
	storeURL    string
	debug       bool
}

// usage prints how to run the application to the flagset's output.
func usage(fs *flag.FlagSet) {
	envVars := []string{
		environmentVariableEnvironment,
		environmentVariableAPIURL,
		environmentVariableStore,
		environmentVariableStoreURL,
		environmentVariableDebug,
		environmentVariableEnvFile,
	}
	fmt.Fprintf(fs.Output(), "Plays hide and seek from the command line\n")
	fmt.Fprintf(fs.Output(), "Reads environment variables when possible: [%s]\n", strings.Join(envVars, ","))
	fmt.Fprintf(fs.Output(), "Usage of %s: [flags] command [arguments]\n", fs.Name())
	fmt.Fprintf(fs.Output(), "Commands:\n%s", commandUsage)
	fmt.Fprintf(fs.Output(), "Flags:\n")
	fs.PrintDefaults()
}

// newFlagSet creates a flagSet that populates the specified mainFlags.
func (m *mainFlags) newFlagSet(osLookupEnvFunc func(string) (string, bool)) *flag.FlagSet {
	fs := flag.NewFlagSet("hideandseek", flag.ExitOnError)
	fs.Usage = func() {
		usage(fs) // [lazy evaluation]
	}
	envValue := func(key string) string {
		if envValue, ok := osLookupEnvFunc(key); ok {
			return envValue
		}
		return ""
	}
	envPresent := func(key string) bool {
		_, ok := osLookupEnvFunc(key)
		return ok
	}
	fs.StringVar(&m.envFile, "env-file", envValue(environmentVariableEnvFile), "A .env file of configuration variables.  Variables already in the environment take precedence.")
	fs.StringVar(&m.environment, "environment", envValue(environmentVariableEnvironment), "The game server to use: development or production.")
	fs.StringVar(&m.apiURL, "api-url", envValue(environmentVariableAPIURL), "The base url of the game server.  Overrides the environment.")
	fs.StringVar(&m.store, "store", envValue(environmentVariableStore), "Where the credentials to reconnect to a game are kept: memory, file, sqlite, postgres, mongo, or firestore.")
	fs.StringVar(&m.storeURL, "store-url", envValue(environmentVariableStoreURL), "The file path or database url of the store.")
	fs.BoolVar(&m.debug, "debug", envPresent(environmentVariableDebug), "Logs the type of each message sent to and received from the game server.")
	return fs
}

// newMainFlags creates a new, populated mainFlags structure and returns the arguments after the flags.
// Fields are populated from command line arguments.
// If fields are not specified on the command line, environment variable values are used.
func newMainFlags(osArgs []string, osLookupEnvFunc func(string) (string, bool)) (mainFlags, []string) {
	if len(osArgs) == 0 {
		osArgs = []string{""}
	}
	programArgs := osArgs[1:]
	var m mainFlags
	fs := m.newFlagSet(osLookupEnvFunc)
	fs.Parse(programArgs)
	return m, fs.Args()
}

// readEnvironment merges the variables of the env file, if any, with the process environment, which takes precedence.
func (m mainFlags) readEnvironment(environ []string) (map[string]string, error) {
	environment := make(map[string]string, len(environ))
	if len(m.envFile) != 0 {
		fileEnvironment, err := godotenv.Read(m.envFile)
		if err != nil {
			return nil, fmt.Errorf("reading env file: %w", err)
		}
		maps.Copy(environment, fileEnvironment)
	}
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environment[k] = v
		}
	}
	return environment, nil
}

// apply overrides the config with the flags that are set.
func (m mainFlags) apply(cfg *config.Config) error {
	if len(m.environment) != 0 {
		cfg.Environment = m.environment
	}
	if len(m.apiURL) != 0 {
		cfg.APIURL = m.apiURL
	}
	if len(m.store) != 0 {
		cfg.Store = m.store
	}
	if len(m.storeURL) != 0 {
		cfg.StoreURL = m.storeURL
	}
	if m.debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating flags: %w", err)
	}
	return nil
}
