// Package utils exposes reusable helpers consumed by the CLI wiring.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, environment variables, and zap logging, plus the
// command-context accessor shared between the root command and subcommands.
package utils
