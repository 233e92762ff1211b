package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage information to the given writer.
func printUsage(w io.Writer) {
	fmt.Fprint(w, `oba - LDAP Simple Paged Results workbench

Usage:
  oba <command> [options]

Commands:
  simulate    Run paged search clients against an in-memory directory
  config      Configuration management
  version     Show version information

Use "oba <command> -h" for more information about a command.
`)
}

// printSimulateUsage prints the simulate command usage.
func printSimulateUsage(w io.Writer) {
	fmt.Fprint(w, `Run paged search clients against an in-memory directory

Usage:
  oba simulate [options]

Options:
  -c, --config string
        Path to configuration file
      --connections int
        Client connections (overrides config)
      --searches int
        Paged searches per connection (overrides config)
      --page-size int
        Requested page size (overrides config)
      --abandon-rate float
        Probability of abandoning after a page (overrides config)
      --rps float
        Requests per second across all clients, 0 for unlimited (overrides config)
      --filter string
        Search filter (overrides config)
      --log-level string
        Log level: debug, info, warn, error (overrides config)
  -h, --help
        Show this help message

The command exits non-zero if any result set was leaked or released twice.
`)
}

// printConfigUsage prints the config command usage.
func printConfigUsage(w io.Writer) {
	fmt.Fprint(w, `Configuration management

Usage:
  oba config <subcommand> [options]

Subcommands:
  validate    Validate configuration file
  init        Generate default configuration
  show        Show effective configuration

Use "oba config <subcommand> -h" for more information.
`)
}

// printVersionUsage prints the version command usage.
func printVersionUsage(w io.Writer) {
	fmt.Fprint(w, `Show version information

Usage:
  oba version [options]

Options:
      --short
        Show only version number
  -h, --help
        Show this help message
`)
}
