// Package cli wires together the Cobra command tree for the dgcreview binary.
//
// It defines the root command and its subcommands (serve, sync, reviews,
// hash-password, version), resolves configuration from the environment and
// flags, builds the storage and locking backends, and maps failures to exit
// codes.
package cli
