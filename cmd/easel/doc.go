// Package main hosts the easel CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into catalog
// lookups, queue submissions, gallery maintenance, dev-server runs, and
// configuration scaffolding. It centralizes configuration resolution, catalog
// loading, and structured logging setup so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the library
// packages first, then surface it through dedicated commands or flags here.
package main
