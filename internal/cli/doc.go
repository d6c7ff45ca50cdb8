// Package cli implements the djvuinfo command line tool.
//
// Every subcommand extracts metadata into memory; nothing is written to
// the database or cache directories.
package cli
