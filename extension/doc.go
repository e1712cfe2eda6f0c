// Package extension provides the run-time registry of named user programs
// that can be booted, including the bundled demo programs.
//
// Most applications register their own programs through the root kproc
// package; the registry is shared by the command line tool.
package extension
