// Package file provides the file-based implementation of the
// driven.ConfigStore interface.
//
// Configuration lives in a TOML file, one [drivers.<name>] table per data
// source, watched for changes with fsnotify so edits apply between runs
// without restarting.
package file
