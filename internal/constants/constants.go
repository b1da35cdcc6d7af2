// Package constants defines shared constant values.
package constants

// AppName is the project identifier used in logs and metadata.
const AppName = "palgania-launcher"

// CommandName is the primary CLI command name.
const CommandName = "palgania-launcher"

// FilePrefix tags every file the launcher writes into the game directory so
// bulk identification and cleanup never touch user-managed files.
const FilePrefix = "palgania_launcher_"
