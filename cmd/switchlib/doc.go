// Command switchlib organizes Nintendo Switch game files and archives into a
// canonical per-game library.
//
// Subcommands:
//
//	scan                  list the games found in the source folders
//	ingest <id>...        extract and place the selected games
//	organize <folder>     plan (and with --apply, perform) a library cleanup
//	titledb update|status manage the local title metadata database
//	config init|validate  manage the configuration file
//	doctor                check the tool, folders, device and title database
//	logs                  show recent records from the JSON log file
package main
