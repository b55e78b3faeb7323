// Package logs reads the JSON log file written next to the console output.
//
// Tail returns the last lines of the file with bounded memory use and Follow
// polls for appended lines until the context ends. ParseRecord and Query turn
// raw lines into records and filter them by run, title and level, which is
// how `switchlib logs` shows what one ingest run did.
package logs
