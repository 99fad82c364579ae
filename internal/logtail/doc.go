// Package logtail reads the tail of the client log for the Logs view.
//
// # Reading
//
// Read keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays O(maxLines) no matter how large the log grows:
//
//	lines, err := logtail.Read(afero.NewOsFs(), cfg.LogFile, 400)
//	if err != nil {
//		log.Printf("[ui] failed to read log: %v", err)
//	}
//
// A missing file returns nil, nil; the log may simply not exist yet.
//
// # Parsing
//
// The client logs through the standard library logger with a component tag:
//
//	2025/03/01 12:30:45 [session] recover session failed: network failure
//
// Parse splits such a line into time, component and message. Filter narrows a
// batch of lines to one component. Lines that do not match the format are
// passed through untouched.
//
// Rotation is handled by the writer (lumberjack); only the current file is read.
package logtail
