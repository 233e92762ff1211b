// Package logging provides structured logging for the paged results
// server.
//
// The Logger interface takes a message and alternating key/value pairs.
// Output is produced by log/slog text or JSON handlers:
//
//	logger := logging.New(logging.Config{
//	    Level:  "debug",
//	    Format: "json",
//	    Output: "stderr",
//	})
//	logger.Info("paged slot allocated", "conn", connID, "idx", 0)
//
// Loggers derived with WithFields or WithRequestID carry their fields on
// every entry. Connections get one derived logger each, keyed by a UUID
// from GenerateRequestID.
//
// Tests use NewNop, or NewWithWriter to capture output.
package logging
