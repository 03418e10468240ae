package utils

import (
	"log"
	"strings"
)

// LogEvent prints one structured line per domain action. Keep message to
// ids and amounts; never client documents or provider tokens.
func LogEvent(requestID, module, action, message string) {
	logLine("INFO", requestID, module, action, message)
}

// LogWarn marks degraded paths: skipped optional tables, failed conflict
// checks, rolled back enrollments.
func LogWarn(requestID, module, action, message string) {
	logLine("WARN", requestID, module, action, message)
}

func logLine(level, requestID, module, action, message string) {
	req := strings.TrimSpace(requestID)
	if req == "" {
		req = "-"
	}
	log.Printf("%s [%s] action=%s request_id=%s %s", level, strings.ToUpper(module), action, req, message)
}
