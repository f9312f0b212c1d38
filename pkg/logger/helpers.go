package logger

// LogRateLimit logs a blocking wait on an exhausted endpoint quota
func LogRateLimit(l Logger, endpoint string, wait float64) {
	l.WithFields(map[string]interface{}{
		"endpoint":     endpoint,
		"wait_seconds": wait,
		"action":       "rate_limited",
	}).Warn("Rate limit reached, waiting for quota reset")
}

// LogRunSummary logs the final state of an ingestion run
func LogRunSummary(l Logger, account, state string, written int) {
	l.WithFields(map[string]interface{}{
		"account": account,
		"state":   state,
		"written": written,
	}).Info("Run finished")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
