// Package logger builds the zap logger shared by every component.
//
// New selects zap's development config for the debug level and the production config
// otherwise, with json or console encoding. WithRayID scopes a logger to one HTTP request
// and ForRun scopes it to one sync run, so every line of either can be correlated.
//
//	log, _ := logger.New(&cfg.Log)
//	runLog := logger.ForRun(log, runID)
//	runLog.Info("Sync run finished", report.Fields()...)
package logger
