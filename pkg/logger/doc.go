// Package logger provides the structured logging interface used across
// followgraph. It wraps zerolog with field-carrying child loggers, a global
// instance, and a capturing TestLogger for assertions in tests.
//
//	err := logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("component", "collector")
//	log.InfoWithFields("collection finished", map[string]interface{}{
//	    "nodes": g.NodeCount(),
//	    "edges": g.EdgeCount(),
//	})
package logger
