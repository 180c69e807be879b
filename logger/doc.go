// Package logger provides structured logging for the zenject runtime.
//
// It wraps zerolog with a small configuration surface, console and JSON
// output formats, and a global logger used by the module loader and the
// lifecycle coordinator. Scoped loggers can be tagged per module so the
// origin of every registration and teardown line is visible.
//
//	logger.Init(&logger.Config{Level: "debug", Format: "console"})
//	logger.Info("Module loaded", map[string]interface{}{"module": "config"})
package logger
