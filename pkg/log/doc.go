// Package log wraps zerolog behind a small global logger with component
// and per-game child loggers. Call Init once at startup to pick the level
// and output format; everything else takes child loggers from here.
package log
