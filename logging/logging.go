// Package logging provides per-category *slog.Logger instances, each with
// its own independently adjustable level, grounded on the teacher's
// logging package. The teacher exposed level control over an always-on OSC
// socket; this module has no network control plane (spec.md's Non-goals
// exclude one), so SetCategoryLevel is instead invoked by the engine
// manager on behalf of the local-only control socket.
package logging

import (
	"log/slog"
	"os"
	"sync"
)

type LogCategory string

const (
	META     LogCategory = "meta" // logs about logging itself
	DEVICE   LogCategory = "device"
	CLASSIFY LogCategory = "classify"
	MAPPING  LogCategory = "mapping"
	ACTION   LogCategory = "action"
	CONFIG   LogCategory = "config"
	CONTROL  LogCategory = "control"
	ENGINE   LogCategory = "engine"
	STATE    LogCategory = "state"
	PLATFORM LogCategory = "platform"
)

var allCategories = []LogCategory{META, DEVICE, CLASSIFY, MAPPING, ACTION, CONFIG, CONTROL, ENGINE, STATE, PLATFORM}

// StrToLogCategory resolves a category name as it would appear in a
// control-socket command, e.g. SetLogLevel.
func StrToLogCategory(s string) (LogCategory, bool) {
	for _, c := range allCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

var (
	mu               sync.RWMutex
	loggers          = map[LogCategory]*slog.Logger{}
	categoryLvls     = map[LogCategory]*slog.LevelVar{}
	defaultLogLevels = map[LogCategory]slog.Level{
		META:     slog.LevelInfo,
		DEVICE:   slog.LevelInfo,
		CLASSIFY: slog.LevelWarn,
		MAPPING:  slog.LevelWarn,
		ACTION:   slog.LevelInfo,
		CONFIG:   slog.LevelInfo,
		CONTROL:  slog.LevelInfo,
		ENGINE:   slog.LevelInfo,
		STATE:    slog.LevelInfo,
		PLATFORM: slog.LevelInfo,
	}
	output = os.Stderr
)

// Get returns the *slog.Logger for category, always carrying a "category"
// attribute. Each category gets exactly one logger instance, lazily
// constructed.
func Get(category LogCategory) *slog.Logger {
	mu.RLock()
	l, ok := loggers[category]
	mu.RUnlock()
	if ok {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	lvlVar, ok := categoryLvls[category]
	if !ok {
		lvlVar = new(slog.LevelVar)
		lvlVar.Set(defaultLogLevels[category])
		categoryLvls[category] = lvlVar
	}
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{Level: lvlVar})
	l = slog.New(handler).With("category", category)
	loggers[category] = l
	return l
}

// SetCategoryLevel adjusts a single category's level at runtime. Used by the
// engine in response to the control socket's administrative commands.
func SetCategoryLevel(category LogCategory, level slog.Level) {
	Get(category) // ensure categoryLvls[category] exists
	mu.Lock()
	defer mu.Unlock()
	categoryLvls[category].Set(level)
}

// CurrentLevel reports the active level for category, creating it with its
// default if not yet touched.
func CurrentLevel(category LogCategory) slog.Level {
	Get(category)
	mu.RLock()
	defer mu.RUnlock()
	return categoryLvls[category].Level()
}
