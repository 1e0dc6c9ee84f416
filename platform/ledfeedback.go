package platform

import "github.com/jdginn/padengine/logging"

// LoggingLED is the default engine.LEDFeedback: no pack example drives real
// pad LEDs (the teacher's xtouch package writes directly to its own
// surface, which has no analog here), so this logs what a real LED driver
// would be told to do. cmd/padengine wires it in by default; a future LED
// scheme implementation only needs to satisfy the same two methods.
type LoggingLED struct {
	log func(msg string, args ...any)
}

func NewLoggingLED() *LoggingLED {
	return &LoggingLED{log: logging.Get(logging.PLATFORM).Info}
}

func (l *LoggingLED) Pad(padID uint8, color string, brightness float64) {
	l.log("pad LED not wired on this platform", "pad", padID, "color", color, "brightness", brightness)
}

func (l *LoggingLED) Transition(effect, fromMode, toMode string) {
	l.log("LED transition not wired on this platform", "effect", effect, "from", fromMode, "to", toMode)
}
