// Package condition evaluates config.Condition trees against the engine's
// current runtime context (spec.md §4.4).
package condition

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jdginn/padengine/config"
	"github.com/jdginn/padengine/logging"
)

// AppQuery answers process-table questions a Condition may depend on. The
// concrete implementation lives in the platform package (spec.md §6:
// platform abstractions are consumed here, not implemented).
type AppQuery interface {
	Running(name string) bool
	Frontmost(name string) bool
}

// ModifierQuery reports whether a named modifier key is currently held.
type ModifierQuery interface {
	Held(name string) bool
}

// Context is the implicit evaluation environment for a Condition tree.
type Context struct {
	Now       func() time.Time
	Mode      string
	Apps      AppQuery
	Modifiers ModifierQuery
}

const maxDepth = 32

var warnUnavailableOnce sync.Once

// Evaluate resolves c against ctx, recursing into And/Or/Not per spec.md
// §4.4. An unset (nil) condition is treated as Always, for callers that
// attach a Condition only to gate specific actions.
func Evaluate(c *config.Condition, ctx Context) bool {
	return evaluate(c, ctx, 0)
}

func evaluate(c *config.Condition, ctx Context, depth int) bool {
	if c == nil {
		return true
	}
	if depth > maxDepth {
		return false
	}

	switch c.Type {
	case config.CondAlways:
		return true
	case config.CondNever:
		return false
	case config.CondTimeRange:
		return evalTimeRange(c, ctx)
	case config.CondDayOfWeek:
		return evalDayOfWeek(c, ctx)
	case config.CondAppRunning:
		return evalApp(ctx, func(q AppQuery) bool { return q.Running(c.App) })
	case config.CondAppFrontmost:
		return evalApp(ctx, func(q AppQuery) bool { return q.Frontmost(c.App) })
	case config.CondModeIs:
		return ctx.Mode == c.ModeName
	case config.CondModifierHeld:
		if ctx.Modifiers == nil {
			return false
		}
		return ctx.Modifiers.Held(c.Modifier)
	case config.CondAnd:
		for _, sub := range c.Sub {
			if !evaluate(&sub, ctx, depth+1) {
				return false
			}
		}
		return true
	case config.CondOr:
		for _, sub := range c.Sub {
			if evaluate(&sub, ctx, depth+1) {
				return true
			}
		}
		return false
	case config.CondNot:
		return !evaluate(c.Not, ctx, depth+1)
	default:
		return false
	}
}

func evalApp(ctx Context, check func(AppQuery) bool) bool {
	if ctx.Apps == nil {
		warnUnavailableOnce.Do(func() {
			logging.Get(logging.ACTION).Warn("AppRunning/AppFrontmost conditions configured but no app query backend is wired; treating as false")
		})
		return false
	}
	return check(ctx.Apps)
}

func evalTimeRange(c *config.Condition, ctx Context) bool {
	now := ctx.Now
	if now == nil {
		now = time.Now
	}
	start, ok1 := parseHHMM(c.Start)
	end, ok2 := parseHHMM(c.End)
	if !ok1 || !ok2 {
		return false
	}
	cur := minutesSinceMidnight(now())

	if start <= end {
		return cur >= start && cur < end
	}
	// Overnight range, e.g. 22:00-06:00.
	return cur >= start || cur < end
}

func parseHHMM(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func minutesSinceMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

var dayAbbrev = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func evalDayOfWeek(c *config.Condition, ctx Context) bool {
	now := ctx.Now
	if now == nil {
		now = time.Now
	}
	today := now().Weekday()
	for _, d := range c.Days {
		if len(d) < 3 {
			continue
		}
		if wd, ok := dayAbbrev[strings.ToLower(d[:3])]; ok && wd == today {
			return true
		}
	}
	return false
}
