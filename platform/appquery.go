package platform

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/jdginn/padengine/logging"
)

// AppQuery implements condition.AppQuery. Running walks the live process
// table with gopsutil/v3 (github.com/shirou/gopsutil/v3, wired here per the
// dependency this repo shares with viamrobotics-rdk's go.mod). Frontmost has
// no cross-platform equivalent anywhere in the corpus — querying which
// window currently has focus is a windowing-system concern gopsutil's
// process table can't answer — so it always reports false, matching
// spec.md §6's framing of frontmost queries as an externally-supplied
// platform abstraction this module doesn't invent one for.
type AppQuery struct{}

func NewAppQuery() *AppQuery { return &AppQuery{} }

// Running reports whether any running process's name matches name,
// case-insensitively, substring-style — the same loose match device.MatchHint
// uses for device hints, generalized to process names.
func (AppQuery) Running(name string) bool {
	procs, err := process.Processes()
	if err != nil {
		logging.Get(logging.PLATFORM).Warn("app-running query failed", "err", err)
		return false
	}
	want := strings.ToLower(name)
	for _, p := range procs {
		pname, err := p.Name()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(pname), want) {
			return true
		}
	}
	return false
}

func (AppQuery) Frontmost(name string) bool {
	logging.Get(logging.PLATFORM).Warn("frontmost-app query not wired on this platform, reporting false", "app", name)
	return false
}
