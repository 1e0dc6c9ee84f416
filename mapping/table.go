// Package mapping compiles a config.Config into a form the dispatch loop can
// look up in O(1) per event: a hash-indexed table keyed by the triggering
// element, swapped atomically on reload (spec.md §4.3, §4.7).
package mapping

import (
	"github.com/jdginn/padengine/config"
	"github.com/jdginn/padengine/event"
)

// Key identifies one lookup bucket: the kind of processed gesture and the
// element id that produced it. Triggers that share a (kind, id) pair but
// differ on another field (e.g. two CC triggers on the same controller
// number but different channels) land in the same bucket; Matches
// re-checks only velocity range and direction, not channel.
type Key struct {
	Kind event.ProcessedKind
	ID   event.ID
}

// Entry is one compiled mapping, ready to match against a ProcessedEvent
// and run its Action.
type Entry struct {
	Mode        string // "" for a global mapping
	Description string
	Trigger     config.TriggerSpec
	Action      config.Action
}

// Table is the compiled, read-only lookup structure for one mode plus the
// always-active global mappings. It is rebuilt wholesale on every reload;
// never mutated after Compile returns it (spec.md §4.7's zero-downtime
// reload depends on this).
type Table struct {
	byMode  map[string][]bucket
	global  []bucket
	modes   []string // declaration order, for ListModes
	interest *event.Interest
}

type bucket struct {
	key     Key
	entries []Entry
}

// Interest returns the continuous-signal / double-tap interest set derived
// while compiling, for Classifier.SetInterest.
func (t *Table) Interest() *event.Interest { return t.interest }

// Modes lists configured mode names in declaration order.
func (t *Table) Modes() []string { return append([]string(nil), t.modes...) }

// Lookup returns every compiled entry matching pe within mode, global
// mappings last. Per spec.md §4.3, the caller evaluates each in order and
// takes the first whose Trigger selector and Condition both pass. Chord
// entries sit in their own ProcChord buckets, so a chord lookup returns
// only chord entries, narrowed to those whose member set equals pe.Members.
func (t *Table) Lookup(mode string, pe event.ProcessedEvent) []Entry {
	key := Key{Kind: pe.Kind, ID: pe.ID}
	var out []Entry
	if bs, ok := t.byMode[mode]; ok {
		out = append(out, lookupBucket(bs, key)...)
	}
	out = append(out, lookupBucket(t.global, key)...)
	if pe.Kind == event.ProcChord {
		out = filterChordMembers(out, pe.Members)
	}
	return out
}

// filterChordMembers keeps only the entries whose configured member set is
// exactly pe.Members: multiple chords can share a bucket key (the lowest
// member id) when their smallest member coincides.
func filterChordMembers(entries []Entry, members []event.ID) []Entry {
	out := entries[:0]
	for _, e := range entries {
		if len(e.Trigger.Members) != len(members) {
			continue
		}
		want := make(map[event.ID]bool, len(members))
		for _, m := range members {
			want[m] = true
		}
		ok := true
		for _, m := range e.Trigger.Members {
			if !want[event.ID(m)] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, e)
		}
	}
	return out
}

func lookupBucket(bs []bucket, key Key) []Entry {
	for _, b := range bs {
		if b.key == key {
			return b.entries
		}
	}
	return nil
}
