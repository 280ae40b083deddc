package ankiconnect

import (
	"slices"
)

// NoParams is the parameter type of parameterless actions. Requests for these
// actions omit the params key entirely.
type NoParams struct{}

// Action is a catalog entry binding an action name to its parameter type P and
// result type R.
type Action[P, R any] struct {
	name string
}

// Name returns the wire name of the action, e.g. "deckNames".
func (a Action[P, R]) Name() string { return a.name }

func (a Action[P, R]) String() string { return a.name }

// Group is the section of the AnkiConnect API an action belongs to.
type Group string

const (
	GroupCard      Group = "card"
	GroupDeck      Group = "deck"
	GroupGraphical Group = "graphical"
	GroupMedia     Group = "media"
	GroupMisc      Group = "miscellaneous"
	GroupModel     Group = "model"
	GroupNote      Group = "note"
	GroupStatistic Group = "statistic"
)

// Groups lists every group in display order.
func Groups() []Group {
	return []Group{GroupCard, GroupDeck, GroupGraphical, GroupMedia, GroupMisc, GroupModel, GroupNote, GroupStatistic}
}

type actionInfo struct {
	group Group
	bare  bool
}

// catalog is filled once during package initialization by define and is
// read-only afterwards.
var catalog = map[string]actionInfo{}

func define[P, R any](group Group, name string) Action[P, R] {
	if _, dup := catalog[name]; dup {
		panic("ankiconnect: duplicate action " + name)
	}
	var p P
	_, bare := any(p).(NoParams)
	catalog[name] = actionInfo{group: group, bare: bare}
	return Action[P, R]{name: name}
}

// Actions returns every action name in the catalog, sorted.
func Actions() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ActionsIn returns the sorted action names of one group.
func ActionsIn(g Group) []string {
	var names []string
	for name, info := range catalog {
		if info.group == g {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// IsKnown reports whether name is a catalog action.
func IsKnown(name string) bool {
	_, ok := catalog[name]
	return ok
}

// IsParameterless reports whether name is a catalog action that takes no
// params. Unknown names report false.
func IsParameterless(name string) bool {
	return catalog[name].bare
}

// GroupOf returns the group of a catalog action.
func GroupOf(name string) (Group, bool) {
	info, ok := catalog[name]
	return info.group, ok
}
