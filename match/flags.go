package match

import "github.com/poiesic/lorekeep/core"

// FlagSource resolves the extended flags of an entry.
type FlagSource interface {
	Flags(id string) core.ExtendedFlags
}

// FlagMap is a point-in-time FlagSource. Missing IDs resolve to the defaults.
type FlagMap map[string]core.ExtendedFlags

func (m FlagMap) Flags(id string) core.ExtendedFlags {
	if flags, ok := m[id]; ok {
		return flags
	}
	return core.DefaultFlags()
}

func flagsOf(src FlagSource, id string) core.ExtendedFlags {
	if src == nil {
		return core.DefaultFlags()
	}
	return src.Flags(id)
}
