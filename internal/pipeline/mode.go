package pipeline

import "github.com/hoanghai1803/herald/internal/config"

// Mode decides how the selected entries are grouped into delivery units.
type Mode int

const (
	// ModeFixedThread posts everything into an explicitly configured
	// existing thread. No title derivation.
	ModeFixedThread Mode = iota
	// ModeNamedThread posts everything into one thread created with the
	// configured literal name. No AI title derivation.
	ModeNamedThread
	// ModeAuto tries one titled unit for the whole run and falls back to
	// untitled per-entry units when the destination rejects the grouping.
	ModeAuto
	// ModePerItem posts one titled unit per entry.
	ModePerItem
	// ModeSingle posts one unit for the whole run, titled from the first
	// entry.
	ModeSingle
	// ModeOff posts one unit for the whole run with no thread routing at
	// all.
	ModeOff
)

// String returns the mode name for logs.
func (m Mode) String() string {
	switch m {
	case ModeFixedThread:
		return "fixed-thread"
	case ModeNamedThread:
		return "named-thread"
	case ModeAuto:
		return "auto"
	case ModePerItem:
		return "per-item"
	case ModeSingle:
		return "single"
	case ModeOff:
		return "off"
	}
	return "unknown"
}

// NeedsDerivedTitle reports whether the mode requires the title chain.
func (m Mode) NeedsDerivedTitle() bool {
	switch m {
	case ModeAuto, ModePerItem, ModeSingle:
		return true
	}
	return false
}

// ResolveMode evaluates the destination topology once per run, in strict
// precedence order: explicit thread id, then explicit thread name, then
// the configured forum mode. It is pure: resolution depends only on
// configuration, never on entry content.
func ResolveMode(cfg config.DiscordConfig) Mode {
	if cfg.ThreadID != "" {
		return ModeFixedThread
	}
	if cfg.ThreadName != "" {
		return ModeNamedThread
	}
	switch cfg.ForumMode {
	case "per-item":
		return ModePerItem
	case "single":
		return ModeSingle
	case "off":
		return ModeOff
	}
	return ModeAuto
}
