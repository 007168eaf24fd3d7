package buildpipe

// SettingState describes whether an optional stage's configuration was
// omitted, explicitly turned off, or supplied.
type SettingState int

const (
	// StateAbsent means the option was never configured.
	// Stages interpret absence according to their own rules: most treat
	// it as "use defaults", the sitemap stage treats it as "off".
	StateAbsent SettingState = iota

	// StateDisabled means the option was explicitly turned off.
	StateDisabled

	// StateEnabled means a configuration value was supplied,
	// possibly an empty one.
	StateEnabled
)

// String returns the string representation of the SettingState
func (s SettingState) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateDisabled:
		return "disabled"
	case StateEnabled:
		return "enabled"
	default:
		return "unknown"
	}
}

// Setting is a tagged variant holding an optional stage's configuration.
// It distinguishes "not configured" from "explicitly turned off" from
// "configured with a value", which plain pointers and zero values cannot
// express without ambiguity.
//
// The zero Setting is Absent.
type Setting[T any] struct {
	// Mode is the enablement state of the option.
	Mode SettingState `yaml:"mode,omitempty"`

	// Value holds the configuration when Mode is StateEnabled.
	Value T `yaml:"value,omitempty"`
}

// Enabled constructs a Setting carrying the given configuration value.
func Enabled[T any](value T) Setting[T] {
	return Setting[T]{Mode: StateEnabled, Value: value}
}

// Disabled constructs a Setting that explicitly turns the stage off.
func Disabled[T any]() Setting[T] {
	return Setting[T]{Mode: StateDisabled}
}

// IsEnabled reports whether the option carries a usable configuration.
func (s Setting[T]) IsEnabled() bool {
	return s.Mode == StateEnabled
}

// IsDisabled reports whether the option was explicitly turned off.
func (s Setting[T]) IsDisabled() bool {
	return s.Mode == StateDisabled
}

// IsAbsent reports whether the option was never configured.
func (s Setting[T]) IsAbsent() bool {
	return s.Mode == StateAbsent
}
