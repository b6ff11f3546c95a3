package domain

// DryingParameters is one row of the drying table
type DryingParameters struct {
	Temperature string `json:"temperature" yaml:"temperature"` // e.g. "50°C"
	Duration    string `json:"duration" yaml:"duration"`       // e.g. "8h"
}

// DryingEntry binds a filament type key to its parameters
type DryingEntry struct {
	FilamentType string `json:"filamentType" yaml:"filament_type"`
	DryingParameters `yaml:",inline"`
}

// WarningType classifies a handling advisory
type WarningType string

const (
	WarningPAMoisture    WarningType = "PA_MOISTURE"
	WarningPCBrittleness WarningType = "PC_BRITTLENESS"
)

// FilamentWarning is an advisory printed on the label
type FilamentWarning struct {
	Type      WarningType `json:"type"`
	ShortText string      `json:"shortText"`
	FullText  string      `json:"fullText"`
}
