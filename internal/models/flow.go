package models

import "strings"

type FlowLevel string

const (
	FlowNone        FlowLevel = "none"
	FlowUnspecified FlowLevel = "unspecified"
	FlowSpotting    FlowLevel = "spotting"
	FlowLight       FlowLevel = "light"
	FlowMedium      FlowLevel = "medium"
	FlowHeavy       FlowLevel = "heavy"
)

// ParseFlowLevel never fails: values the provider invents map to unspecified.
func ParseFlowLevel(raw string) FlowLevel {
	switch FlowLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case FlowNone:
		return FlowNone
	case FlowSpotting:
		return FlowSpotting
	case FlowLight:
		return FlowLight
	case FlowMedium:
		return FlowMedium
	case FlowHeavy:
		return FlowHeavy
	default:
		return FlowUnspecified
	}
}

// Rank orders flow levels: none < spotting = unspecified < light < medium < heavy.
func (level FlowLevel) Rank() int {
	switch level {
	case FlowNone:
		return 0
	case FlowSpotting, FlowUnspecified:
		return 1
	case FlowLight:
		return 2
	case FlowMedium:
		return 3
	case FlowHeavy:
		return 4
	default:
		return 1
	}
}

// IsMenstruation reports whether the level counts as an actual period day.
func (level FlowLevel) IsMenstruation() bool {
	return level != FlowNone && level != FlowUnspecified
}

var flowLevelCodes = []FlowLevel{FlowNone, FlowUnspecified, FlowSpotting, FlowLight, FlowMedium, FlowHeavy}

// Code is a stable numeric encoding used when a flow level is stored as a number.
func (level FlowLevel) Code() int {
	for code, candidate := range flowLevelCodes {
		if candidate == level {
			return code
		}
	}
	return 1
}

func FlowLevelFromCode(code int) FlowLevel {
	if code < 0 || code >= len(flowLevelCodes) {
		return FlowUnspecified
	}
	return flowLevelCodes[code]
}
