package pipeline

import (
	"fmt"
	"strings"
)

// Target selects which projects a run generates. The shared contract is
// always generated.
type Target string

const (
	TargetFront Target = "front"
	TargetBack  Target = "back"
	TargetBoth  Target = "both"
)

// Choices are the prompt labels, in prompt order.
var Choices = []string{"front", "back", "front and back"}

// ParseTarget accepts the flag values and the prompt labels.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "front", "frontend":
		return TargetFront, nil
	case "back", "backend":
		return TargetBack, nil
	case "both", "front and back", "":
		return TargetBoth, nil
	}
	return "", fmt.Errorf("unknown target %q (want front, back or both)", s)
}

func (t Target) Frontend() bool { return t == TargetFront || t == TargetBoth }
func (t Target) Backend() bool  { return t == TargetBack || t == TargetBoth }
