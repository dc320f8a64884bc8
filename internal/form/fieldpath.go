package form

import (
	"fmt"
	"strconv"
	"strings"
)

// MainImagePath addresses the recipe's main photo field.
const MainImagePath = "main_image"

const (
	instructionPathPrefix = "instructions."
	instructionPathSuffix = ".image-url"
)

// InstructionImagePath builds the field path addressing the optional image
// of the instruction step at index i, e.g. "instructions.2.image-url".
func InstructionImagePath(i int) string {
	return fmt.Sprintf("%s%d%s", instructionPathPrefix, i, instructionPathSuffix)
}

// ParseInstructionImagePath extracts the step index from an instruction
// image path. The second return value is false when the path does not match
// the "instructions.<index>.image-url" grammar.
func ParseInstructionImagePath(fieldPath string) (int, bool) {
	rest, ok := strings.CutPrefix(fieldPath, instructionPathPrefix)
	if !ok {
		return 0, false
	}
	num, ok := strings.CutSuffix(rest, instructionPathSuffix)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(num)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
