package model

import "strings"

// DocType is a documentation type label.
//
// Design decision: DocType is a string type rather than an iota enum
// because labels come from external classifiers and unknown labels must
// survive a round trip into the exported taxonomy unchanged. Stage gives
// the numeric ordering used for sorting.
type DocType string

// Known document types, in learning order.
const (
	DocTypeConcept        DocType = "concept"
	DocTypeGettingStarted DocType = "getting-started"
	DocTypeTutorial       DocType = "tutorial"
	DocTypeHowTo          DocType = "how-to"
	DocTypeGuide          DocType = "guide"
	DocTypeReference      DocType = "reference"
	DocTypeAPIReference   DocType = "api-reference"
	DocTypeUnknown        DocType = "unknown"
)

// docTypeStages maps document types to their position in a learning path.
// Concepts come first, API references last.
var docTypeStages = map[DocType]int{
	DocTypeConcept:        1,
	DocTypeGettingStarted: 2,
	DocTypeTutorial:       3,
	DocTypeHowTo:          4,
	DocTypeGuide:          5,
	DocTypeReference:      6,
	DocTypeAPIReference:   7,
	DocTypeUnknown:        8,
}

// Stage returns the learning-order stage of the document type.
// Unknown or unrecognized types return 8.
func (d DocType) Stage() int {
	if stage, ok := docTypeStages[DocType(strings.ToLower(strings.TrimSpace(string(d))))]; ok {
		return stage
	}
	return docTypeStages[DocTypeUnknown]
}

// String returns the label.
func (d DocType) String() string {
	return string(d)
}

// Difficulty represents the audience level of a page or module.
// The zero value is not a valid difficulty; use ParseDifficulty.
type Difficulty int

const (
	// DifficultyBeginner is for readers new to the product.
	DifficultyBeginner Difficulty = iota + 1

	// DifficultyIntermediate is the default when the level is unknown.
	DifficultyIntermediate

	// DifficultyAdvanced is for experienced readers.
	DifficultyAdvanced
)

// String returns the lowercase label used in exported documents.
func (d Difficulty) String() string {
	switch d {
	case DifficultyBeginner:
		return "beginner"
	case DifficultyIntermediate:
		return "intermediate"
	case DifficultyAdvanced:
		return "advanced"
	default:
		return "intermediate"
	}
}

// Stage returns the sort position of the difficulty (1 to 3).
func (d Difficulty) Stage() int {
	if d < DifficultyBeginner || d > DifficultyAdvanced {
		return int(DifficultyIntermediate)
	}
	return int(d)
}

// HoursPerModule returns the estimated study time for one module of this
// difficulty: half an hour for beginner, one hour for intermediate and
// two hours for advanced.
func (d Difficulty) HoursPerModule() float64 {
	switch d {
	case DifficultyBeginner:
		return 0.5
	case DifficultyAdvanced:
		return 2.0
	default:
		return 1.0
	}
}

// ParseDifficulty converts a label to a Difficulty.
// Matching is case-insensitive; unknown labels return DifficultyIntermediate.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return DifficultyBeginner
	case "advanced":
		return DifficultyAdvanced
	default:
		return DifficultyIntermediate
	}
}

// Difficulties returns all difficulties in ascending order.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}
}
