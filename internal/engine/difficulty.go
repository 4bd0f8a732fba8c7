package engine

import "strings"

// Difficulty selects the opponent strength. Easy plays without searching,
// medium and hard run the alpha-beta search at increasing depth.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Depth is the search depth in plies for this difficulty.
func (d Difficulty) Depth() int {
	switch d {
	case Hard:
		return 3
	case Medium:
		return 2
	default:
		return 1
	}
}

func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// ParseDifficulty normalizes a user-supplied label, falling back to medium
// for anything unrecognized.
func ParseDifficulty(s string) Difficulty {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if d.Valid() {
		return d
	}
	return Medium
}
