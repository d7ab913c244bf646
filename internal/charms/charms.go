// Package charms holds the level math for the charms currency. A level is
// earned for every thousand charms on the running balance.
package charms

// PerLevel is the charms threshold between consecutive levels.
const PerLevel = 1000

// Progress describes where a balance sits between two levels.
type Progress struct {
	Level     int     `json:"level"`
	XP        int     `json:"xp"`
	Percent   float64 `json:"percent"`
	ToNext    int     `json:"to_next"`
	NextLevel int     `json:"next_level"`
}

// LevelFor derives the level from a charms balance.
func LevelFor(balance int) int {
	if balance < 0 {
		balance = 0
	}
	return balance/PerLevel + 1
}

// ProgressFor computes progress toward the next level. A balance of 2500
// sits at level 3 with 500 XP, halfway to level 4.
func ProgressFor(balance int) Progress {
	if balance < 0 {
		balance = 0
	}
	xp := balance % PerLevel
	return Progress{
		Level:     LevelFor(balance),
		XP:        xp,
		Percent:   float64(xp) / float64(PerLevel) * 100,
		ToNext:    PerLevel - xp,
		NextLevel: LevelFor(balance) + 1,
	}
}
