package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserProgressID is the fixed primary key of the singleton progress row.
const UserProgressID = "default"

// UserProgress is the singleton gamification and preferences record. Numeric
// counters only ever grow; preference fields are owned by whichever device
// wrote them last.
type UserProgress struct {
	bun.BaseModel `bun:"table:user_progress,alias:up"`

	ID        string    `bun:",pk" json:"-"`
	UpdatedAt time.Time `json:"-"`

	CurrentStreak        int      `bun:"current_streak" json:"currentStreak"`
	LongestStreak        int      `bun:"longest_streak" json:"longestStreak"`
	TotalWordsRead       int64    `bun:"total_words_read" json:"totalWordsRead"`
	PeakWPM              int      `bun:"peak_wpm" json:"peakWpm"`
	DailyGoalMetCount    int      `bun:"daily_goal_met_count" json:"dailyGoalMetCount"`
	UnlockedAchievements []string `bun:"unlocked_achievements,type:text" json:"unlockedAchievements"`
	LastReadDate         string   `bun:"last_read_date" json:"lastReadDate"`

	// Preference bag. Last writer wins per device; merge prefers local. The
	// boolean toggles are pointers because "never chosen" and "turned off"
	// must merge differently: a device that never touched a toggle adopts
	// the other side's explicit choice, false included.
	DefaultWPM         int    `bun:"default_wpm" json:"defaultWpm"`
	ChunkSize          int    `bun:"chunk_size" json:"chunkSize"`
	FontSize           int    `bun:"font_size" json:"fontSize"`
	Theme              string `bun:"theme" json:"theme"`
	DailyGoalWords     int    `bun:"daily_goal_words" json:"dailyGoalWords"`
	ShowProgressBar    *bool  `bun:"show_progress_bar" json:"showProgressBar"`
	PauseOnPunctuation *bool  `bun:"pause_on_punctuation" json:"pauseOnPunctuation"`
}

// DefaultUserProgress returns the progress row a fresh install starts with.
// The boolean toggles stay unset until the reader picks them.
func DefaultUserProgress() *UserProgress {
	return &UserProgress{
		ID:                   UserProgressID,
		UnlockedAchievements: []string{},
		DefaultWPM:           300,
		ChunkSize:            1,
		FontSize:             32,
		Theme:                "system",
		DailyGoalWords:       2000,
	}
}

// HasAchievement reports whether id is already in the unlocked set.
func (p *UserProgress) HasAchievement(id string) bool {
	for _, a := range p.UnlockedAchievements {
		if a == id {
			return true
		}
	}
	return false
}
