package models

import (
	"strings"

	"github.com/google/uuid"
)

// Sanitization coerces records from untrusted sources (remote pulls, backup
// imports) into safe shapes: ids are generated when absent, numeric fields
// are clamped, and impossible values fall back to defaults. Sanitizers never
// fail; a record that can't be repaired becomes a harmless empty one.

func clampFloat(v, lo, hi float64) float64 {
	if v < lo || v != v { // NaN guard
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SanitizeBook repairs a book record in place and returns it.
func SanitizeBook(b *Book) *Book {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" {
		b.Title = "Untitled"
	}
	b.Progress = clampFloat(b.Progress, 0, 1)
	if b.TotalWords < 0 {
		b.TotalWords = 0
	}
	if b.CurrentIndex < 0 {
		b.CurrentIndex = 0
	}
	if b.TotalWords > 0 && b.CurrentIndex > b.TotalWords {
		b.CurrentIndex = b.TotalWords
	}
	if b.LastRead < 0 {
		b.LastRead = 0
	}
	if b.WPM == 0 {
		b.WPM = 300
	}
	b.WPM = clampInt(b.WPM, MinWPM, MaxWPM)
	return b
}

// SanitizeSession repairs a session record in place and returns it.
func SanitizeSession(s *Session) *Session {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Timestamp < 0 {
		s.Timestamp = 0
	}
	if s.DurationSeconds < 0 {
		s.DurationSeconds = 0
	}
	if s.WordsRead < 0 {
		s.WordsRead = 0
	}
	if s.AverageWPM < 0 {
		s.AverageWPM = 0
	}
	return s
}

// SanitizeProgress repairs the singleton progress record in place and
// returns it. The fixed primary key is always restored.
func SanitizeProgress(p *UserProgress) *UserProgress {
	p.ID = UserProgressID
	if p.CurrentStreak < 0 {
		p.CurrentStreak = 0
	}
	if p.LongestStreak < p.CurrentStreak {
		p.LongestStreak = p.CurrentStreak
	}
	if p.TotalWordsRead < 0 {
		p.TotalWordsRead = 0
	}
	if p.PeakWPM < 0 {
		p.PeakWPM = 0
	}
	if p.DailyGoalMetCount < 0 {
		p.DailyGoalMetCount = 0
	}
	if p.UnlockedAchievements == nil {
		p.UnlockedAchievements = []string{}
	}
	defaults := DefaultUserProgress()
	if p.DefaultWPM == 0 {
		p.DefaultWPM = defaults.DefaultWPM
	}
	p.DefaultWPM = clampInt(p.DefaultWPM, MinWPM, MaxWPM)
	if p.ChunkSize <= 0 {
		p.ChunkSize = defaults.ChunkSize
	}
	if p.FontSize <= 0 {
		p.FontSize = defaults.FontSize
	}
	if p.Theme == "" {
		p.Theme = defaults.Theme
	}
	if p.DailyGoalWords <= 0 {
		p.DailyGoalWords = defaults.DailyGoalWords
	}
	return p
}
