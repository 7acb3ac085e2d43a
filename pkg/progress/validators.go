package progress

type UpdateProgressPayload struct {
	CurrentStreak      *int     `json:"currentStreak,omitempty" validate:"omitempty,min=0"`
	LongestStreak      *int     `json:"longestStreak,omitempty" validate:"omitempty,min=0"`
	TotalWordsRead     *int64   `json:"totalWordsRead,omitempty" validate:"omitempty,min=0"`
	PeakWPM            *int     `json:"peakWpm,omitempty" validate:"omitempty,min=0"`
	DailyGoalMetCount  *int     `json:"dailyGoalMetCount,omitempty" validate:"omitempty,min=0"`
	UnlockAchievements []string `json:"unlockAchievements,omitempty" validate:"omitempty,dive,max=100"`
	LastReadDate       *string  `json:"lastReadDate,omitempty" validate:"omitempty,date"`

	DefaultWPM         *int    `json:"defaultWpm,omitempty" validate:"omitempty,min=60,max=2000"`
	ChunkSize          *int    `json:"chunkSize,omitempty" validate:"omitempty,min=1,max=10"`
	FontSize           *int    `json:"fontSize,omitempty" validate:"omitempty,min=12,max=96"`
	Theme              *string `json:"theme,omitempty" validate:"omitempty,oneof=light dark system"`
	DailyGoalWords     *int    `json:"dailyGoalWords,omitempty" validate:"omitempty,min=1"`
	ShowProgressBar    *bool   `json:"showProgressBar,omitempty"`
	PauseOnPunctuation *bool   `json:"pauseOnPunctuation,omitempty"`
}
