package progress

import (
	"context"
	"database/sql"
	"time"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// RetrieveProgress loads the singleton progress row, falling back to the
// defaults a fresh install starts with when it hasn't been written yet.
func (s *Service) RetrieveProgress(ctx context.Context) (*models.UserProgress, error) {
	progress := models.DefaultUserProgress()

	err := s.db.NewSelect().Model(progress).WherePK().Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return progress, nil
	} else if err != nil {
		return nil, errors.WithStack(err)
	}

	return progress, nil
}

// SaveProgress sanitizes and upserts the singleton row.
func (s *Service) SaveProgress(ctx context.Context, progress *models.UserProgress) error {
	models.SanitizeProgress(progress)
	progress.UpdatedAt = time.Now()

	_, err := s.db.NewInsert().
		Model(progress).
		On("CONFLICT (id) DO UPDATE").
		Set("updated_at = EXCLUDED.updated_at").
		Set("current_streak = EXCLUDED.current_streak").
		Set("longest_streak = EXCLUDED.longest_streak").
		Set("total_words_read = EXCLUDED.total_words_read").
		Set("peak_wpm = EXCLUDED.peak_wpm").
		Set("daily_goal_met_count = EXCLUDED.daily_goal_met_count").
		Set("unlocked_achievements = EXCLUDED.unlocked_achievements").
		Set("last_read_date = EXCLUDED.last_read_date").
		Set("default_wpm = EXCLUDED.default_wpm").
		Set("chunk_size = EXCLUDED.chunk_size").
		Set("font_size = EXCLUDED.font_size").
		Set("theme = EXCLUDED.theme").
		Set("daily_goal_words = EXCLUDED.daily_goal_words").
		Set("show_progress_bar = EXCLUDED.show_progress_bar").
		Set("pause_on_punctuation = EXCLUDED.pause_on_punctuation").
		Exec(ctx)
	return errors.WithStack(err)
}

// ApplyUpdates merges a partial update onto the current row. Only fields the
// caller supplied change; achievements are added, never removed.
func (s *Service) ApplyUpdates(ctx context.Context, updates *UpdateProgressPayload) (*models.UserProgress, error) {
	progress, err := s.RetrieveProgress(ctx)
	if err != nil {
		return nil, err
	}

	if updates.CurrentStreak != nil {
		progress.CurrentStreak = *updates.CurrentStreak
	}
	if updates.LongestStreak != nil {
		progress.LongestStreak = *updates.LongestStreak
	}
	if updates.TotalWordsRead != nil {
		progress.TotalWordsRead = *updates.TotalWordsRead
	}
	if updates.PeakWPM != nil {
		progress.PeakWPM = *updates.PeakWPM
	}
	if updates.DailyGoalMetCount != nil {
		progress.DailyGoalMetCount = *updates.DailyGoalMetCount
	}
	if updates.LastReadDate != nil {
		progress.LastReadDate = *updates.LastReadDate
	}
	for _, id := range updates.UnlockAchievements {
		if !progress.HasAchievement(id) {
			progress.UnlockedAchievements = append(progress.UnlockedAchievements, id)
		}
	}

	if updates.DefaultWPM != nil {
		progress.DefaultWPM = *updates.DefaultWPM
	}
	if updates.ChunkSize != nil {
		progress.ChunkSize = *updates.ChunkSize
	}
	if updates.FontSize != nil {
		progress.FontSize = *updates.FontSize
	}
	if updates.Theme != nil {
		progress.Theme = *updates.Theme
	}
	if updates.DailyGoalWords != nil {
		progress.DailyGoalWords = *updates.DailyGoalWords
	}
	if updates.ShowProgressBar != nil {
		progress.ShowProgressBar = updates.ShowProgressBar
	}
	if updates.PauseOnPunctuation != nil {
		progress.PauseOnPunctuation = updates.PauseOnPunctuation
	}

	if err := s.SaveProgress(ctx, progress); err != nil {
		return nil, err
	}

	return progress, nil
}
