package sync

import (
	"sort"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
)

// Conflict policies are pure functions; the pull engine decides what to do
// with the winner. All of them are deterministic and biased toward local
// state on exact ties, since local state was produced on this device.

// ResolveBook picks the winning record between a local and a remote book with
// the same id. A strictly later lastRead wins; on a timestamp tie the higher
// progress wins; on a tie of both, local wins for stability.
func ResolveBook(local, remote *models.Book) *models.Book {
	if remote.LastRead != local.LastRead {
		if remote.LastRead > local.LastRead {
			return remote
		}
		return local
	}
	if remote.Progress > local.Progress {
		return remote
	}
	return local
}

// ResolveSession picks the winner between two session records with the same
// id. Sessions are immutable, so this only matters for clock skew between
// devices: local wins on tie-or-greater.
func ResolveSession(local, remote *models.Session) *models.Session {
	if local.Timestamp >= remote.Timestamp {
		return local
	}
	return remote
}

// MergeProgress merges the remote progress record into the local one field
// group by field group:
//   - numeric counters take the max of both sides
//   - the unlocked achievement set is the union
//   - lastReadDate comes from whichever side is chronologically later, where
//     a strictly greater totalWordsRead also counts as evidence that local is
//     newer even when the date string is not; ties go to local
//   - every other preference field prefers local when set, else remote
//
// The result is a new record; neither input is mutated.
func MergeProgress(local, remote *models.UserProgress) *models.UserProgress {
	merged := *local
	merged.ID = models.UserProgressID

	merged.CurrentStreak = maxInt(local.CurrentStreak, remote.CurrentStreak)
	merged.LongestStreak = maxInt(local.LongestStreak, remote.LongestStreak)
	merged.PeakWPM = maxInt(local.PeakWPM, remote.PeakWPM)
	merged.DailyGoalMetCount = maxInt(local.DailyGoalMetCount, remote.DailyGoalMetCount)
	if remote.TotalWordsRead > local.TotalWordsRead {
		merged.TotalWordsRead = remote.TotalWordsRead
	}

	merged.UnlockedAchievements = unionAchievements(local.UnlockedAchievements, remote.UnlockedAchievements)

	// Dates are YYYY-MM-DD strings, so lexicographic order is chronological
	// order.
	merged.LastReadDate = local.LastReadDate
	localIsNewer := local.TotalWordsRead > remote.TotalWordsRead
	if !localIsNewer && remote.LastReadDate > local.LastReadDate {
		merged.LastReadDate = remote.LastReadDate
	}

	if merged.DefaultWPM == 0 {
		merged.DefaultWPM = remote.DefaultWPM
	}
	if merged.ChunkSize == 0 {
		merged.ChunkSize = remote.ChunkSize
	}
	if merged.FontSize == 0 {
		merged.FontSize = remote.FontSize
	}
	if merged.Theme == "" {
		merged.Theme = remote.Theme
	}
	if merged.DailyGoalWords == 0 {
		merged.DailyGoalWords = remote.DailyGoalWords
	}
	if merged.ShowProgressBar == nil {
		merged.ShowProgressBar = remote.ShowProgressBar
	}
	if merged.PauseOnPunctuation == nil {
		merged.PauseOnPunctuation = remote.PauseOnPunctuation
	}

	return models.SanitizeProgress(&merged)
}

func unionAchievements(local, remote []string) []string {
	seen := map[string]bool{}
	union := []string{}
	for _, set := range [][]string{local, remote} {
		for _, id := range set {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			union = append(union, id)
		}
	}
	sort.Strings(union)
	return union
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
