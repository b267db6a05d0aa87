package service

import (
	"sort"

	"nursescript/internal/models"
)

// ComputeLeaderboard rebuilds the full leaderboard from the progress map.
// Ordering is progress, then WPM, then accuracy, all descending; ranks are
// dense and 1-based. The board is always recomputed whole, never patched,
// so a stale entry can never survive an update.
func ComputeLeaderboard(progress map[string]models.StudentProgress) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(progress))
	for _, p := range progress {
		entries = append(entries, models.LeaderboardEntry{
			StudentID:   p.StudentID,
			StudentName: p.StudentName,
			WPM:         p.WPM,
			Accuracy:    p.Accuracy,
			Progress:    p.Progress,
			Status:      p.Status,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Progress != entries[j].Progress {
			return entries[i].Progress > entries[j].Progress
		}
		if entries[i].WPM != entries[j].WPM {
			return entries[i].WPM > entries[j].WPM
		}
		return entries[i].Accuracy > entries[j].Accuracy
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}
