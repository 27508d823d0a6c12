// Package ranking selects and orders scores for the top and all queries.
package ranking

import (
	"sort"

	"github.com/okian/scores/internal/domain/model"
)

// Top returns the highest score value and every score holding it, ordered by
// first name then second name. An empty input yields 0 and nil.
func Top(scores []model.Score) (int, []model.Score) {
	if len(scores) == 0 {
		return 0, nil
	}
	best := scores[0].Value
	for _, s := range scores[1:] {
		if s.Value > best {
			best = s.Value
		}
	}
	var top []model.Score
	for _, s := range scores {
		if s.Value == best {
			top = append(top, s)
		}
	}
	SortByName(top)
	return best, top
}

// SortByName orders scores by (first name, second name), stable on ties.
func SortByName(scores []model.Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].FirstName != scores[j].FirstName {
			return scores[i].FirstName < scores[j].FirstName
		}
		return scores[i].SecondName < scores[j].SecondName
	})
}

// SortByScoreDesc orders scores from highest to lowest, keeping input order
// among equal values.
func SortByScoreDesc(scores []model.Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Value > scores[j].Value
	})
}
