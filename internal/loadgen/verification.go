package loadgen

import (
	"errors"
	"fmt"

	"github.com/okian/scores/internal/domain/model"
	"github.com/okian/scores/internal/domain/ranking"
	"github.com/okian/scores/internal/domain/types"
)

// ErrMismatch marks a top list that disagrees with the submitted rows.
var ErrMismatch = errors.New("top scorers mismatch")

// verifyTop checks the server's top list against the rows that were sent.
// The server may hold earlier data, so its top value may exceed ours; when it
// equals ours, every one of our top scorers must be listed.
func verifyTop(sent []model.Score, got []types.Score) error {
	best, want := ranking.Top(sent)
	if len(want) == 0 {
		return nil
	}
	if len(got) == 0 {
		return fmt.Errorf("%w: server reported no top scorers", ErrMismatch)
	}

	value := got[0].ScoreValue
	for i, s := range got {
		if s.ScoreValue != value {
			return fmt.Errorf("%w: entry %d has score %d, expected %d", ErrMismatch, i, s.ScoreValue, value)
		}
		if i > 0 && !nameOrdered(got[i-1], s) {
			return fmt.Errorf("%w: entries %d and %d are not in name order", ErrMismatch, i-1, i)
		}
	}

	switch {
	case value < best:
		return fmt.Errorf("%w: server top score %d is below submitted %d", ErrMismatch, value, best)
	case value > best:
		return nil
	}

	listed := make(map[string]struct{}, len(got))
	for _, s := range got {
		listed[topKey(s)] = struct{}{}
	}
	for _, s := range want {
		if _, ok := listed[topKey(types.FromModel(s))]; !ok {
			return fmt.Errorf("%w: %s %s with %d is missing", ErrMismatch, s.FirstName, s.SecondName, best)
		}
	}
	return nil
}

func nameOrdered(a, b types.Score) bool {
	if a.FirstName != b.FirstName {
		return a.FirstName < b.FirstName
	}
	return a.SecondName <= b.SecondName
}
