package loadgen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/scores/internal/domain/model"
	"github.com/okian/scores/internal/domain/types"
	"github.com/okian/scores/pkg/logger"
)

// Run generates sheets, submits them, waits for every import to settle and
// verifies the server's top scorers.
func Run(ctx context.Context, cfg Config, log logger.Logger) (Stats, error) {
	cfg.Defaults()
	start := time.Now()
	var stats Stats

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sheets", cfg.Sheets),
		logger.Int("rowsPerSheet", cfg.RowsPerSheet),
		logger.Int("workers", cfg.Workers))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	sheets := generateSheets(&cfg)
	stats.SheetsGenerated = len(sheets)
	for _, s := range sheets {
		stats.RowsGenerated += len(s.Scores)
	}

	jobs := submitSheets(ctx, client, &cfg, sheets, &stats, log)

	if err := waitForJobs(ctx, client, &cfg, jobs, &stats); err != nil {
		return stats, err
	}

	top, err := client.Top(ctx)
	if err != nil {
		return stats, fmt.Errorf("top retrieval failed: %w", err)
	}
	if len(top) > 0 {
		stats.TopScore = top[0].ScoreValue
	}
	stats.TopScorers = len(top)

	sent := make([]model.Score, 0, stats.RowsGenerated)
	for _, s := range sheets {
		sent = append(sent, s.Scores...)
	}
	if err := verifyTop(sent, top); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "load run completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Int("imported", stats.Imported),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

// submitSheets posts sheets through a worker pool and returns the job IDs
// that were accepted or matched an earlier job.
func submitSheets(ctx context.Context, client *Client, cfg *Config, sheets []Sheet, stats *Stats, log logger.Logger) []string {
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		ids  = make(map[string]struct{}, len(sheets))
		work = make(chan Sheet, cfg.Workers*2)
	)

	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sheet := range work {
				job, err := client.Submit(ctx, sheet.Name, sheet.Content)

				mu.Lock()
				switch {
				case err != nil:
					stats.Failed++
					log.Warn(ctx, "submit failed", logger.String("sheet", sheet.Name), logger.Error(err))
				case job.Duplicate:
					stats.Duplicate++
					ids[job.ID] = struct{}{}
				default:
					stats.Accepted++
					ids[job.ID] = struct{}{}
				}
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(work)
		for _, sheet := range sheets {
			select {
			case <-ctx.Done():
				return
			case work <- sheet:
			}
		}
	}()
	wg.Wait()

	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}

// waitForJobs polls until every job is done or failed.
func waitForJobs(ctx context.Context, client *Client, cfg *Config, ids []string, stats *Stats) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.WaitTimeout)
	defer cancel()

	pending := ids
	for len(pending) > 0 {
		var next []string
		for _, id := range pending {
			job, err := client.Job(ctx, id)
			if err != nil {
				return fmt.Errorf("job %s: %w", id, err)
			}
			switch job.Status {
			case string(model.ImportDone):
				stats.Imported += job.Imported
			case string(model.ImportFailed):
				stats.ImportFailed++
			default:
				next = append(next, id)
			}
		}
		pending = next
		if len(pending) == 0 {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%d imports still pending: %w", len(pending), ctx.Err())
		case <-time.After(cfg.PollInterval):
		}
	}
	return nil
}

// topKey identifies a scorer in the top list.
func topKey(s types.Score) string { return s.FirstName + "\x00" + s.SecondName }
