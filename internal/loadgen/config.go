// Package loadgen drives a running scores server with generated sheets and
// checks that the top scorers it reports match what was sent.
package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Sheets       int           // Number of sheets to generate and submit
	RowsPerSheet int           // Data rows per sheet
	Workers      int           // Number of concurrent submitters
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Delay between job status polls
	WaitTimeout  time.Duration // How long to wait for imports to finish
	Seed         uint64        // Seed for the row generator
}

// Defaults fills zero fields with usable values.
func (c *Config) Defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:9080"
	}
	if c.Sheets <= 0 {
		c.Sheets = 100
	}
	if c.RowsPerSheet <= 0 {
		c.RowsPerSheet = 100
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 2 * time.Minute
	}
}

// Stats holds run statistics.
type Stats struct {
	SheetsGenerated int
	RowsGenerated   int
	Accepted        int
	Duplicate       int
	Failed          int
	Imported        int
	ImportFailed    int
	TopScore        int
	TopScorers      int
	Duration        time.Duration
}
