package model

import "time"

// CheckRun is a single CI check run on a PR's head commit.
type CheckRun struct {
	Name        string
	Status      string // QUEUED, IN_PROGRESS, COMPLETED, WAITING, PENDING, REQUESTED
	Conclusion  string // SUCCESS, FAILURE, NEUTRAL, CANCELLED, TIMED_OUT, ACTION_REQUIRED, SKIPPED, STALE; "" while running
	DetailsURL  string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// CheckSuite groups the check runs one CI app reported. Suites without runs
// are filtered out upstream.
type CheckSuite struct {
	AppName    string
	AppLogoURL string
	Status     string
	Conclusion string
	Runs       []CheckRun
}

// PRChecks is the live CI picture of a pull request's head commit, fetched on
// demand rather than persisted. The counters bucket every run: passed covers
// SUCCESS, NEUTRAL, and SKIPPED conclusions, failed covers FAILURE,
// TIMED_OUT, and CANCELLED, and everything else counts as pending.
type PRChecks struct {
	OverallStatus string // rollup state, "" when no checks are configured
	Suites        []CheckSuite
	Total         int
	Passed        int
	Failed        int
	Pending       int
}
