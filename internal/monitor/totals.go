package monitor

// Totals counts test (or run) outcomes per status bucket.
type Totals struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Passed   int `json:"passed"`
	Failures int `json:"failures"`
}

// Add counts one status. Unknown statuses are ignored.
func (t *Totals) Add(status string) {
	switch status {
	case StatusError, "runtime error":
		t.Errors++
	case StatusWarn:
		t.Warnings++
	case StatusFail:
		t.Failures++
	case StatusPass:
		t.Passed++
	}
}

// Total returns the sum of all buckets.
func (t Totals) Total() int {
	return t.Errors + t.Warnings + t.Passed + t.Failures
}

// TestResultsTotals counts the latest status of every test, grouped by model.
func TestResultsTotals(tests []TestMetadata) map[string]Totals {
	totals := make(map[string]Totals)
	for _, test := range tests {
		key := test.GroupKey()
		t := totals[key]
		t.Add(test.LatestRunStatus)
		totals[key] = t
	}
	return totals
}

// TestRunsTotals counts every historic invocation status, grouped by model.
// invocations is keyed by test unique id; a test without history contributes
// its latest status.
func TestRunsTotals(tests []TestMetadata, invocations map[string][]TestInvocation) map[string]Totals {
	totals := make(map[string]Totals)
	for _, test := range tests {
		key := test.GroupKey()
		t := totals[key]
		history, ok := invocations[test.TestUniqueID]
		if !ok || len(history) == 0 {
			t.Add(test.LatestRunStatus)
		}
		for _, inv := range history {
			t.Add(inv.Status)
		}
		totals[key] = t
	}
	return totals
}

// FlattenResultsMetadata collects the metadata of every fetched test result.
func FlattenResultsMetadata(results map[string][]TestResult) []TestMetadata {
	var out []TestMetadata
	for _, group := range results {
		for _, r := range group {
			out = append(out, r.Metadata)
		}
	}
	return out
}

// FlattenRunsMetadata collects the metadata of every fetched test run.
func FlattenRunsMetadata(runs map[string][]TestRun) []TestMetadata {
	var out []TestMetadata
	for _, group := range runs {
		for _, r := range group {
			out = append(out, r.Metadata)
		}
	}
	return out
}
