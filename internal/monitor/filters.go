package monitor

import "sort"

// FilterFacet is one selectable filter in the report UI.
type FilterFacet struct {
	Name           string   `json:"name"`
	DisplayName    string   `json:"display_name"`
	ModelUniqueIDs []string `json:"model_unique_ids"`
}

// Filters lists the facets per report view.
type Filters struct {
	TestResults []FilterFacet `json:"test_results"`
	TestRuns    []FilterFacet `json:"test_runs"`
	ModelRuns   []FilterFacet `json:"model_runs"`
}

// EmptyFilters returns filters with non-nil, empty facet lists.
func EmptyFilters() Filters {
	return Filters{TestResults: []FilterFacet{}, TestRuns: []FilterFacet{}, ModelRuns: []FilterFacet{}}
}

// BuildFilters derives facets from totals and run history. Models and sources
// without any totals are listed under "no_test".
func BuildFilters(resultsTotals, runsTotals map[string]Totals, models []Model, sources []Source, modelRuns []ModelRuns) Filters {
	var artifactIDs []string
	for _, m := range models {
		artifactIDs = append(artifactIDs, m.UniqueID)
	}
	for _, s := range sources {
		artifactIDs = append(artifactIDs, s.UniqueID)
	}

	return Filters{
		TestResults: totalsFacets(resultsTotals, artifactIDs),
		TestRuns:    totalsFacets(runsTotals, artifactIDs),
		ModelRuns:   modelRunFacets(modelRuns),
	}
}

func totalsFacets(totals map[string]Totals, artifactIDs []string) []FilterFacet {
	passed := newFacet("passed", "Passed")
	failures := newFacet("failures", "Failures")
	warnings := newFacet("warnings", "Warnings")
	errors := newFacet("errors", "Errors")
	noTest := newFacet("no_test", "No Tests")

	for _, id := range sortedKeys(totals) {
		t := totals[id]
		if t.Failures > 0 {
			failures.ModelUniqueIDs = append(failures.ModelUniqueIDs, id)
		}
		if t.Warnings > 0 {
			warnings.ModelUniqueIDs = append(warnings.ModelUniqueIDs, id)
		}
		if t.Errors > 0 {
			errors.ModelUniqueIDs = append(errors.ModelUniqueIDs, id)
		}
		if t.Passed > 0 && t.Failures == 0 && t.Warnings == 0 && t.Errors == 0 {
			passed.ModelUniqueIDs = append(passed.ModelUniqueIDs, id)
		}
	}

	for _, id := range artifactIDs {
		if _, ok := totals[id]; !ok {
			noTest.ModelUniqueIDs = append(noTest.ModelUniqueIDs, id)
		}
	}
	sort.Strings(noTest.ModelUniqueIDs)

	return []FilterFacet{passed, failures, warnings, errors, noTest}
}

func modelRunFacets(modelRuns []ModelRuns) []FilterFacet {
	success := newFacet("success", "Successful Runs")
	errors := newFacet("errors", "Failed Runs")

	for _, runs := range modelRuns {
		if runs.Totals.Errors > 0 {
			errors.ModelUniqueIDs = append(errors.ModelUniqueIDs, runs.UniqueID)
		} else if runs.Totals.Success > 0 {
			success.ModelUniqueIDs = append(success.ModelUniqueIDs, runs.UniqueID)
		}
	}
	sort.Strings(success.ModelUniqueIDs)
	sort.Strings(errors.ModelUniqueIDs)

	return []FilterFacet{success, errors}
}

func newFacet(name, display string) FilterFacet {
	return FilterFacet{Name: name, DisplayName: display, ModelUniqueIDs: []string{}}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
