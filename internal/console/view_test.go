package console

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ca-srg/footprint/internal/results"
	"github.com/ca-srg/footprint/internal/types"
)

func TestProject(t *testing.T) {
	populated := results.NormalizedResults{Categories: []results.Category{
		{Label: "Empty"},
		{Label: "News", Items: []types.ResultItem{{URL: "u"}}},
	}}

	tests := []struct {
		name string
		snap Snapshot
		want View
	}{
		{name: "initial", snap: Snapshot{}, want: ViewQueryForm},
		{name: "entering", snap: Snapshot{Phase: PhaseEnteringQuery}, want: ViewQueryForm},
		{name: "loading", snap: Snapshot{Phase: PhaseLoading}, want: ViewLoading},
		{name: "resolved with items", snap: Snapshot{Phase: PhaseResolved, Results: populated}, want: ViewResults},
		{name: "resolved empty", snap: Snapshot{Phase: PhaseResolved, Results: results.Empty()}, want: ViewEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Project(tt.snap))
		})
	}
}

func TestViewActions(t *testing.T) {
	assert.True(t, ViewQueryForm.AcceptsSubmit())
	assert.False(t, ViewLoading.AcceptsSubmit())
	assert.False(t, ViewResults.AcceptsSubmit())
	assert.False(t, ViewLoading.AcceptsReset())
	assert.True(t, ViewResults.AcceptsReset())
	assert.True(t, ViewEmpty.AcceptsReset())
}

func TestOutcomeKind(t *testing.T) {
	assert.Equal(t, OutcomeFailure, Outcome{Err: assert.AnError}.Kind())
	assert.Equal(t, OutcomeEmpty, Outcome{Results: results.Empty()}.Kind())
	assert.Equal(t, OutcomeResults, Outcome{Results: results.NormalizedResults{
		Categories: []results.Category{{Label: "A", Items: []types.ResultItem{{URL: "u"}}}},
	}}.Kind())
}

func TestHeading(t *testing.T) {
	assert.Equal(t, "SOCIAL PROFILES (2)", Heading(results.Category{
		Label: "Social Profiles",
		Items: []types.ResultItem{{URL: "a"}, {URL: "b"}},
	}))
	assert.Equal(t, "NEWS (0)", Heading(results.Category{Label: "news"}))
}

func TestHeadingConcurrent(t *testing.T) {
	labels := []string{"Social Profiles", "über mentions", "documents", "ÉCOLE news"}
	want := []string{"SOCIAL PROFILES (0)", "ÜBER MENTIONS (0)", "DOCUMENTS (0)", "ÉCOLE NEWS (0)"}

	var wg sync.WaitGroup
	errs := make(chan string, 16*len(labels))
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, label := range labels {
				if got := Heading(results.Category{Label: label}); got != want[i] {
					errs <- fmt.Sprintf("Heading(%q) = %q, want %q", label, got, want[i])
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}
