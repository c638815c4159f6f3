package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
)

func sampleItems() []model.Item {
	return []model.Item{
		{ID: 1, Title: "A", Completed: false},
		{ID: 2, Title: "B", Completed: true},
		{ID: 3, Title: "C", Completed: false},
		{ID: 4, Title: "D", Completed: true},
	}
}

func ids(items []model.Item) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	items := sampleItems()

	assert.Equal(t, []int{1, 2, 3, 4}, ids(Apply(items, All)))
	assert.Equal(t, []int{1, 3}, ids(Apply(items, Active)))
	assert.Equal(t, []int{2, 4}, ids(Apply(items, Completed)))
}

func TestApply_ActiveAndCompletedPartitionAll(t *testing.T) {
	items := sampleItems()
	active := Apply(items, Active)
	done := Apply(items, Completed)

	seen := map[int]bool{}
	for _, it := range active {
		seen[it.ID] = true
	}
	for _, it := range done {
		assert.False(t, seen[it.ID], "item %d is both active and completed", it.ID)
	}

	// Merging back in original order reproduces All.
	var merged []int
	for _, it := range items {
		if Match(it, Active) || Match(it, Completed) {
			merged = append(merged, it.ID)
		}
	}
	assert.Equal(t, ids(Apply(items, All)), merged)
	assert.Len(t, active, len(items)-len(done))
}

func TestApply_DoesNotAliasInput(t *testing.T) {
	items := sampleItems()
	out := Apply(items, All)
	out[0].Title = "changed"
	assert.Equal(t, "A", items[0].Title)
}

func TestCounts(t *testing.T) {
	items := sampleItems()
	assert.Equal(t, 2, ActiveCount(items))
	assert.Equal(t, 2, CompletedCount(items))
	assert.False(t, AllCompleted(items))
	assert.True(t, AllCompleted(nil))
	assert.Equal(t, "2 items left", ItemsLeft(items))
	assert.Equal(t, "1 item left", ItemsLeft(items[:2]))
	assert.Equal(t, "0 items left", ItemsLeft(nil))
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"", All},
		{"all", All},
		{"ACTIVE", Active},
		{" completed ", Completed},
		{"done", Completed},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseStatus("pending")
	assert.Error(t, err)
}

func TestNextCycles(t *testing.T) {
	assert.Equal(t, Active, All.Next())
	assert.Equal(t, Completed, Active.Next())
	assert.Equal(t, All, Completed.Next())
	assert.Equal(t, All, Status("bogus").Next())
}
