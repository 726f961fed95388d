package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_OrdersByPointsThenName(t *testing.T) {
	entries := Rank([]Candidate{
		{StudentID: "s3", Name: "Sam Lee", Points: 120},
		{StudentID: "s1", Name: "Alex Johnson", Points: 40},
		{StudentID: "s4", Name: "Priya Patel", Points: 250},
		{StudentID: "s2", Name: "maria garcia", Points: 120},
	})

	require.Len(t, entries, 4)
	ids := []string{entries[0].StudentID, entries[1].StudentID, entries[2].StudentID, entries[3].StudentID}
	assert.Equal(t, []string{"s4", "s2", "s3", "s1"}, ids)

	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
	assert.Equal(t, 6, entries[0].Level)
	assert.Equal(t, "Novice VI", entries[0].LevelName)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}

func TestTopFindNeighbors(t *testing.T) {
	var cands []Candidate
	for i, name := range []string{"a", "b", "c", "d", "e"} {
		cands = append(cands, Candidate{StudentID: name, Name: name, Points: 100 - i})
	}
	entries := Rank(cands)

	assert.Len(t, Top(entries, 2), 2)
	assert.Len(t, Top(entries, 0), 5)

	e, ok := Find(entries, "c")
	require.True(t, ok)
	assert.Equal(t, 3, e.Rank)

	n := Neighbors(entries, "a", 1)
	assert.Len(t, n, 2)
	assert.Nil(t, Neighbors(entries, "zz", 1))
}

func TestSnapshotPage(t *testing.T) {
	snap := NewSnapshot([]Candidate{
		{StudentID: "a", Points: 3}, {StudentID: "b", Points: 2}, {StudentID: "c", Points: 1},
	}, time.Now())

	assert.Len(t, snap.Page(1, 2), 2)
	assert.Len(t, snap.Page(2, 2), 1)
	assert.Empty(t, snap.Page(3, 2))
	assert.True(t, (*Snapshot)(nil).IsEmpty())
}
