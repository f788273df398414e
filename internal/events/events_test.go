package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEpisodeKeyStableWithinEpisode(t *testing.T) {
	first := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	a := ProjectDelayedPayload{ProjectID: "p1", FirstOverdueDate: &first}

	later := first.Add(6 * time.Hour)
	b := ProjectDelayedPayload{ProjectID: "p1", FirstOverdueDate: &later}

	// Same calendar day, same episode.
	assert.Equal(t, a.EpisodeKey(), b.EpisodeKey())
	assert.Equal(t, "p1:2026-08-01", a.EpisodeKey())
}

func TestEpisodeKeyChangesWhenEarliestOverdueMoves(t *testing.T) {
	d1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	a := ProjectDelayedPayload{ProjectID: "p1", FirstOverdueDate: &d1}
	b := ProjectDelayedPayload{ProjectID: "p1", FirstOverdueDate: &d2}

	assert.NotEqual(t, a.EpisodeKey(), b.EpisodeKey())
}

func TestEpisodeKeyWithoutDateFallsBackToProject(t *testing.T) {
	p := ProjectDelayedPayload{ProjectID: "p1"}
	assert.Equal(t, "p1", p.EpisodeKey())
}
