package repository

import (
	"context"
	"testing"
	"time"

	"visitor-track-go/internal/core/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *SQLiteEventRepository {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(&models.VisitorEvent{}))

	return NewSQLiteEventRepository(database)
}

func recordEvent(t *testing.T, repo *SQLiteEventRepository, faceID int, kind string, ts time.Time) {
	t.Helper()
	require.NoError(t, repo.RecordEvent(context.Background(), &models.VisitorEvent{
		FaceID:    faceID,
		Timestamp: ts,
		Event:     kind,
		Source:    "test",
	}))
}

func TestRecordAndGetEvents(t *testing.T) {
	repo := newTestRepository(t)

	base := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	recordEvent(t, repo, 1, models.EventEntry, base)
	recordEvent(t, repo, 2, models.EventEntry, base.Add(time.Minute))
	recordEvent(t, repo, 1, models.EventExit, base.Add(2*time.Minute))

	events, total, err := repo.GetEvents(10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, events, 3)

	// Absteigend nach Zeitstempel
	assert.Equal(t, models.EventExit, events[0].Event)
	assert.Equal(t, 1, events[0].FaceID)

	// Pagination
	events, total, err = repo.GetEvents(1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].FaceID)
}

func TestGetEventsByFaceID(t *testing.T) {
	repo := newTestRepository(t)

	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	recordEvent(t, repo, 7, models.EventEntry, base)
	recordEvent(t, repo, 8, models.EventEntry, base.Add(time.Minute))
	recordEvent(t, repo, 7, models.EventExit, base.Add(5*time.Minute))

	events, err := repo.GetEventsByFaceID(7)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventEntry, events[0].Event)
	assert.Equal(t, models.EventExit, events[1].Event)
}

func TestGetStatistics(t *testing.T) {
	repo := newTestRepository(t)

	stats, err := repo.GetStatistics()
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.TotalEvents)
	assert.Equal(t, -1, stats.BusiestHour)

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	recordEvent(t, repo, 1, models.EventEntry, base)
	recordEvent(t, repo, 2, models.EventEntry, base.Add(10*time.Minute))
	recordEvent(t, repo, 1, models.EventExit, base.Add(30*time.Minute))
	recordEvent(t, repo, 3, models.EventEntry, base.Add(4*time.Hour))

	stats, err = repo.GetStatistics()
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.TotalEvents)
	assert.EqualValues(t, 3, stats.EntryCount)
	assert.EqualValues(t, 1, stats.ExitCount)
	assert.EqualValues(t, 3, stats.UniqueVisitors)
	// Besucher 1 ist wieder gegangen, 2 und 3 sind noch da
	assert.EqualValues(t, 2, stats.CurrentlyActive)
	assert.Equal(t, 10, stats.BusiestHour)
	assert.Len(t, stats.RecentEvents, 4)
	assert.True(t, stats.LatestEvent.Equal(base.Add(4*time.Hour)))
}

func TestDeleteEventsBefore(t *testing.T) {
	repo := newTestRepository(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	recordEvent(t, repo, 1, models.EventEntry, base)
	recordEvent(t, repo, 2, models.EventEntry, base.AddDate(0, 0, 20))

	old, err := repo.FindEventsBefore(base.AddDate(0, 0, 10))
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, 1, old[0].FaceID)

	deleted, err := repo.DeleteEventsBefore(base.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, total, err := repo.GetEvents(10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
