package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.Task{},
		&models.Comment{},
	))

	db.DB = gdb
}

func createTask(t *testing.T, board models.Board, creator models.User, title, status string, dueDate *time.Time) models.Task {
	t.Helper()

	task := models.Task{
		BoardID:     board.ID,
		Title:       title,
		Status:      status,
		Priority:    types.PriorityMedium,
		DueDate:     dueDate,
		CreatedByID: creator.ID,
	}
	require.NoError(t, db.DB.Create(&task).Error)

	return task
}

func TestSweepReportsOverdueTasksOnce(t *testing.T) {
	setupTestDB(t)

	// No webhooks configured; the sweep only tracks and broadcasts.
	t.Setenv("DISCORD_WEBHOOK", "")
	t.Setenv("SLACK_WEBHOOK", "")

	user := models.User{Fullname: "Owner", Email: "owner@example.com", PasswordHash: "x"}
	require.NoError(t, db.DB.Create(&user).Error)

	board := models.Board{Title: "Board", OwnerID: user.ID}
	require.NoError(t, db.DB.Create(&board).Error)

	yesterday := time.Now().Add(-24 * time.Hour)
	tomorrow := time.Now().Add(24 * time.Hour)

	overdue := createTask(t, board, user, "Overdue", types.StatusToDo, &yesterday)
	createTask(t, board, user, "Done anyway", types.StatusDone, &yesterday)
	createTask(t, board, user, "Still early", types.StatusInProgress, &tomorrow)
	createTask(t, board, user, "No due date", types.StatusToDo, nil)

	s := NewSweeper(time.Minute)
	defer s.Stop()

	s.sweep()

	s.mu.Lock()
	require.Len(t, s.notified, 1, "only the open overdue task is reported")
	assert.True(t, s.notified[overdue.ID])
	s.mu.Unlock()

	// A second sweep must not report the same task again.
	s.sweep()

	s.mu.Lock()
	assert.Len(t, s.notified, 1)
	s.mu.Unlock()
}

func TestSweepPicksUpNewlyOverdueTasks(t *testing.T) {
	setupTestDB(t)

	t.Setenv("DISCORD_WEBHOOK", "")
	t.Setenv("SLACK_WEBHOOK", "")

	user := models.User{Fullname: "Owner", Email: "owner@example.com", PasswordHash: "x"}
	require.NoError(t, db.DB.Create(&user).Error)

	board := models.Board{Title: "Board", OwnerID: user.ID}
	require.NoError(t, db.DB.Create(&board).Error)

	s := NewSweeper(time.Minute)
	defer s.Stop()

	s.sweep()

	s.mu.Lock()
	assert.Empty(t, s.notified)
	s.mu.Unlock()

	yesterday := time.Now().Add(-24 * time.Hour)
	late := createTask(t, board, user, "Now late", types.StatusReview, &yesterday)

	s.sweep()

	s.mu.Lock()
	require.Len(t, s.notified, 1)
	assert.True(t, s.notified[late.ID])
	s.mu.Unlock()
}
