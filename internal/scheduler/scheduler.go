package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/handlers"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/services"
	"github.com/taskboard-dev/taskboard/internal/types"
)

const defaultSweepInterval = 5 * time.Minute

// Sweeper periodically scans for tasks past their due date and still
// open, pushing a refresh to board watchers and pinging the configured
// webhooks.
type Sweeper struct {
	interval time.Duration
	notified map[uint]bool // task IDs already reported
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewSweeper(interval time.Duration) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		interval: interval,
		notified: make(map[uint]bool),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the sweep loop until Stop is called.
func (s *Sweeper) Start() {
	log.Printf("Starting due-date sweeper (every %s)", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.sweep()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	log.Println("Stopping due-date sweeper...")
	s.cancel()
}

func (s *Sweeper) sweep() {
	var tasks []models.Task

	err := db.DB.Preload("Board").Preload("Assignee").
		Where("due_date IS NOT NULL AND due_date < ? AND status != ?", time.Now(), types.StatusDone).
		Find(&tasks).Error

	if err != nil {
		log.Printf("Due-date sweep failed: %v", err)
		return
	}

	boards := make(map[uint]bool)

	s.mu.Lock()
	var fresh []models.Task
	for _, task := range tasks {
		if !s.notified[task.ID] {
			s.notified[task.ID] = true
			fresh = append(fresh, task)
		}
	}
	s.mu.Unlock()

	for _, task := range fresh {
		boards[task.BoardID] = true

		if err := services.SendOverdueTaskNotification(task); err != nil {
			log.Printf("Failed to send overdue notification for task %d: %v", task.ID, err)
		}
	}

	for boardID := range boards {
		handlers.BroadcastRefresh(strconv.FormatUint(uint64(boardID), 10))
	}

	if len(fresh) > 0 {
		log.Printf("Due-date sweep reported %d overdue tasks", len(fresh))
	}
}

// Global sweeper instance
var globalSweeper *Sweeper

// Initialize creates and starts the global sweeper
func Initialize() {
	interval := defaultSweepInterval

	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			interval = time.Duration(seconds) * time.Second
		} else {
			log.Printf("Invalid SWEEP_INTERVAL %q, using default", raw)
		}
	}

	globalSweeper = NewSweeper(interval)
	globalSweeper.Start()
}

// Shutdown stops the global sweeper
func Shutdown() {
	if globalSweeper != nil {
		globalSweeper.Stop()
	}
}
