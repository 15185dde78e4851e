package models

import (
	"time"

	"gorm.io/gorm"
)

type Task struct {
	gorm.Model

	BoardID     uint   `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Description string
	Status      string `gorm:"not null"`
	Priority    string `gorm:"not null"`
	AssigneeID  *uint
	ReviewerID  *uint
	DueDate     *time.Time
	CreatedByID uint `gorm:"not null"`

	// Relationships
	Board     Board     `gorm:"foreignKey:BoardID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignee  *User     `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Reviewer  *User     `gorm:"foreignKey:ReviewerID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	CreatedBy User      `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Comments  []Comment `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// AccessBoard returns the board that governs access to this task.
// The Board relation must be loaded before calling.
func (t *Task) AccessBoard() *Board {
	return &t.Board
}
