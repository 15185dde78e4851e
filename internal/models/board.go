package models

import "gorm.io/gorm"

type Board struct {
	gorm.Model

	Title   string `gorm:"not null"`
	OwnerID uint   `gorm:"not null;index"`

	// Relationships
	Owner   User   `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Members []User `gorm:"many2many:board_members;"`
	Tasks   []Task `gorm:"foreignKey:BoardID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// AccessBoard returns the board that governs access to this resource.
func (b *Board) AccessBoard() *Board {
	return b
}
