// models/game.go
package models

import (
	"time"

	"gorm.io/gorm"
)

type Game struct {
	ID   string `json:"id" gorm:"primaryKey;type:uuid"`
	Name string `json:"name" gorm:"not null"`

	ShortDescription string `json:"short_description"`
	MainLogoURL      string `json:"main_logo_url"`
	PlayLink         string `json:"play_link"`

	// Default currency players win in for this game's tournaments.
	WinningCurrencyType string `json:"winning_currency_type" gorm:"default:'gems'"`

	Status string `json:"status" gorm:"default:'published'"` // draft | published

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
