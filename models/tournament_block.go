package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// CurrencyTypeAds marks a free, ads-funded block. Any other currency
// type means the entry fee is debited from the user's wallet on join.
const CurrencyTypeAds = "ads"

const (
	BlockStatusDraft     = "draft"
	BlockStatusScheduled = "scheduled" // goes active once StartTime passes
	BlockStatusActive    = "active"
	BlockStatusCompleted = "completed"
)

// TournamentBlock is one joinable tournament configuration for a game.
// It is a closed record: every field the allocator or settlement engine
// reads is typed and validated here, nothing lives in ad-hoc metadata.
type TournamentBlock struct {
	ID     string `json:"id" gorm:"primaryKey;type:uuid"`
	GameID string `json:"game_id" gorm:"not null;index"`
	Name   string `json:"name" gorm:"not null"`

	MaxPlayers   int     `json:"max_players" gorm:"not null"`
	EntryFee     float64 `json:"entry_fee" gorm:"default:0"`
	CurrencyType string  `json:"currency_type" gorm:"not null;default:'ads'"`

	PrizePool     float64 `json:"prize_pool" gorm:"default:0"`
	PrizeCurrency string  `json:"prize_currency" gorm:"default:'gems'"`

	Status    string     `json:"status" gorm:"default:'draft';index"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsFree reports whether joining this block costs nothing (ads-funded).
func (b *TournamentBlock) IsFree() bool {
	return b.CurrencyType == CurrencyTypeAds
}

// Validate rejects configurations the allocator cannot honor.
func (b *TournamentBlock) Validate() error {
	if b.MaxPlayers < 1 {
		return fmt.Errorf("tournament block %s: max_players must be >= 1, got %d", b.ID, b.MaxPlayers)
	}
	if b.EntryFee < 0 {
		return fmt.Errorf("tournament block %s: entry_fee must be >= 0", b.ID)
	}
	if b.PrizePool < 0 {
		return fmt.Errorf("tournament block %s: prize_pool must be >= 0", b.ID)
	}
	return nil
}
