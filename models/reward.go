package models

import (
	"time"
)

// RewardReason tags why a payout was recorded
type RewardReason string

const (
	RewardReasonWin        RewardReason = "win"
	RewardReasonTimeoutWin RewardReason = "timeout_win"
)

// RewardRecord is the durable payout obligation for a settled room.
// The unique index on RoomID is the de-duplication barrier: at most one
// reward can ever exist per room, no matter how many settlement attempts
// race. The record is written in the same transaction that releases the
// room; the wallet credit happens afterwards and is tracked via Credited.
type RewardRecord struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	RoomID   uint         `json:"room_id" gorm:"not null;uniqueIndex"`
	UserID   string       `json:"user_id" gorm:"not null;index"`
	GameID   string       `json:"game_id"`
	Amount   float64      `json:"amount" gorm:"not null"`
	Currency string       `json:"currency" gorm:"not null"`
	Reason   RewardReason `json:"reason" gorm:"not null"`

	// Credited is false until the wallet service accepted the credit.
	// A record with Credited=false is a reconciliation concern, never a
	// reason to reopen the room.
	Credited bool `json:"credited" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
