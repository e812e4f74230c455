// models/room.go
package models

import (
	"time"
)

// Room is one instance of a tournament block being played by a fixed
// set of players. Rooms are never deleted — a finished room is archived
// by flipping Released, which also blocks any further joins.
type Room struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	TournamentBlockID string     `json:"tournament_block_id" gorm:"type:uuid;not null;index"`
	GameID            string     `json:"game_id" gorm:"not null"`
	Label             string     `json:"label"`

	// Seat accounting. CurrentPlayers is only ever mutated through a
	// conditional UPDATE guarded by current_players < max_players AND
	// released = false, so it can never overshoot the cap.
	MaxPlayers     int  `json:"max_players" gorm:"not null"`
	CurrentPlayers int  `json:"current_players" gorm:"not null;default:0"`

	// Released transitions false→true exactly once, inside the same
	// transaction that writes the RewardRecord.
	Released    bool       `json:"released" gorm:"not null;default:false;index"`
	ReleaseTime *time.Time `json:"release_time,omitempty"`

	StartTime time.Time `json:"start_time" gorm:"not null"` // used by the reaper staleness scan
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Participants []RoomParticipant `json:"participants,omitempty" gorm:"foreignKey:RoomID"`
}

// RoomParticipant is one user's seat in a room. The auto-increment ID
// doubles as the join-order tie-break key at settlement: on equal scores
// the lowest participant ID (earliest joiner) wins.
type RoomParticipant struct {
	ID                uint   `json:"id" gorm:"primaryKey"`
	RoomID            uint   `json:"room_id" gorm:"not null;uniqueIndex:idx_room_user"`
	UserID            string `json:"user_id" gorm:"not null;uniqueIndex:idx_room_user;index"`
	TournamentBlockID string `json:"tournament_block_id" gorm:"type:uuid;not null;index"`
	UserName          string `json:"user_name"`

	Score          int64 `json:"score" gorm:"not null;default:0"`
	ScoreSubmitted bool  `json:"score_submitted" gorm:"not null;default:false"`

	JoinedAt  time.Time `json:"joined_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
