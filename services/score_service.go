// services/score_service.go
package services

import (
	"context"
	"errors"
	"log"

	"game-room-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ScoreStatus string

const (
	StatusWaitingForPlayers ScoreStatus = "waiting_for_players"
	StatusWaitingForScores  ScoreStatus = "waiting_for_scores"
	StatusSettled           ScoreStatus = "settled"
	StatusAlreadyClosed     ScoreStatus = "already_closed"
)

// SubmitOutcome is the result of a score submission. Pending only
// carries meaning for StatusWaitingForScores.
type SubmitOutcome struct {
	Status     ScoreStatus
	Pending    int
	Settlement *SettlementResult
}

// ScoreService records submitted scores and detects quorum. It does not
// guard against concurrent settlement itself: two last-straggler
// submissions may both see a complete score set, and both call into the
// settlement engine, where the de-duplication actually lives.
type ScoreService struct {
	DB         *gorm.DB
	Settlement *SettlementService
}

func NewScoreService(db *gorm.DB, settlement *SettlementService) *ScoreService {
	return &ScoreService{DB: db, Settlement: settlement}
}

// RecordScore overwrites the caller's score for the room and settles the
// room when every seat has reported.
func (s *ScoreService) RecordScore(ctx context.Context, userID string, roomID uint, score int64) (*SubmitOutcome, error) {
	res := s.DB.Model(&models.RoomParticipant{}).
		Where("user_id = ? AND room_id = ?", userID, roomID).
		Updates(map[string]interface{}{"score": score, "score_submitted": true})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrSeatNotFound
	}

	var room models.Room
	if err := s.DB.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	// Late submission after settlement: the score stays on record but
	// triggers nothing.
	if room.Released {
		return &SubmitOutcome{Status: StatusAlreadyClosed}, nil
	}

	var participants []models.RoomParticipant
	if err := s.DB.Where("room_id = ?", roomID).Find(&participants).Error; err != nil {
		return nil, err
	}

	if len(participants) < room.MaxPlayers {
		return &SubmitOutcome{Status: StatusWaitingForPlayers}, nil
	}

	pending := 0
	for _, p := range participants {
		if !p.ScoreSubmitted {
			pending++
		}
	}
	if pending > 0 {
		return &SubmitOutcome{Status: StatusWaitingForScores, Pending: pending}, nil
	}

	settlement, err := s.Settlement.Settle(ctx, roomID, PolicyNormal)
	if err != nil {
		return nil, err
	}
	return &SubmitOutcome{Status: StatusSettled, Settlement: settlement}, nil
}

// SubmitScore handles POST /game/submit-score.
func (s *ScoreService) SubmitScore(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req struct {
		RoomID uint   `json:"room_id"`
		Score  *int64 `json:"score"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.RoomID == 0 || req.Score == nil {
		return c.Status(400).JSON(fiber.Map{"error": "room_id and score required"})
	}

	outcome, err := s.RecordScore(c.UserContext(), userID, req.RoomID, *req.Score)
	if err != nil {
		switch {
		case errors.Is(err, ErrSeatNotFound):
			return c.Status(404).JSON(fiber.Map{"error": "user not found in this room"})
		case errors.Is(err, ErrRoomNotFound):
			return c.Status(404).JSON(fiber.Map{"error": "room not found"})
		}
		log.Printf("ERROR submitting score for user %s in room %d: %v", userID, req.RoomID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to submit score"})
	}

	resp := fiber.Map{
		"success": true,
		"status":  outcome.Status,
	}
	switch outcome.Status {
	case StatusAlreadyClosed:
		resp["message"] = "score saved, room already closed"
	case StatusWaitingForPlayers:
		resp["message"] = "score saved, waiting for other players"
	case StatusWaitingForScores:
		resp["message"] = "score saved, waiting for remaining players"
		resp["pending_players"] = outcome.Pending
	case StatusSettled:
		resp["completed"] = true
		resp["winner"] = fiber.Map{
			"user_id": outcome.Settlement.WinnerUserID,
			"score":   outcome.Settlement.WinnerScore,
		}
	}
	return c.JSON(resp)
}
