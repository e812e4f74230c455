// services/room_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"game-room-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// RoomService allocates seats in tournament rooms. All capacity
// enforcement happens through conditional updates inside Room Store
// transactions — there are no in-process locks on room state.
type RoomService struct {
	DB     *gorm.DB
	Blocks BlockProvider
	Ledger LedgerClient
}

func NewRoomService(db *gorm.DB, blocks BlockProvider, ledger LedgerClient) *RoomService {
	return &RoomService{DB: db, Blocks: blocks, Ledger: ledger}
}

// JoinResult is what a join attempt hands back to the caller.
type JoinResult struct {
	Room          *models.Room
	AlreadyJoined bool
	Free          bool
}

// AllocateSeat admits a user into a room for the given tournament block.
//
// Free (ads-funded) blocks pool players: the oldest open room with a free
// seat is filled first, and re-joining before the room settles is
// idempotent. Paid blocks never pool — the entry fee is debited and a
// dedicated room is opened with the joiner as seat one.
func (s *RoomService) AllocateSeat(ctx context.Context, userID, userName, blockID string) (*JoinResult, error) {
	block, err := s.Blocks.GetActiveBlock(blockID)
	if err != nil {
		return nil, err
	}

	if block.IsFree() {
		return s.allocateFreeSeat(block, userID, userName)
	}
	return s.allocatePaidSeat(ctx, block, userID, userName)
}

func (s *RoomService) allocateFreeSeat(block *models.TournamentBlock, userID, userName string) (*JoinResult, error) {
	// Idempotent re-join: a client retry after a dropped response must get
	// its existing room back, not a second seat. This check runs outside
	// the allocation transaction on purpose — worst case the unique
	// (user_id, room_id) index still catches the duplicate below.
	var existing models.RoomParticipant
	err := s.DB.
		Joins("JOIN rooms ON rooms.id = room_participants.room_id").
		Where("room_participants.user_id = ? AND room_participants.tournament_block_id = ? AND rooms.released = ?",
			userID, block.ID, false).
		First(&existing).Error
	if err == nil {
		var room models.Room
		if err := s.DB.First(&room, existing.RoomID).Error; err != nil {
			return nil, err
		}
		return &JoinResult{Room: &room, AlreadyJoined: true, Free: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var room models.Room
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Prefer filling the oldest open room so earlier rooms reach
		// quorum first.
		err := tx.
			Where("tournament_block_id = ? AND released = ? AND current_players < ?",
				block.ID, false, block.MaxPlayers).
			Order("id ASC").
			First(&room).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			room = models.Room{
				TournamentBlockID: block.ID,
				GameID:            block.GameID,
				Label:             roomLabel(block),
				MaxPlayers:        block.MaxPlayers,
				CurrentPlayers:    0,
				StartTime:         time.Now(),
			}
			if err := tx.Create(&room).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := reserveSeat(tx, room.ID, block.MaxPlayers); err != nil {
			return err
		}

		return createParticipant(tx, room.ID, block.ID, userID, userName)
	})
	if err != nil {
		return nil, err
	}

	// Re-read for the response; the in-memory copy predates the increment.
	if err := s.DB.First(&room, room.ID).Error; err != nil {
		return nil, err
	}
	return &JoinResult{Room: &room, Free: true}, nil
}

func (s *RoomService) allocatePaidSeat(ctx context.Context, block *models.TournamentBlock, userID, userName string) (*JoinResult, error) {
	// The entry-fee debit runs before the Room Store transaction, never
	// inside it. A failed debit leaves no room and no seat behind.
	if _, err := s.Ledger.Debit(ctx, userID, block.EntryFee, block.CurrencyType, TxReasonMatchEntry); err != nil {
		return nil, err
	}

	room := models.Room{
		TournamentBlockID: block.ID,
		GameID:            block.GameID,
		Label:             roomLabel(block),
		MaxPlayers:        block.MaxPlayers,
		CurrentPlayers:    1,
		StartTime:         time.Now(),
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		return createParticipant(tx, room.ID, block.ID, userID, userName)
	})
	if err != nil {
		return nil, err
	}
	return &JoinResult{Room: &room, Free: false}, nil
}

// reserveSeat performs the conditional seat increment. If another
// joiner took the last seat between the allocator's read and this
// update, zero rows match and the whole allocation fails — the caller
// must retry from scratch, since the room it looked at may be stale.
func reserveSeat(tx *gorm.DB, roomID uint, maxPlayers int) error {
	res := tx.Model(&models.Room{}).
		Where("id = ? AND current_players < ? AND released = ?", roomID, maxPlayers, false).
		UpdateColumn("current_players", gorm.Expr("current_players + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRoomFull
	}
	return nil
}

func createParticipant(tx *gorm.DB, roomID uint, blockID, userID, userName string) error {
	participant := models.RoomParticipant{
		RoomID:            roomID,
		UserID:            userID,
		TournamentBlockID: blockID,
		UserName:          userName,
	}
	if err := tx.Create(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateSeat
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func roomLabel(block *models.TournamentBlock) string {
	return slug.Make(block.Name) + "-" + uuid.NewString()[:8]
}

// --- Fiber handlers ---

// JoinRoom handles POST /game/play.
func (s *RoomService) JoinRoom(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	userName, _ := c.Locals("user_name").(string)
	if userName == "" {
		userName = "Player"
	}

	var req struct {
		TournamentBlockID string `json:"tournament_block_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.TournamentBlockID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "tournament_block_id required"})
	}

	result, err := s.AllocateSeat(c.UserContext(), userID, userName, req.TournamentBlockID)
	if err != nil {
		switch {
		case errors.Is(err, ErrConfigNotFound):
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		case errors.Is(err, ErrInsufficientFunds):
			return c.Status(402).JSON(fiber.Map{"error": "insufficient funds"})
		case errors.Is(err, ErrUserBlocked):
			return c.Status(403).JSON(fiber.Map{"error": "wallet blocked"})
		case errors.Is(err, ErrRoomFull):
			// Retryable: the client must re-request allocation from scratch.
			return c.Status(409).JSON(fiber.Map{"error": "room full, retry", "retryable": true})
		case errors.Is(err, ErrLedgerUnavailable):
			return c.Status(503).JSON(fiber.Map{"error": "wallet service unavailable"})
		}
		log.Printf("ERROR allocating seat for user %s in block %s: %v", userID, req.TournamentBlockID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to join room"})
	}

	joinType := "PAID"
	if result.Free {
		joinType = "FREE"
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"type":           joinType,
		"already_joined": result.AlreadyJoined,
		"room":           result.Room,
	})
}

// GetRoomResult handles GET /game/result?roomId=.
func (s *RoomService) GetRoomResult(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	roomID, err := strconv.ParseUint(c.Query("roomId"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "roomId required"})
	}

	var room models.Room
	if err := s.DB.First(&room, uint(roomID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "room not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var participants []models.RoomParticipant
	if err := s.DB.Where("room_id = ?", room.ID).
		Order("score DESC, id ASC").
		Find(&participants).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	currency := "gems"
	if block, err := s.Blocks.GetActiveBlock(room.TournamentBlockID); err == nil {
		currency = block.PrizeCurrency
	} else {
		// Settled rooms may outlive their block's active window; fall back
		// to whatever the block row says regardless of status.
		var b models.TournamentBlock
		if err := s.DB.First(&b, "id = ?", room.TournamentBlockID).Error; err == nil {
			currency = b.PrizeCurrency
		}
	}

	results := make([]fiber.Map, 0, len(participants))
	for _, p := range participants {
		results = append(results, fiber.Map{
			"user_name": p.UserName,
			"score":     p.Score,
			"is_mine":   p.UserID == userID,
		})
	}

	return c.JSON(fiber.Map{
		"room_id":      room.ID,
		"released":     room.Released,
		"currency":     currency,
		"participants": results,
	})
}
