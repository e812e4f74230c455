// services/block_service.go
package services

import (
	"errors"
	"log"

	"game-room-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BlockProvider resolves a tournament block id to its configuration.
// The allocator only ever sees active, validated blocks through it.
type BlockProvider interface {
	GetActiveBlock(id string) (*models.TournamentBlock, error)
}

type BlockService struct {
	DB *gorm.DB
}

func NewBlockService(db *gorm.DB) *BlockService {
	return &BlockService{DB: db}
}

// GetActiveBlock loads an active tournament block and validates it once.
func (s *BlockService) GetActiveBlock(id string) (*models.TournamentBlock, error) {
	var block models.TournamentBlock
	if err := s.DB.First(&block, "id = ? AND status = ?", id, models.BlockStatusActive).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	if err := block.Validate(); err != nil {
		log.Printf("Rejecting misconfigured tournament block %s: %v", id, err)
		return nil, ErrConfigNotFound
	}
	return &block, nil
}

// GetTournamentBlocks lists blocks, optionally filtered by game and status.
func (s *BlockService) GetTournamentBlocks(c *fiber.Ctx) error {
	query := s.DB.Order("created_at DESC")
	if gameID := c.Query("gameId"); gameID != "" {
		query = query.Where("game_id = ?", gameID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var blocks []models.TournamentBlock
	if err := query.Find(&blocks).Error; err != nil {
		log.Printf("ERROR fetching tournament blocks: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tournament blocks"})
	}
	return c.JSON(fiber.Map{"blocks": blocks})
}

// GetGames lists published games.
func (s *BlockService) GetGames(c *fiber.Ctx) error {
	var games []models.Game
	if err := s.DB.Where("status = ?", "published").Order("created_at DESC").Find(&games).Error; err != nil {
		log.Printf("ERROR fetching games: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch games"})
	}
	return c.JSON(fiber.Map{"games": games})
}
