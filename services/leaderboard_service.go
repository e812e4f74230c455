// services/leaderboard_service.go
package services

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LeaderboardService answers reward-ranking reads off the reward
// records written at settlement.
type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

type leaderboardRow struct {
	UserID      string  `json:"user_id"`
	UserName    string  `json:"user_name"`
	TotalReward float64 `json:"total_reward"`
	Rank        int     `json:"rank"`
}

const rewardSumQuery = `
        SELECT
            r.user_id,
            COALESCE(MAX(p.user_name), 'Guest') AS user_name,
            SUM(r.amount) AS total_reward
        FROM reward_records r
        LEFT JOIN room_participants p
            ON p.room_id = r.room_id AND p.user_id = r.user_id
        %s
        GROUP BY r.user_id
        ORDER BY total_reward DESC
    `

// GetLeaderboard handles GET /game/leaderboard: reward sums for the
// current week (Monday–Sunday) plus the caller's own rank.
func (s *LeaderboardService) GetLeaderboard(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	weekStart, weekEnd := currentWeekRange(time.Now())

	var rows []leaderboardRow
	query := fmt.Sprintf(rewardSumQuery, "WHERE r.created_at >= ? AND r.created_at <= ?")
	if err := s.DB.Raw(query, weekStart, weekEnd).Scan(&rows).Error; err != nil {
		log.Printf("ERROR fetching leaderboard: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch leaderboard"})
	}

	current := rankRows(rows, userID)

	return c.JSON(fiber.Map{
		"week_start":   weekStart,
		"week_end":     weekEnd,
		"leaderboard":  rows,
		"current_user": current,
	})
}

// GetFame handles GET /game/fame: all-time reward ranking.
func (s *LeaderboardService) GetFame(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var rows []leaderboardRow
	if err := s.DB.Raw(fmt.Sprintf(rewardSumQuery, "")).Scan(&rows).Error; err != nil {
		log.Printf("ERROR fetching fame leaderboard: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch leaderboard"})
	}

	current := rankRows(rows, userID)

	return c.JSON(fiber.Map{
		"leaderboard":  rows,
		"current_user": current,
	})
}

// rankRows assigns ranks in place and returns the caller's entry.
func rankRows(rows []leaderboardRow, userID string) fiber.Map {
	current := fiber.Map{"rank": 0, "total_reward": 0.0}
	for i := range rows {
		rows[i].Rank = i + 1
		if rows[i].UserID == userID {
			current["rank"] = rows[i].Rank
			current["total_reward"] = rows[i].TotalReward
		}
	}
	return current
}

// currentWeekRange returns the Monday 00:00 and Sunday end of t's week.
func currentWeekRange(t time.Time) (time.Time, time.Time) {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week that started last Monday
	}
	year, month, day := t.AddDate(0, 0, -(weekday - 1)).Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}
