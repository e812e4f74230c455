// services/settlement_service.go
package services

import (
	"context"
	"errors"
	"log"
	"time"

	"game-room-system/models"

	"gorm.io/gorm"
)

type SettlementPolicy string

const (
	// PolicyNormal settles a room whose quorum was reached by score
	// submissions.
	PolicyNormal SettlementPolicy = "NORMAL"
	// PolicyTimeout settles a stale room; seats without a submitted
	// score forfeit with score 0.
	PolicyTimeout SettlementPolicy = "TIMEOUT"
)

// SettlementResult reports the outcome of a Settle call. AlreadySettled
// means some earlier settlement won; the call performed no writes and
// the embedded reward (if any) is the original one.
type SettlementResult struct {
	RoomID         uint
	WinnerUserID   string
	WinnerName     string
	WinnerScore    int64
	Reward         *models.RewardRecord
	AlreadySettled bool
	Credited       bool
}

// AuditArchiver persists a settlement summary outside the database,
// best effort, after the settlement transaction committed.
type AuditArchiver interface {
	ArchiveSettlement(roomID uint, payload interface{}) error
}

// SettlementService closes rooms. It is the single serialization point
// for the quorum path and the reaper: both may call Settle on the same
// room concurrently, and exactly one call releases the room and writes
// the reward. The release flag is re-checked by the conditional release
// update inside the same transaction that flips it, so the losing
// caller rolls back to a no-op.
type SettlementService struct {
	DB       *gorm.DB
	Ledger   LedgerClient
	Archiver AuditArchiver // optional
}

func NewSettlementService(db *gorm.DB, ledger LedgerClient) *SettlementService {
	return &SettlementService{DB: db, Ledger: ledger}
}

// Settle closes the room, records the reward, and credits the winner.
// Calling it on an already-released room is a no-op, never an error.
func (s *SettlementService) Settle(ctx context.Context, roomID uint, policy SettlementPolicy) (*SettlementResult, error) {
	result := &SettlementResult{RoomID: roomID}
	var record models.RewardRecord

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.First(&room, roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}

		if room.Released {
			return s.loadExisting(tx, roomID, result)
		}

		if policy == PolicyTimeout {
			// Missing players forfeit. Their seats flip to submitted so
			// the room's score set is complete and reproducible.
			if err := tx.Model(&models.RoomParticipant{}).
				Where("room_id = ? AND score_submitted = ?", roomID, false).
				Updates(map[string]interface{}{"score": 0, "score_submitted": true}).Error; err != nil {
				return err
			}
		}

		// Winner: highest score, ties broken by lowest participant id
		// (earliest joiner). Fixed rule so a replay picks the same winner.
		var participants []models.RoomParticipant
		if err := tx.Where("room_id = ?", roomID).
			Order("score DESC, id ASC").
			Find(&participants).Error; err != nil {
			return err
		}
		if len(participants) == 0 {
			return ErrNoParticipants
		}
		winner := participants[0]

		now := time.Now()
		res := tx.Model(&models.Room{}).
			Where("id = ? AND released = ?", roomID, false).
			Updates(map[string]interface{}{"released": true, "release_time": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the release race to a concurrent settlement.
			return s.loadExisting(tx, roomID, result)
		}

		reason := models.RewardReasonWin
		if policy == PolicyTimeout {
			reason = models.RewardReasonTimeoutWin
		}
		amount, currency := s.prizeFor(tx, &room)

		record = models.RewardRecord{
			RoomID:   roomID,
			UserID:   winner.UserID,
			GameID:   room.GameID,
			Amount:   amount,
			Currency: currency,
			Reason:   reason,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		result.Reward = &record
		result.WinnerUserID = winner.UserID
		result.WinnerName = winner.UserName
		result.WinnerScore = winner.Score
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.AlreadySettled {
		return result, nil
	}

	// The room is durably released and the reward obligation recorded.
	// A failed credit is reported and left to reconciliation — rolling
	// back settlement would reopen a room other callers treat as closed.
	if record.Amount > 0 {
		if _, err := s.Ledger.Credit(ctx, record.UserID, record.Amount, record.Currency, TxReasonGameWinReward); err != nil {
			log.Printf("Reward credit for room %d (user %s, %.2f %s) failed, left for reconciliation: %v",
				roomID, record.UserID, record.Amount, record.Currency, err)
		} else {
			if err := s.DB.Model(&record).Update("credited", true).Error; err != nil {
				log.Printf("Failed to mark reward %d credited: %v", record.ID, err)
			} else {
				result.Credited = true
				result.Reward.Credited = true
			}
		}
	}

	s.archive(roomID, result)
	return result, nil
}

// loadExisting fills result from the winning settlement's reward record.
// A released room without a record is still a valid no-op outcome.
func (s *SettlementService) loadExisting(tx *gorm.DB, roomID uint, result *SettlementResult) error {
	result.AlreadySettled = true
	var existing models.RewardRecord
	err := tx.First(&existing, "room_id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	result.Reward = &existing
	result.WinnerUserID = existing.UserID
	result.Credited = existing.Credited
	return nil
}

func (s *SettlementService) prizeFor(tx *gorm.DB, room *models.Room) (float64, string) {
	var block models.TournamentBlock
	if err := tx.First(&block, "id = ?", room.TournamentBlockID).Error; err != nil {
		log.Printf("No tournament block %s for room %d, settling with zero prize: %v",
			room.TournamentBlockID, room.ID, err)
		return 0, "gems"
	}
	currency := block.PrizeCurrency
	if currency == "" {
		currency = "gems"
	}
	return block.PrizePool, currency
}

func (s *SettlementService) archive(roomID uint, result *SettlementResult) {
	if s.Archiver == nil {
		return
	}
	go func() {
		if err := s.Archiver.ArchiveSettlement(roomID, result); err != nil {
			log.Printf("Failed to archive settlement for room %d: %v", roomID, err)
		}
	}()
}
