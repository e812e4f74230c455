// services/service_test.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"game-room-system/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a per-test in-memory database. The DSN carries the
// test name so parallel tests never share state, and the pool is pinned
// to one connection so the shared-cache database outlives individual
// sessions.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Game{},
		&models.TournamentBlock{},
		&models.Room{},
		&models.RoomParticipant{},
		&models.RewardRecord{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// createBlock seeds an active tournament block and returns its id.
func createBlock(t *testing.T, db *gorm.DB, currencyType string, maxPlayers int, entryFee, prizePool float64) string {
	t.Helper()

	block := models.TournamentBlock{
		ID:            uuid.NewString(),
		GameID:        uuid.NewString(),
		Name:          "Test Tournament",
		MaxPlayers:    maxPlayers,
		EntryFee:      entryFee,
		CurrencyType:  currencyType,
		PrizePool:     prizePool,
		PrizeCurrency: "gems",
		Status:        models.BlockStatusActive,
		StartTime:     time.Now().Add(-time.Hour),
	}
	if err := db.Create(&block).Error; err != nil {
		t.Fatalf("failed to create tournament block: %v", err)
	}
	return block.ID
}

type ledgerCall struct {
	UserID   string
	Amount   float64
	Currency string
	Reason   string
}

// fakeLedger records wallet calls in memory. Set DebitErr or CreditErr
// to make the corresponding operation fail.
type fakeLedger struct {
	mu        sync.Mutex
	DebitErr  error
	CreditErr error
	debits    []ledgerCall
	credits   []ledgerCall
}

func (f *fakeLedger) Debit(ctx context.Context, userID string, amount float64, currency, reason string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DebitErr != nil {
		return 0, f.DebitErr
	}
	f.debits = append(f.debits, ledgerCall{userID, amount, currency, reason})
	return 0, nil
}

func (f *fakeLedger) Credit(ctx context.Context, userID string, amount float64, currency, reason string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreditErr != nil {
		return 0, f.CreditErr
	}
	f.credits = append(f.credits, ledgerCall{userID, amount, currency, reason})
	return 0, nil
}

func (f *fakeLedger) Debits() []ledgerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ledgerCall(nil), f.debits...)
}

func (f *fakeLedger) Credits() []ledgerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ledgerCall(nil), f.credits...)
}

// newServices wires a RoomService, ScoreService and SettlementService
// against a fresh test database and fake ledger.
func newServices(t *testing.T) (*gorm.DB, *fakeLedger, *RoomService, *ScoreService, *SettlementService) {
	t.Helper()

	db := newTestDB(t)
	ledger := &fakeLedger{}
	blocks := NewBlockService(db)
	settlement := NewSettlementService(db, ledger)
	rooms := NewRoomService(db, blocks, ledger)
	scores := NewScoreService(db, settlement)
	return db, ledger, rooms, scores, settlement
}
