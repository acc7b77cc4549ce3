// Package store persists replay runs in SQLite via gorm so the UI can
// page through multi-year day series without recomputing the replay.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dcatool/internal/replay"
)

const dayBatchSize = 500

// Store wraps the gorm handle.
type Store struct {
	db *gorm.DB
}

// New opens (and migrates) the replay database at path.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store: database path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	// gorm's sqlite driver rides mattn/go-sqlite3, which takes its
	// connection options in _key=value form.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&RunModel{}, &DayStateModel{}, &TransactionModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer. One pooled connection serializes
	// the batch endpoint's concurrent saves instead of surfacing lock
	// errors to the caller.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun writes a run, its day series and its executed transaction log
// in one database transaction.
func (s *Store) SaveRun(ctx context.Context, run RunModel, res replay.Result, txs []replay.Transaction) error {
	if run.ID == "" {
		return fmt.Errorf("store: run id is required")
	}
	if run.CreatedAtUnix == 0 {
		run.CreatedAtUnix = time.Now().Unix()
	}
	if len(res.Diagnostics) > 0 {
		raw, err := json.Marshal(res.Diagnostics)
		if err != nil {
			return fmt.Errorf("store: marshal diagnostics: %w", err)
		}
		run.Diagnostics = raw
	}
	run.BarCount = len(res.Days)
	run.Degraded = res.Degraded
	if n := len(res.Days); n > 0 {
		last := res.Days[n-1]
		run.FinalTotalPNL = last.TotalPNL
		run.FinalTotalPNLPercent = last.TotalPNLPercent
		run.MaxCapitalDeployed = last.MaxCapitalDeployed
	}

	days := make([]DayStateModel, 0, len(res.Days))
	for _, d := range res.Days {
		days = append(days, dayModel(run.ID, d))
	}
	txModels, err := transactionModels(run.ID, txs)
	if err != nil {
		return err
	}
	run.TransactionCount = len(txModels)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		if len(days) > 0 {
			if err := tx.CreateInBatches(days, dayBatchSize).Error; err != nil {
				return err
			}
		}
		if len(txModels) > 0 {
			if err := tx.CreateInBatches(txModels, dayBatchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunModel, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var runs []RunModel
	err := s.db.WithContext(ctx).
		Order("created_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// GetRun returns one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (RunModel, error) {
	var run RunModel
	err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error
	return run, err
}

// DayStates returns a run's day series, date ascending.
func (s *Store) DayStates(ctx context.Context, runID string) ([]DayStateModel, error) {
	var days []DayStateModel
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).Order("date ASC").Find(&days).Error
	return days, err
}

// Transactions returns a run's executed log, date ascending.
func (s *Store) Transactions(ctx context.Context, runID string) ([]TransactionModel, error) {
	var txs []TransactionModel
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).Order("date ASC").Find(&txs).Error
	return txs, err
}

func dayModel(runID string, d replay.DayState) DayStateModel {
	return DayStateModel{
		RunID:               runID,
		Date:                d.Date,
		StockPrice:          d.StockPrice,
		TotalPNL:            d.TotalPNL,
		TotalPNLPercent:     d.TotalPNLPercent,
		CapitalDeployed:     d.CapitalDeployed,
		MaxCapitalDeployed:  d.MaxCapitalDeployed,
		HoldingsValue:       d.HoldingsValue,
		RealizedPNL:         d.RealizedPNL,
		BreakEvenValue:      d.BreakEvenValue,
		LotsDeployedPercent: d.LotsDeployedPercent,
		BuyAndHoldPercent:   d.BuyAndHoldPercent,
		OpenPositionCount:   d.OpenPositionCount,
		HasBuy:              d.HasBuy,
		HasSell:             d.HasSell,
	}
}

func transactionModels(runID string, txs []replay.Transaction) ([]TransactionModel, error) {
	out := make([]TransactionModel, 0, len(txs))
	for _, tx := range txs {
		if tx.Type.Aborted() {
			continue
		}
		m := TransactionModel{
			RunID:       runID,
			Date:        tx.Date,
			Type:        string(tx.Type),
			Price:       tx.Price,
			Shares:      tx.Shares,
			RealizedPNL: tx.RealizedPNL,
			TotalPNL:    tx.TotalPNL,
		}
		if positions := tx.Positions(); len(positions) > 0 {
			raw, err := json.Marshal(positions)
			if err != nil {
				return nil, fmt.Errorf("store: marshal positions for %s: %w", tx.Date, err)
			}
			m.Positions = raw
		}
		out = append(out, m)
	}
	return out, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
