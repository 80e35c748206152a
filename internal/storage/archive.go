package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/klauspost/compress/zstd"
)

// ArchiveFormatVersion is bumped whenever the archive document changes shape.
const ArchiveFormatVersion = 1

// Archive errors.
var (
	ErrUnsupportedArchive = errors.New("unsupported archive format")
	ErrInvalidArchive     = errors.New("invalid archive")
)

// ImportMode controls how an archive is merged with existing data.
type ImportMode string

const (
	// ImportReplace wipes all goals before loading the archive.
	ImportReplace ImportMode = "replace"
	// ImportMerge adds the archived goals alongside existing ones.
	ImportMerge ImportMode = "merge"
)

// ParseImportMode validates a user-supplied import mode.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(s) {
	case ImportReplace, ImportMerge:
		return ImportMode(s), nil
	default:
		return "", fmt.Errorf("%w: %q (want replace or merge)", ErrInvalidImportMode, s)
	}
}

// Archive is the portable backup document. It is stored as zstd-compressed JSON.
type Archive struct {
	CreatedAt     time.Time           `json:"created_at"`
	ID            string              `json:"id"`
	AppVersion    string              `json:"app_version"`
	Goals         []model.Goal        `json:"goals"`
	Transactions  []model.Transaction `json:"transactions"`
	FormatVersion int                 `json:"format_version"`
	SchemaVersion int                 `json:"schema_version"`
}

// ArchiveSummary describes an exported or imported archive.
type ArchiveSummary struct {
	CreatedAt    time.Time
	ID           string
	Goals        int
	Transactions int
}

// ExportArchive writes every goal and transaction to w.
func (s *SQLiteStorage) ExportArchive(ctx context.Context, w io.Writer, appVersion string) (*ArchiveSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("%w: writer", ErrNilParameter)
	}

	schemaVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}

	doc := Archive{
		FormatVersion: ArchiveFormatVersion,
		ID:            uuid.New().String(),
		CreatedAt:     time.Now().UTC(),
		AppVersion:    appVersion,
		SchemaVersion: schemaVersion,
	}

	// Read both tables in one transaction so the snapshot is consistent.
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var readErr error
		if doc.Goals, readErr = s.getGoalsTx(ctx, tx); readErr != nil {
			return readErr
		}
		doc.Transactions, readErr = s.getAllTransactionsTx(ctx, tx)
		return readErr
	})
	if err != nil {
		return nil, err
	}

	if err := writeArchive(w, &doc); err != nil {
		return nil, err
	}

	slog.Info("Exported archive", "id", doc.ID, "goals", len(doc.Goals), "transactions", len(doc.Transactions))
	return doc.summary(), nil
}

// ReadArchive decodes an archive without touching the database.
func ReadArchive(r io.Reader) (*Archive, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: reader", ErrNilParameter)
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer dec.Close()

	var doc Archive
	if err := json.NewDecoder(dec).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	if doc.FormatVersion < 1 || doc.FormatVersion > ArchiveFormatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedArchive, doc.FormatVersion)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}

	return &doc, nil
}

// ImportArchive loads an archive from r in a single database transaction.
func (s *SQLiteStorage) ImportArchive(ctx context.Context, r io.Reader, mode ImportMode) (*ArchiveSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if _, err := ParseImportMode(string(mode)); err != nil {
		return nil, err
	}

	doc, err := ReadArchive(r)
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		return s.importArchiveTx(ctx, tx, doc, mode)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Imported archive",
		"id", doc.ID,
		"mode", mode,
		"goals", len(doc.Goals),
		"transactions", len(doc.Transactions))

	return doc.summary(), nil
}

func (s *SQLiteStorage) importArchiveTx(ctx context.Context, q queryable, doc *Archive, mode ImportMode) error {
	if mode == ImportReplace {
		if _, err := q.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
			return fmt.Errorf("failed to clear transactions: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM goals`); err != nil {
			return fmt.Errorf("failed to clear goals: %w", err)
		}
	}

	goalIDs := make(map[int64]int64, len(doc.Goals))
	for _, archived := range doc.Goals {
		goal := archived
		oldID := goal.ID
		if mode == ImportMerge {
			goal.ID = 0
		}
		if err := s.saveGoalTx(ctx, q, &goal); err != nil {
			return fmt.Errorf("goal %d: %w", oldID, err)
		}
		goalIDs[oldID] = goal.ID
	}

	for _, archived := range doc.Transactions {
		txn := archived
		txn.GoalID = goalIDs[archived.GoalID]
		if mode == ImportMerge {
			txn.ID = uuid.New().String()
		}
		if err := insertTransaction(ctx, q, &txn); err != nil {
			return fmt.Errorf("transaction %s: %w", archived.ID, err)
		}
	}

	return nil
}

func writeArchive(w io.Writer, doc *Archive) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}

	if err := json.NewEncoder(enc).Encode(doc); err != nil {
		_ = enc.Close()
		return fmt.Errorf("failed to encode archive: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush archive: %w", err)
	}
	return nil
}

func (a *Archive) validate() error {
	goals := make(map[int64]bool, len(a.Goals))
	for i := range a.Goals {
		goal := &a.Goals[i]
		if goal.ID <= 0 {
			return fmt.Errorf("%w: goal at index %d has no id", ErrInvalidArchive, i)
		}
		if goals[goal.ID] {
			return fmt.Errorf("%w: duplicate goal id %d", ErrInvalidArchive, goal.ID)
		}
		if err := validateGoal(goal); err != nil {
			return fmt.Errorf("%w: goal %d: %v", ErrInvalidArchive, goal.ID, err)
		}
		goals[goal.ID] = true
	}

	for i, txn := range a.Transactions {
		if txn.ID == "" {
			return fmt.Errorf("%w: transaction at index %d has no id", ErrInvalidArchive, i)
		}
		if !goals[txn.GoalID] {
			return fmt.Errorf("%w: transaction %s references unknown goal %d", ErrInvalidArchive, txn.ID, txn.GoalID)
		}
		if !txn.Type.IsValid() {
			return fmt.Errorf("%w: transaction %s has type %q", ErrInvalidArchive, txn.ID, txn.Type)
		}
		if !txn.Amount.IsPositive() {
			return fmt.Errorf("%w: transaction %s has non-positive amount", ErrInvalidArchive, txn.ID)
		}
	}

	return nil
}

func (a *Archive) summary() *ArchiveSummary {
	return &ArchiveSummary{
		ID:           a.ID,
		CreatedAt:    a.CreatedAt,
		Goals:        len(a.Goals),
		Transactions: len(a.Transactions),
	}
}
