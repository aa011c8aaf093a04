// Package history keeps an audit ledger of every command the assistant
// proposed, whether it ran, and what it printed.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// searchWindow bounds how many recent entries fuzzy search looks at.
const searchWindow = 1000

const (
	ledgerSchemaVersion = 1
)

// Entry is one proposed command and its outcome.
type Entry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`

	Shell          string
	Command        string
	Classification string
	Approved       bool
	Reason         string
	Output         string
	Complete       bool
	DurationMs     int64
}

// Manager reads and writes the ledger database.
type Manager struct {
	db     *gorm.DB
	path   string
	logger *zap.Logger
}

// NewManager opens (and if needed creates) the ledger at dbFilePath.
func NewManager(dbFilePath string, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(dbFilePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	dbFileExists := true
	if _, err := os.Stat(dbFilePath); errors.Is(err, os.ErrNotExist) {
		dbFileExists = false
	} else if err != nil {
		return nil, fmt.Errorf("error checking ledger db: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening ledger db: %w", err)
	}

	m := &Manager{db: db, path: dbFilePath, logger: log}

	if m.needsMigration(dbFileExists) {
		log.Debug("migrating ledger schema", zap.String("path", dbFilePath))
		if err := db.AutoMigrate(&Entry{}); err != nil {
			return nil, fmt.Errorf("error auto-migrating ledger schema: %w", err)
		}
		if err := m.writeSchemaVersion(ledgerSchemaVersion); err != nil {
			return nil, fmt.Errorf("error writing ledger schema version: %w", err)
		}
	}

	return m, nil
}

func (m *Manager) needsMigration(dbFileExists bool) bool {
	if !dbFileExists {
		return true
	}

	versionMatches, err := m.schemaVersionMatches()
	if err != nil || !versionMatches {
		return true
	}

	// Version marker present but table gone: re-run migrations.
	return !m.db.Migrator().HasTable(&Entry{})
}

func (m *Manager) writeSchemaVersion(version int) error {
	return os.WriteFile(m.schemaVersionPath(), []byte(strconv.Itoa(version)), 0o644)
}

func (m *Manager) schemaVersionMatches() (bool, error) {
	data, err := os.ReadFile(m.schemaVersionPath())
	if err != nil {
		return false, err
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, err
	}
	if version != ledgerSchemaVersion {
		return false, fmt.Errorf("ledger schema version mismatch: got %d, want %d", version, ledgerSchemaVersion)
	}
	return true, nil
}

func (m *Manager) schemaVersionPath() string {
	return m.path + ".version"
}

// Record appends entry to the ledger. ID and CreatedAt are filled in.
func (m *Manager) Record(entry *Entry) error {
	if result := m.db.Create(entry); result.Error != nil {
		return fmt.Errorf("failed to record ledger entry: %w", result.Error)
	}
	m.logger.Debug("ledger entry recorded", zap.Uint("id", entry.ID), zap.String("command", entry.Command))
	return nil
}

// Recent returns up to limit entries, oldest first.
func (m *Manager) Recent(limit int) ([]Entry, error) {
	var entries []Entry
	result := m.db.Order("created_at desc").Order("id desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	slices.Reverse(entries)
	return entries, nil
}

type commandSource []Entry

func (s commandSource) String(i int) string { return s[i].Command }
func (s commandSource) Len() int            { return len(s) }

// Search fuzzy-matches query against recent commands and returns up to limit
// entries, best match first.
func (m *Manager) Search(query string, limit int) ([]Entry, error) {
	var entries []Entry
	result := m.db.Order("created_at desc").Order("id desc").Limit(searchWindow).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	matches := fuzzy.FindFrom(query, commandSource(entries))
	found := lo.Map(matches, func(match fuzzy.Match, _ int) Entry {
		return entries[match.Index]
	})

	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

// Reset deletes every entry.
func (m *Manager) Reset() error {
	if result := m.db.Exec("DELETE FROM entries"); result.Error != nil {
		return result.Error
	}
	return nil
}

// Close releases the database handle.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
