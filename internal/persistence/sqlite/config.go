package sqlite

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config describes how the SQLite database file is opened.
type Config struct {
	// Path is the database file. It is created, with its directory, when missing.
	Path         string
	BusyTimeout  time.Duration
	MaxOpenConns int
	MaxIdleConns int
	// JournalMode is one of DELETE, TRUNCATE, PERSIST, MEMORY, WAL or OFF.
	JournalMode string
}

// DefaultConfig returns the settings used by the service for the given file.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 4,
		MaxIdleConns: 4,
		JournalMode:  "WAL",
	}
}

var validJournalModes = map[string]bool{
	"DELETE":   true,
	"TRUNCATE": true,
	"PERSIST":  true,
	"MEMORY":   true,
	"WAL":      true,
	"OFF":      true,
}

// Validate checks the configuration before a connection is attempted.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("sqlite: path cannot be empty")
	}
	if c.Path == ":memory:" {
		return fmt.Errorf("sqlite: in-memory databases are not supported, use a temporary file")
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("sqlite: busy timeout cannot be negative")
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return fmt.Errorf("sqlite: connection limits cannot be negative")
	}
	if c.JournalMode != "" && !validJournalModes[strings.ToUpper(c.JournalMode)] {
		return fmt.Errorf("sqlite: invalid journal mode: %s", c.JournalMode)
	}
	return nil
}

// DSN renders the modernc.org/sqlite connection string.
//
// Pragmas travel in the DSN so that every pooled connection gets them, and
// _txlock=immediate makes each BeginTx take the write lock up front.
func (c Config) DSN() string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	params.Add("_pragma", "foreign_keys(1)")
	if c.JournalMode != "" {
		params.Add("_pragma", fmt.Sprintf("journal_mode(%s)", strings.ToUpper(c.JournalMode)))
	}
	params.Set("_txlock", "immediate")
	return "file:" + c.Path + "?" + params.Encode()
}
