package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName      = "undertow"
	dbFileName   = "undertow.db"
	saveDebounce = 500 * time.Millisecond
)

type Manager struct {
	db        *sql.DB
	debounce  time.Duration
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *Session
	saveErr   func(error)

	// writeMu orders a timer flush against the final flush in Close.
	writeMu sync.Mutex
	closed  bool
}

// Open opens the session database under the XDG data directory.
func Open() (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath)
}

// OpenPath opens the session database at dbPath, creating it if needed.
func OpenPath(dbPath string) (*Manager, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	// Debounced saves run on timer goroutines; one connection serializes
	// them with reads and the flush in Close.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db, debounce: saveDebounce}, nil
}

// OnSaveError sets a callback for errors from debounced saves.
func (m *Manager) OnSaveError(fn func(error)) {
	m.saveMu.Lock()
	m.saveErr = fn
	m.saveMu.Unlock()
}

func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.closed = true

	// Flush pending state
	var err error
	if pending != nil {
		err = saveSession(m.db, *pending)
	}

	if cerr := m.db.Close(); cerr != nil {
		return cerr
	}
	return err
}

// GetSession returns the saved session, or nil on first run.
func (m *Manager) GetSession() (*Session, error) {
	return getSession(m.db)
}

// SaveSession stores s after a short debounce; only the latest value within
// the window is written.
func (m *Manager) SaveSession(s Session) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &s

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(m.debounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		onErr := m.saveErr
		m.saveMu.Unlock()

		if pending == nil {
			return
		}

		m.writeMu.Lock()
		defer m.writeMu.Unlock()
		if m.closed {
			return
		}
		if err := saveSession(m.db, *pending); err != nil && onErr != nil {
			onErr(err)
		}
	})
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
