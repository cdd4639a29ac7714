package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brightless/brightless/internal/monitors"
	"github.com/brightless/brightless/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketCapabilities = "capabilities"
	BucketMonitorState = "monitorState"
)

// State is the last known set of values of a monitor, used to restore them
// after a reboot, a resume from standby or a reconnect. Percentages are -1
// and selector codes 0 while unknown.
type State struct {
	Brightness int `json:"brightness"`
	Contrast   int `json:"contrast"`
	Volume     int `json:"volume"`

	InputSource int `json:"inputSource"`
	PowerMode   int `json:"powerMode"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// NewState returns a State with all values marked unknown.
func NewState() State {
	return State{
		Brightness: -1,
		Contrast:   -1,
		Volume:     -1,
	}
}

type Persistence interface {
	Init() error

	LoadMonitorCapabilities(key string) (monitors.Capabilities, error)
	SaveMonitorCapabilities(key string, capabilities monitors.Capabilities) (err error)
	DeleteMonitorCapabilities(key string) (err error)

	LoadMonitorState(monitorId string) (State, error)
	SaveMonitorState(monitorId string, state State) (err error)
	DeleteMonitorState(monitorId string) (err error)
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	// get parent path of dbPath
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		// create directory
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SaveMonitorCapabilities saves the probed capabilities of a monitor to persistence
func (p persistence) SaveMonitorCapabilities(key string, capabilities monitors.Capabilities) (err error) {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(capabilities)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketCapabilities))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		err = b.Put([]byte(key), data)
		return err
	})
}

// LoadMonitorCapabilities loads previously probed monitor capabilities from persistence
func (p persistence) LoadMonitorCapabilities(key string) (monitors.Capabilities, error) {
	db, err := p.openPersistence()
	if err != nil {
		return monitors.Capabilities{}, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var capabilities monitors.Capabilities
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketCapabilities))
		if b == nil {
			return os.ErrNotExist
		}
		v := b.Get([]byte(key))
		if v == nil {
			return os.ErrNotExist
		}

		err := json.Unmarshal(v, &capabilities)
		if err != nil {
			// if we cannot read the saved data, delete it
			ui.Warning("Unable to unmarshal saved capabilities for %s: %v", key, err)
			err := b.Delete([]byte(key))
			if err != nil {
				ui.Error("Unable to delete corrupt data key %s: %v", key, err)
			}
			return os.ErrNotExist
		}

		return nil
	})

	return capabilities, err
}

func (p persistence) DeleteMonitorCapabilities(key string) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketCapabilities))
		if b == nil {
			// no capabilities bucket yet
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			// no data for given key
			return nil
		}

		return b.Delete([]byte(key))
	})
}

// SaveMonitorState saves the last known values of a monitor to persistence
func (p persistence) SaveMonitorState(monitorId string, state State) (err error) {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketMonitorState))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		err = b.Put([]byte(monitorId), data)
		return err
	})
}

// LoadMonitorState loads the last known values of a monitor from persistence
func (p persistence) LoadMonitorState(monitorId string) (State, error) {
	db, err := p.openPersistence()
	if err != nil {
		return State{}, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var state State
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketMonitorState))
		if b == nil {
			return os.ErrNotExist
		}
		v := b.Get([]byte(monitorId))
		if v == nil {
			return os.ErrNotExist
		}

		err := json.Unmarshal(v, &state)
		if err != nil {
			// if we cannot read the saved data, delete it
			ui.Warning("Unable to unmarshal saved state for %s: %v", monitorId, err)
			err := b.Delete([]byte(monitorId))
			if err != nil {
				ui.Error("Unable to delete corrupt data key %s: %v", monitorId, err)
			}
			return os.ErrNotExist
		}

		return nil
	})

	return state, err
}

func (p persistence) DeleteMonitorState(monitorId string) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketMonitorState))
		if b == nil {
			// no state bucket yet
			return nil
		}
		v := b.Get([]byte(monitorId))
		if v == nil {
			// no data for given key
			return nil
		}

		return b.Delete([]byte(monitorId))
	})
}
