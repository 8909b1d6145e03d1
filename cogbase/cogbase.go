// Package cogbase persists the bot's users and channels in a bitcask store.
package cogbase

import (
	"cogito/fchat/channels"
	"cogito/fchat/directory"
	"cogito/fchat/users"
	"cogito/logger"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"git.mills.io/prologic/bitcask"
)

const maxValueSize = 10 * 1024 * 1024

type Store struct {
	data  *bitcask.Bitcask
	mutex sync.Mutex
}

func Open(path string) (*Store, error) {
	data, err := bitcask.Open(path, bitcask.WithMaxValueSize(maxValueSize))
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return &Store{data: data}, nil
}

func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.data.Sync(); err != nil {
		logger.Warn("Failed to sync store before closing", "error", err)
	}
	return s.data.Close()
}

// Merge rewrites the store's data files to reclaim space
func (s *Store) Merge() {
	logger.Info("Merging database to reclaim space...")
	if err := s.data.Merge(); err != nil {
		logger.Error("Error merging database", "error", err)
		return
	}
	logger.Info("Database merge complete.")
}

func (s *Store) PutBytes(key string, value []byte) error {
	compressedValue, err := compress(value)
	if err != nil {
		return err
	}
	return s.data.Put(CacheKey(key), compressedValue)
}

func (s *Store) Get(key string) ([]byte, error) {
	compressedValue, err := s.data.Get(CacheKey(key))
	if err != nil {
		return nil, err
	}
	return decompress(compressedValue)
}

func (s *Store) Has(key string) bool {
	return s.data.Has(CacheKey(key))
}

func (s *Store) Delete(key string) error {
	return s.data.Delete(CacheKey(key))
}

// PutJSON stores value as compressed JSON
func (s *Store) PutJSON(key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.PutBytes(key, encoded)
}

// GetJSON decodes the value under key into value. A missing key leaves
// value untouched and reports false.
func (s *Store) GetJSON(key string, value any) (bool, error) {
	encoded, err := s.Get(key)
	if errors.Is(err, bitcask.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(encoded, value); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func usersKey(character string) string {
	return character + "_users"
}

func channelsKey(character string) string {
	return character + "_channels"
}

// Persist writes the users and channels of a snapshot under the character's
// keys. The two halves are written independently; a failure in one does not
// stop the other.
func (s *Store) Persist(character string, snapshot directory.Snapshot) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	userRecords := snapshot.Users
	if userRecords == nil {
		userRecords = []users.Record{}
	}
	channelRecords := snapshot.Channels
	if channelRecords == nil {
		channelRecords = []channels.Record{}
	}

	errUsers := s.PutJSON(usersKey(character), userRecords)
	errChannels := s.PutJSON(channelsKey(character), channelRecords)
	if err := errors.Join(errUsers, errChannels); err != nil {
		return err
	}
	if err := s.data.Sync(); err != nil {
		return fmt.Errorf("sync store: %w", err)
	}
	logger.Debug("Snapshot persisted", "users", len(userRecords), "channels", len(channelRecords))
	return nil
}

// Load reads the snapshot stored for character. Missing halves are empty.
func (s *Store) Load(character string) (directory.Snapshot, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var snapshot directory.Snapshot
	if _, err := s.GetJSON(usersKey(character), &snapshot.Users); err != nil {
		return directory.Snapshot{}, err
	}
	if _, err := s.GetJSON(channelsKey(character), &snapshot.Channels); err != nil {
		return directory.Snapshot{}, err
	}
	return snapshot, nil
}
