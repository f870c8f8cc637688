package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/jwalsh/pipeline-and-peril/pkg/engine"
	"github.com/jwalsh/pipeline-and-peril/pkg/runner"
)

var (
	// Bucket names
	bucketExperiments = []byte("experiments")
	bucketResults     = []byte("results")
	bucketSnapshots   = []byte("snapshots")
)

// BoltStore implements Store using BoltDB.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the experiment database under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "peril.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketExperiments,
			bucketResults,
			bucketSnapshots,
		}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Experiment operations
func (s *BoltStore) CreateExperiment(exp *Experiment) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketExperiments)
		data, err := json.Marshal(exp)
		if err != nil {
			return err
		}
		return b.Put([]byte(exp.ID), data)
	})
}

func (s *BoltStore) GetExperiment(id string) (*Experiment, error) {
	var exp Experiment
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketExperiments)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("experiment not found: %s", id)
		}
		return json.Unmarshal(data, &exp)
	})
	if err != nil {
		return nil, err
	}
	return &exp, nil
}

func (s *BoltStore) ListExperiments() ([]*Experiment, error) {
	var experiments []*Experiment
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketExperiments)
		return b.ForEach(func(k, v []byte) error {
			var exp Experiment
			if err := json.Unmarshal(v, &exp); err != nil {
				return err
			}
			experiments = append(experiments, &exp)
			return nil
		})
	})
	return experiments, err
}

func (s *BoltStore) UpdateExperiment(exp *Experiment) error {
	return s.CreateExperiment(exp) // Same as create (upsert)
}

func (s *BoltStore) DeleteExperiment(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketExperiments).Delete([]byte(id)); err != nil {
			return err
		}

		// Drop the experiment's results with it.
		results := tx.Bucket(bucketResults)
		c := results.Cursor()
		prefix := resultPrefix(id)
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			if err := results.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Result operations
func (s *BoltStore) SaveResult(experimentID string, result *runner.Result) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResults)
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		return b.Put(resultKey(experimentID, result.GameID), data)
	})
}

func (s *BoltStore) ListResults(experimentID string) ([]*runner.Result, error) {
	var results []*runner.Result
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketResults).Cursor()
		prefix := resultPrefix(experimentID)
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var result runner.Result
			if err := json.Unmarshal(v, &result); err != nil {
				return err
			}
			results = append(results, &result)
		}
		return nil
	})
	return results, err
}

// Snapshot operations
func (s *BoltStore) SaveSnapshot(gameID string, snapshot *engine.Snapshot) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		data, err := json.Marshal(snapshot)
		if err != nil {
			return err
		}
		return b.Put([]byte(gameID), data)
	})
}

func (s *BoltStore) GetSnapshot(gameID string) (*engine.Snapshot, error) {
	var snapshot engine.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		data := b.Get([]byte(gameID))
		if data == nil {
			return fmt.Errorf("snapshot not found: %s", gameID)
		}
		return json.Unmarshal(data, &snapshot)
	})
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func resultPrefix(experimentID string) []byte {
	return []byte(experimentID + "/")
}

func resultKey(experimentID, gameID string) []byte {
	return []byte(experimentID + "/" + gameID)
}
