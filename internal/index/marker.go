package index

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketBuilds = []byte("builds")

// BuildMarker пишется только после того, как все батчи успешно добавлены
type BuildMarker struct {
	Checksum    string    `json:"checksum"`
	Records     int       `json:"records"`
	Batches     int       `json:"batches"`
	Model       string    `json:"model,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// MarkerStore хранит отметки о завершённых сборках индекса в bbolt
type MarkerStore struct {
	db *bbolt.DB
}

func OpenMarkerStore(path string) (*MarkerStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBuilds)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", bucketBuilds, err)
	}

	return &MarkerStore{db: db}, nil
}

func (s *MarkerStore) Get(collection string) (BuildMarker, bool, error) {
	var marker BuildMarker
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketBuilds).Get([]byte(collection))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &marker)
	})
	return marker, found, err
}

func (s *MarkerStore) Put(collection string, marker BuildMarker) error {
	data, err := json.Marshal(marker)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBuilds).Put([]byte(collection), data)
	})
}

func (s *MarkerStore) Delete(collection string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBuilds).Delete([]byte(collection))
	})
}

func (s *MarkerStore) Close() error {
	return s.db.Close()
}
