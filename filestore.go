package vmap

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// FileStore persists serialized containers in a Bolt database, one bucket,
// keyed by arbitrary string. Values are the wire-format envelope, so a file
// written here can be shipped to any peer that speaks the format.
type FileStore struct {
	bdb  *bbolt.DB
	logf func(format string, args ...any)
}

type FileStoreOptions struct {
	Logf      func(format string, args ...any)
	IsTesting bool
}

var containersBucket = []byte("containers")

// OpenFileStore opens or creates the store file at path.
func OpenFileStore(path string, opt FileStoreOptions) (*FileStore, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("vmap store: %w", err)
	}
	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(containersBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("vmap store: %w", err)
	}
	return &FileStore{bdb: bdb, logf: opt.Logf}, nil
}

func (s *FileStore) Close() error {
	return s.bdb.Close()
}

func (s *FileStore) debugf(format string, args ...any) {
	if s.logf != nil {
		s.logf(format, args...)
	}
}

// Put serializes c and stores it under key, replacing any prior entry.
func (s *FileStore) Put(key string, c *Container) error {
	buf := getEncodeBuf()
	buf = c.AppendSerialized(buf)
	s.debugf("vmap store: put %q (%d bytes)", key, len(buf))
	err := s.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(containersBucket).Put([]byte(key), buf)
	})
	putEncodeBuf(buf)
	return err
}

// Get loads and deserializes the container stored under key. A missing key
// returns (nil, nil).
func (s *FileStore) Get(key string) (*Container, error) {
	var c *Container
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(containersBucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		var err error
		c, err = DeserializeContainer(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the entry under key, reporting whether it existed.
func (s *FileStore) Delete(key string) (bool, error) {
	var existed bool
	err := s.bdb.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(containersBucket)
		existed = b.Get([]byte(key)) != nil
		if !existed {
			return nil
		}
		return b.Delete([]byte(key))
	})
	return existed, err
}

// Keys lists the stored keys in Bolt's byte order.
func (s *FileStore) Keys() ([]string, error) {
	var keys []string
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(containersBucket).ForEach(func(k, v []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}
