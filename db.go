package main

import (
	"bytes"
	"encoding/gob"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var bucketName = []byte("terms")

// termRecord is one keyword-classified description, with the number of times
// it has been seen across runs.
type termRecord struct {
	Category string
	Terms    []string
	Seen     int
}

func (r termRecord) key() []byte {
	return []byte(r.Category + "\x00" + strings.Join(r.Terms, " "))
}

// termStore keeps the terms of keyword-classified line items per category,
// so Bayesian hints learn from every run, not just the current one. It lives
// in the config directory.
type termStore struct {
	db *bolt.DB
}

func openTermStore(path string) (*termStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open boltdb at %v", path)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "unable to create default bucket in boltdb")
	}
	return &termStore{db: db}, nil
}

// record adds the run's keyword-classified items, returning how many records
// were new.
func (s *termStore) record(items []LineItem, spec *CategorySpec) (int, error) {
	var added int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		for cat, docs := range learnedTerms(items, spec) {
			for _, terms := range docs {
				r := termRecord{Category: cat, Terms: terms}
				k := r.key()
				if v := b.Get(k); v != nil {
					if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&r); err != nil {
						return errors.Wrapf(err, "unable to parse record of length: %v", len(v))
					}
				} else {
					added++
				}
				r.Seen++

				var val bytes.Buffer
				if err := gob.NewEncoder(&val).Encode(r); err != nil {
					return errors.Wrapf(err, "unable to encode terms of %s", cat)
				}
				if err := b.Put(k, val.Bytes()); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return added, err
}

// examples returns every stored description per category, repeated as often
// as it was seen.
func (s *termStore) examples() (map[string][][]string, error) {
	learned := make(map[string][][]string)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var r termRecord
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&r); err != nil {
				return errors.Wrapf(err, "unable to parse record of length: %v", len(v))
			}
			for i := 0; i < r.Seen; i++ {
				learned[r.Category] = append(learned[r.Category], r.Terms)
			}
		}
		return nil
	})
	return learned, err
}

func (s *termStore) close() error {
	return s.db.Close()
}

// learnFrom records the run's classified items in the store at path and
// returns all examples learned so far, this run included.
func learnFrom(path string, items []LineItem, spec *CategorySpec) (map[string][][]string, error) {
	store, err := openTermStore(path)
	if err != nil {
		return nil, err
	}
	defer store.close()
	if _, err := store.record(items, spec); err != nil {
		return nil, errors.Wrap(err, "unable to record classified terms")
	}
	return store.examples()
}
