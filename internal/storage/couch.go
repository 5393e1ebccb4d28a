package storage

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"
)

// CouchStore keeps each key as a document {"value": "..."} with ID "kv:<key>".
// It lets the agent share a CouchDB or PouchDB-compatible database.
type CouchStore struct {
	client *kivik.Client
	dbName string
}

type kvDoc struct {
	Rev   string `json:"_rev,omitempty"`
	Value string `json:"value"`
}

func NewCouchStore(ctx context.Context, url, dbName string) (*CouchStore, error) {
	client, err := kivik.New("couch", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}

	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}
	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	return &CouchStore{client: client, dbName: dbName}, nil
}

func docID(key string) string {
	return fmt.Sprintf("kv:%s", key)
}

func (s *CouchStore) Get(ctx context.Context, key string) (string, bool, error) {
	db := s.client.DB(s.dbName)

	var doc kvDoc
	if err := db.Get(ctx, docID(key)).ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get document: %w", err)
	}
	return doc.Value, true, nil
}

func (s *CouchStore) Set(ctx context.Context, key, value string) error {
	db := s.client.DB(s.dbName)
	id := docID(key)

	doc := kvDoc{Value: value}
	rev, err := db.GetRev(ctx, id)
	switch {
	case err == nil:
		doc.Rev = rev
	case kivik.HTTPStatus(err) != http.StatusNotFound:
		return fmt.Errorf("failed to get document revision: %w", err)
	}

	if _, err := db.Put(ctx, id, doc); err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

func (s *CouchStore) Remove(ctx context.Context, key string) error {
	db := s.client.DB(s.dbName)
	id := docID(key)

	rev, err := db.GetRev(ctx, id)
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("failed to get document revision: %w", err)
	}
	if _, err := db.Delete(ctx, id, rev); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *CouchStore) Close() error {
	return s.client.Close()
}
