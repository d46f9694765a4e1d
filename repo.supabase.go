package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/supabase-community/postgrest-go"
	"go.uber.org/zap"
)

// PostgREST reports casting failures on the id filter with these codes.
const (
	pgInvalidTextRepresentation = "22P02"
	pgNumericValueOutOfRange    = "22003"
)

type supabaseBookStorage struct {
	logger *zap.Logger
	client *postgrest.Client
	table  string
}

// GetSupabaseClient provides a query builder client for the project rest endpoint.
func GetSupabaseClient(config *Config) (*postgrest.Client, error) {
	restURL := strings.TrimRight(config.Store.URL, "/") + "/rest/v1"
	client := postgrest.NewClient(restURL, config.Store.Schema, map[string]string{
		"apikey":        config.Store.Key,
		"Authorization": "Bearer " + config.Store.Key,
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("failed to build supabase client: %w", client.ClientError)
	}
	return client, nil
}

// idFilterError maps a rejected id filter to ErrBookNotFound, since
// no stored book can match an id the column cannot represent.
func idFilterError(err error) error {
	msg := err.Error()
	if strings.HasPrefix(msg, "("+pgInvalidTextRepresentation+")") ||
		strings.HasPrefix(msg, "("+pgNumericValueOutOfRange+")") {
		return ErrBookNotFound
	}
	return err
}

// NewSupabaseBookStorage provides an instance of supabase-based book storage.
func NewSupabaseBookStorage(logger *zap.Logger, client *postgrest.Client, table string) BookStorage {
	return &supabaseBookStorage{
		logger: logger,
		client: client,
		table:  table,
	}
}

// Add inserts a new book. Id and creation time are set by the store.
func (ss *supabaseBookStorage) Add(_ context.Context, book Book) (Book, error) {
	var rows []Book
	in := BookInput{Title: book.Title, Summary: book.Summary, Comment: book.Comment}
	_, err := ss.client.From(ss.table).Insert([]BookInput{in}, false, "", "representation", "").ExecuteTo(&rows)
	if err != nil {
		return book, err
	}
	if len(rows) == 0 {
		return book, fmt.Errorf("supabase: insert returned no row")
	}
	return rows[0], nil
}

// GetOne retrieves a book record based on its ID.
func (ss *supabaseBookStorage) GetOne(_ context.Context, id string) (Book, error) {
	var rows []Book
	_, err := ss.client.From(ss.table).Select("*", "", false).Eq("id", id).ExecuteTo(&rows)
	if err != nil {
		return Book{}, idFilterError(err)
	}
	if len(rows) == 0 {
		return Book{}, ErrBookNotFound
	}
	return rows[0], nil
}

// Delete removes a book record based on its ID.
func (ss *supabaseBookStorage) Delete(_ context.Context, id string) error {
	var rows []Book
	_, err := ss.client.From(ss.table).Delete("representation", "").Eq("id", id).ExecuteTo(&rows)
	if err != nil {
		return idFilterError(err)
	}
	if len(rows) == 0 {
		return ErrBookNotFound
	}
	return nil
}

// Update sets the editable fields of the book matching id.
func (ss *supabaseBookStorage) Update(_ context.Context, id string, in BookInput) (Book, error) {
	var rows []Book
	_, err := ss.client.From(ss.table).Update(in, "representation", "").Eq("id", id).ExecuteTo(&rows)
	if err != nil {
		return Book{}, idFilterError(err)
	}
	if len(rows) == 0 {
		return Book{}, ErrBookNotFound
	}
	return rows[0], nil
}

// GetAll retrieves all books ordered by creation time then id.
func (ss *supabaseBookStorage) GetAll(_ context.Context) ([]Book, error) {
	books := []Book{}
	_, err := ss.client.From(ss.table).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Order("id", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&books)
	if err != nil {
		return nil, err
	}
	return books, nil
}

// Close is a no-op, the rest client holds no dedicated resource.
func (ss *supabaseBookStorage) Close() error {
	return nil
}
