package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

var ErrBookNotFound = errors.New("book not found")

// BookID is the store-assigned identifier of a book. Relational stores
// hand out numeric ids while key-value stores use uuid strings so both
// json numbers and json strings are accepted on decoding.
type BookID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *BookID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = BookID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = BookID(n.String())
	return nil
}

// String returns the identifier as plain text.
func (id BookID) String() string {
	return string(id)
}

// Book represents a book entity.
type Book struct {
	ID        BookID `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at"`
}

// BookInput is the payload accepted on book creation and update.
type BookInput struct {
	Title   string `json:"title" validate:"required"`
	Summary string `json:"summary" validate:"required"`
	Comment string `json:"comment" validate:"required"`
}

// Apply copies the input editable fields onto the book.
func (in BookInput) Apply(book Book) Book {
	book.Title = in.Title
	book.Summary = in.Summary
	book.Comment = in.Comment
	return book
}

// BookStorage defines possible operations on book entity.
// Add fills the store-assigned fields and returns the stored book.
// Update and Delete return ErrBookNotFound when no book matches id.
type BookStorage interface {
	Add(ctx context.Context, book Book) (Book, error)
	GetOne(ctx context.Context, id string) (Book, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, in BookInput) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Close() error
}

// SortBooksByCreation orders books by creation time ascending then by id.
// Timestamps are formatted with TimestampLayout so text order is time order.
func SortBooksByCreation(books []Book) {
	sort.SliceStable(books, func(i, j int) bool {
		if c := strings.Compare(books[i].CreatedAt, books[j].CreatedAt); c != 0 {
			return c < 0
		}
		return books[i].ID < books[j].ID
	})
}
