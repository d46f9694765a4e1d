package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStatusHandler ensures api handler can provides its status.
func TestStatusHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	api := newTestAPIHandler(&MockBookStorage{}, nil)
	api.Status(w, req, httprouter.Params{})
	res := w.Result()
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	m := make(map[string]interface{})
	err = json.Unmarshal(data, &m)
	assert.NoError(t, err)

	_, ok := m["requestid"]
	assert.True(t, ok)
	assert.Equal(t, "up & running since 0 mins", m["status"])
	assert.Equal(t, "Hello. Books catalog is available. Enjoy :)", m["message"])
}

// TestCreateBookHandler ensures api handler can create a book.
func TestCreateBookHandler(t *testing.T) {
	var stored Book
	mockRepo := &MockBookStorage{
		AddFunc: func(ctx context.Context, book Book) (Book, error) {
			stored = book
			book.ID = "1"
			return book, nil
		},
	}
	api := newTestAPIHandler(mockRepo, nil)

	t.Run("should pass: valid payload", func(t *testing.T) {
		payload := `{"title":"A","summary":"S","comment":"C"}`
		req := httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, res.StatusCode)
		assert.Empty(t, data)
		assert.Equal(t, "A", stored.Title)
		assert.Equal(t, "S", stored.Summary)
		assert.Equal(t, "C", stored.Comment)
		assert.Equal(t, "2023-07-02T00:00:00.000000Z", stored.CreatedAt)
	})

	testCases := []struct {
		name    string
		payload string
		data    string
	}{
		{"should fail: missing title", `{"summary":"S","comment":"C"}`, "title is required"},
		{"should fail: empty summary", `{"title":"A","summary":"","comment":"C"}`, "summary is required"},
		{"should fail: missing comment", `{"title":"A","summary":"S"}`, "comment is required"},
		{"should fail: all fields missing", `{}`, "comment is required, summary is required, title is required"},
		{"should fail: invalid json", `{"title":`, "invalid book request body"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stored = Book{}
			req := httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(tc.payload))
			w := httptest.NewRecorder()
			api.CreateBook(w, req, httprouter.Params{})
			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)

			var apiErr APIError
			require.NoError(t, json.NewDecoder(res.Body).Decode(&apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, "failed to create the book", apiErr.Message)
			assert.Equal(t, tc.data, apiErr.Data)
			assert.Equal(t, Book{}, stored)
		})
	}

	t.Run("should fail: storage insertion failure", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			AddFunc: func(ctx context.Context, book Book) (Book, error) {
				return book, errors.New("storage failure")
			},
		}
		api := newTestAPIHandler(mockRepo, nil)
		payload := `{"title":"A","summary":"S","comment":"C"}`
		req := httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

// TestGetAllBooksHandler ensures all books are returned in an envelope with the total.
func TestGetAllBooksHandler(t *testing.T) {
	books := []Book{
		{ID: "1", Title: "A", Summary: "S", Comment: "C", CreatedAt: "2023-07-01T00:00:00.000000Z"},
		{ID: "2", Title: "B", Summary: "S", Comment: "C", CreatedAt: "2023-07-02T00:00:00.000000Z"},
	}
	mockRepo := &MockBookStorage{
		GetAllFunc: func(ctx context.Context) ([]Book, error) {
			return books, nil
		},
	}
	api := newTestAPIHandler(mockRepo, nil)
	ctx := context.WithValue(context.Background(), RequestIDContextKey, "r:test")
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	api.GetAllBooks(w, req, httprouter.Params{})
	res := w.Result()
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	expected := `{"requestid":"r:test","status":200,"message":"All books fetched successfully.","total":2,"data":[
		{"id":"1","title":"A","summary":"S","comment":"C","created_at":"2023-07-01T00:00:00.000000Z"},
		{"id":"2","title":"B","summary":"S","comment":"C","created_at":"2023-07-02T00:00:00.000000Z"}]}`
	assert.JSONEq(t, expected, string(data))
}

// TestGetOneBookHandler ensures single book retrieval and its failures.
func TestGetOneBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		GetOneFunc: func(ctx context.Context, id string) (Book, error) {
			switch id {
			case "1":
				return Book{ID: "1", Title: "A", Summary: "S", Comment: "C", CreatedAt: "t"}, nil
			case "2":
				return Book{}, errors.New("storage failure")
			}
			return Book{}, ErrBookNotFound
		},
	}
	api := newTestAPIHandler(mockRepo, nil)

	testCases := []struct {
		name   string
		id     string
		status int
		body   string
	}{
		{"existing book", "1", http.StatusOK, `{"requestid":"","status":200,"message":"Book fetched successfully.","data":{"id":"1","title":"A","summary":"S","comment":"C","created_at":"t"}}`},
		{"missing book", "9", http.StatusNotFound, `{"requestid":"","status":404,"message":"book does not exist","data":null}`},
		{"storage failure", "2", http.StatusInternalServerError, `{"requestid":"","status":500,"message":"failed to get the book","data":null}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/books/"+tc.id, nil)
			w := httptest.NewRecorder()
			api.GetOneBook(w, req, httprouter.Params{{Key: "id", Value: tc.id}})
			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
		})
	}
}

// TestDeleteOneBookHandler ensures deletion answers with the deleted book.
func TestDeleteOneBookHandler(t *testing.T) {
	var deleted string
	mockRepo := &MockBookStorage{
		GetOneFunc: func(ctx context.Context, id string) (Book, error) {
			if id == "1" {
				return Book{ID: "1", Title: "A", Summary: "S", Comment: "C", CreatedAt: "t"}, nil
			}
			return Book{}, ErrBookNotFound
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	api := newTestAPIHandler(mockRepo, nil)

	t.Run("existing book", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/books/1", nil)
		api.DeleteOneBook(w, req, httprouter.Params{{Key: "id", Value: "1"}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1", deleted)
		assert.JSONEq(t, `{"requestid":"","status":200,"message":"Book deleted successfully.","data":{"id":"1","title":"A","summary":"S","comment":"C","created_at":"t"}}`, w.Body.String())
	})

	t.Run("missing book", func(t *testing.T) {
		deleted = ""
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/books/9", nil)
		api.DeleteOneBook(w, req, httprouter.Params{{Key: "id", Value: "9"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, deleted)
	})
}

// TestUpdateBookHandler ensures update validation and the missing book leniency.
func TestUpdateBookHandler(t *testing.T) {
	var updates int
	mockRepo := &MockBookStorage{
		UpdateFunc: func(ctx context.Context, id string, in BookInput) (Book, error) {
			updates++
			if id != "1" {
				return Book{}, ErrBookNotFound
			}
			return in.Apply(Book{ID: "1", CreatedAt: "t"}), nil
		},
	}
	api := newTestAPIHandler(mockRepo, nil)

	t.Run("should pass: existing book", func(t *testing.T) {
		payload := []byte(`{"title":"A2","summary":"S","comment":"C"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/books/1", bytes.NewBuffer(payload))
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: "1"}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"requestid":"","status":200,"message":"Book updated successfully.","data":{"id":"1","title":"A2","summary":"S","comment":"C","created_at":"t"}}`, w.Body.String())
	})

	t.Run("should pass: missing book", func(t *testing.T) {
		payload := []byte(`{"title":"A2","summary":"S","comment":"C"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/books/999", bytes.NewBuffer(payload))
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: "999"}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"requestid":"","status":200,"message":"Book updated successfully.","data":null}`, w.Body.String())
	})

	t.Run("should fail: empty field", func(t *testing.T) {
		updates = 0
		payload := []byte(`{"title":"","summary":"S","comment":"C"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/books/1", bytes.NewBuffer(payload))
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: "1"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, updates)
	})

	t.Run("should fail: storage failure", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{
			UpdateFunc: func(ctx context.Context, id string, in BookInput) (Book, error) {
				return Book{}, errors.New("storage failure")
			},
		}, nil)
		payload := []byte(`{"title":"A2","summary":"S","comment":"C"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/books/1", bytes.NewBuffer(payload))
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: "1"}})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

// TestMethodNotAllowedHandler ensures the Allow header lists the served verbs.
func TestMethodNotAllowedHandler(t *testing.T) {
	api := newTestAPIHandler(&MockBookStorage{}, nil)
	testCases := []struct {
		path  string
		allow string
	}{
		{"/api/books", "GET, POST"},
		{"/api/books/", "GET, POST"},
		{"/api/books/7", "GET, PUT, DELETE"},
		{"/api/other", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPatch, tc.path, nil)
			api.MethodNotAllowed().ServeHTTP(w, req)
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Equal(t, tc.allow, w.Header().Get("Allow"))
			assert.Contains(t, w.Body.String(), "Method PATCH Not Allowed")
		})
	}
}
