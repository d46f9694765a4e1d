package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePostgREST serves the subset of the PostgREST protocol used by the books store.
type fakePostgREST struct {
	mu     sync.Mutex
	nextID int
	rows   []Book
	seen   []*http.Request
}

func (f *fakePostgREST) match(r *http.Request) func(Book) bool {
	filter := r.URL.Query().Get("id")
	if filter == "" {
		return func(Book) bool { return true }
	}
	id := strings.TrimPrefix(filter, "eq.")
	return func(b Book) bool { return b.ID.String() == id }
}

func (f *fakePostgREST) last() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[len(f.seen)-1]
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, r)
	if r.URL.Path != "/rest/v1/books" {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"42P01","message":"relation does not exist"}`))
		return
	}
	if filter := r.URL.Query().Get("id"); filter != "" {
		if _, err := strconv.Atoi(strings.TrimPrefix(filter, "eq.")); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"22P02","message":"invalid input syntax for type bigint"}`))
			return
		}
	}
	match := f.match(r)
	out := []Book{}
	switch r.Method {
	case http.MethodGet:
		for _, b := range f.rows {
			if match(b) {
				out = append(out, b)
			}
		}
	case http.MethodPost:
		var ins []BookInput
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &ins); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"PGRST102","message":"invalid body"}`))
			return
		}
		for _, in := range ins {
			f.nextID++
			b := in.Apply(Book{ID: BookID(strconv.Itoa(f.nextID)), CreatedAt: "2023-07-02T00:00:0" + strconv.Itoa(f.nextID) + "+00:00"})
			f.rows = append(f.rows, b)
			out = append(out, b)
		}
		w.WriteHeader(http.StatusCreated)
	case http.MethodPatch:
		var in BookInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"PGRST102","message":"invalid body"}`))
			return
		}
		for i, b := range f.rows {
			if match(b) {
				f.rows[i] = in.Apply(b)
				out = append(out, f.rows[i])
			}
		}
	case http.MethodDelete:
		kept := f.rows[:0]
		for _, b := range f.rows {
			if match(b) {
				out = append(out, b)
				continue
			}
			kept = append(kept, b)
		}
		f.rows = kept
	}
	_ = json.NewEncoder(w).Encode(out)
}

// TestSupabaseStore ensures the books store speaks PostgREST correctly.
func TestSupabaseStore(t *testing.T) {
	fake := &fakePostgREST{}
	server := httptest.NewServer(fake)
	defer server.Close()

	client, err := GetSupabaseClient(&Config{Store: StoreConfig{URL: server.URL + "/", Key: "anon-key", Schema: "public"}})
	require.NoError(t, err)
	ss := NewSupabaseBookStorage(zap.NewNop(), client, "books")
	ctx := context.Background()

	t.Run("Add Book", func(t *testing.T) {
		book, err := ss.Add(ctx, Book{Title: "A", Summary: "S", Comment: "C", CreatedAt: "ignored"})
		require.NoError(t, err)
		assert.Equal(t, BookID("1"), book.ID)
		assert.Equal(t, "A", book.Title)
		assert.NotEqual(t, "ignored", book.CreatedAt)

		last := fake.last()
		assert.Equal(t, "anon-key", last.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", last.Header.Get("Authorization"))
		assert.Equal(t, "return=representation", last.Header.Get("Prefer"))
	})

	t.Run("Get Existent Book", func(t *testing.T) {
		book, err := ss.GetOne(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "A", book.Title)
		assert.Equal(t, "eq.1", fake.last().URL.Query().Get("id"))
	})

	t.Run("Get NonExistent Book", func(t *testing.T) {
		_, err := ss.GetOne(ctx, "9")
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Update Books", func(t *testing.T) {
		book, err := ss.Update(ctx, "1", BookInput{Title: "A2", Summary: "S", Comment: "C"})
		require.NoError(t, err)
		assert.Equal(t, "A2", book.Title)
		_, err = ss.Update(ctx, "9", BookInput{Title: "X", Summary: "S", Comment: "C"})
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Get All Books", func(t *testing.T) {
		_, err := ss.Add(ctx, Book{Title: "B", Summary: "S", Comment: "C"})
		require.NoError(t, err)
		books, err := ss.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, books, 2)
		assert.Equal(t, "created_at.asc.nullslast,id.asc.nullslast", fake.last().URL.Query().Get("order"))
	})

	t.Run("Delete Books", func(t *testing.T) {
		require.NoError(t, ss.Delete(ctx, "1"))
		assert.ErrorIs(t, ss.Delete(ctx, "1"), ErrBookNotFound)
	})

	t.Run("Malformed ID", func(t *testing.T) {
		_, err := ss.GetOne(ctx, "abc")
		assert.ErrorIs(t, err, ErrBookNotFound)
		_, err = ss.Update(ctx, "abc", BookInput{Title: "X", Summary: "S", Comment: "C"})
		assert.ErrorIs(t, err, ErrBookNotFound)
		assert.ErrorIs(t, ss.Delete(ctx, "abc"), ErrBookNotFound)
	})

	t.Run("Store failure", func(t *testing.T) {
		broken := NewSupabaseBookStorage(zap.NewNop(), client, "missing")
		_, err := broken.GetAll(ctx)
		assert.Error(t, err)
	})
}

// TestSupabaseStoreMalformedIDHandlers ensures ids the store cannot cast
// answer like unknown ids on the json endpoints.
func TestSupabaseStoreMalformedIDHandlers(t *testing.T) {
	server := httptest.NewServer(&fakePostgREST{})
	defer server.Close()

	client, err := GetSupabaseClient(&Config{Store: StoreConfig{URL: server.URL, Key: "anon-key", Schema: "public"}})
	require.NoError(t, err)
	api := newTestAPIHandler(NewSupabaseBookStorage(zap.NewNop(), client, "books"), nil)

	t.Run("get", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.GetOneBook(w, httptest.NewRequest(http.MethodGet, "/api/books/abc", nil), httprouter.Params{{Key: "id", Value: "abc"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := strings.NewReader(`{"title":"X","summary":"S","comment":"C"}`)
		api.UpdateBook(w, httptest.NewRequest(http.MethodPut, "/api/books/abc", body), httprouter.Params{{Key: "id", Value: "abc"}})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.DeleteOneBook(w, httptest.NewRequest(http.MethodDelete, "/api/books/abc", nil), httprouter.Params{{Key: "id", Value: "abc"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
