package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// ListPageData feeds the books list page.
type ListPageData struct {
	Title   string
	Books   []Book
	Deleted bool
}

// FormPageData feeds the creation and edit pages.
type FormPageData struct {
	Title       string
	SubmitLabel string
	Endpoint    string
	Method      string
	Book        Book
}

// ErrorPageData feeds the error page.
type ErrorPageData struct {
	Title   string
	Message string
}

// pageReader returns where a page reads books from: the json endpoints
// reached back over http, or the books service directly.
func (api *APIHandler) pageReader(r *http.Request) BookReader {
	if !api.config.Pages.FetchFromAPI {
		return api.bookService
	}
	baseURL := api.config.Pages.APIBaseURL
	if baseURL == "" {
		baseURL = APIBaseURL(r.Host)
	}
	return NewBooksAPIClient(api.httpClient, baseURL, GetValueFromContext(r.Context(), RequestIDContextKey))
}

func (api *APIHandler) renderPage(ctx context.Context, w http.ResponseWriter, name string, status int, data interface{}) {
	if err := api.pages.Render(w, name, status, data); err != nil {
		requestID := GetValueFromContext(ctx, RequestIDContextKey)
		api.logger.Error("failed to render page", zap.String("page", name), zap.String("request.id", requestID), zap.Error(err))
		http.Error(w, "failed to render the page", http.StatusInternalServerError)
	}
}

// ListBooksPage renders every book with its edit and delete controls.
func (api *APIHandler) ListBooksPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	books, err := api.pageReader(r).GetAll(r.Context())
	if err != nil {
		api.logger.Error("page: failed to fetch books", zap.String("request.id", requestID), zap.Error(err))
		api.renderPage(r.Context(), w, ErrorPage, http.StatusBadGateway, ErrorPageData{
			Title:   "Something went wrong",
			Message: "The books could not be loaded. Please try again.",
		})
		return
	}
	api.renderPage(r.Context(), w, ListPage, http.StatusOK, ListPageData{
		Title:   "Books",
		Books:   books,
		Deleted: r.URL.Query().Get("deleted") == "1",
	})
}

// NewBookPage renders the empty creation form.
func (api *APIHandler) NewBookPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.renderPage(r.Context(), w, FormPage, http.StatusOK, FormPageData{
		Title:       "Add a book",
		SubmitLabel: "Add",
		Endpoint:    "/api/books",
		Method:      http.MethodPost,
	})
}

// EditBookPage renders the form pre-filled with the book identified in the path.
func (api *APIHandler) EditBookPage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id := ps.ByName("id")
	book, err := api.pageReader(r).GetOne(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		api.renderPage(r.Context(), w, ErrorPage, http.StatusNotFound, ErrorPageData{
			Title:   "Book not found",
			Message: "This book does not exist.",
		})
		return
	}
	if err != nil {
		api.logger.Error("page: failed to fetch book", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.renderPage(r.Context(), w, ErrorPage, http.StatusBadGateway, ErrorPageData{
			Title:   "Something went wrong",
			Message: "The book could not be loaded. Please try again.",
		})
		return
	}
	api.renderPage(r.Context(), w, FormPage, http.StatusOK, FormPageData{
		Title:       "Edit the book",
		SubmitLabel: "Save",
		Endpoint:    "/api/books/" + url.PathEscape(id),
		Method:      http.MethodPut,
		Book:        book,
	})
}
