package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// DefaultAPIHost is used when a request carries no Host header.
const DefaultAPIHost = "localhost:3000"

var _ BookReader = (*BooksAPIClient)(nil)

// APIBaseURL derives the data endpoints base url from the host the page
// was requested on. Local hosts are reached over plain http.
func APIBaseURL(host string) string {
	if host == "" {
		host = DefaultAPIHost
	}
	protocol := "https"
	if isLocalHost(host) {
		protocol = "http"
	}
	return protocol + "://" + host + "/api"
}

func isLocalHost(host string) bool {
	if strings.HasPrefix(host, "localhost") {
		return true
	}
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}
	ip := net.ParseIP(strings.Trim(hostname, "[]"))
	return ip != nil && ip.IsLoopback()
}

// BooksAPIClient reads books through the json data endpoints.
type BooksAPIClient struct {
	client    *http.Client
	baseURL   string
	requestID string
}

// NewBooksAPIClient provides a client of the books endpoints found under baseURL.
func NewBooksAPIClient(client *http.Client, baseURL, requestID string) *BooksAPIClient {
	return &BooksAPIClient{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		requestID: requestID,
	}
}

type booksEnvelope struct {
	Data []Book `json:"data"`
}

type bookEnvelope struct {
	Data Book `json:"data"`
}

func (c *BooksAPIClient) get(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.requestID != "" {
		req.Header.Set("X-Request-ID", c.requestID)
	}
	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return ErrBookNotFound
	case res.StatusCode != http.StatusOK:
		return fmt.Errorf("api client: GET %s: unexpected status %d", path, res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(v)
}

// GetAll fetches all books.
func (c *BooksAPIClient) GetAll(ctx context.Context) ([]Book, error) {
	var env booksEnvelope
	if err := c.get(ctx, "/books", &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		env.Data = []Book{}
	}
	return env.Data, nil
}

// GetOne fetches a single book. ErrBookNotFound is returned on 404.
func (c *BooksAPIClient) GetOne(ctx context.Context, id string) (Book, error) {
	var env bookEnvelope
	if err := c.get(ctx, "/books/"+url.PathEscape(id), &env); err != nil {
		return Book{}, err
	}
	return env.Data, nil
}
