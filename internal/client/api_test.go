package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shinyyama/dm-backend/internal/model"
)

func TestGetMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/messages/3":
			_, _ = io.WriteString(w, `{"item":{"id":3,"messageContent":"hi","sender":{"id":1},"recipient":{"id":2}},"isSuccessful":true,"transactionId":"t"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"code":"not_found","message":"message not found"}}`)
		}
	}))
	defer srv.Close()
	api := NewAPI(srv.URL+"/", nil)

	msg, err := api.GetMessage(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if msg == nil || msg.Content != "hi" || msg.Sender.ID != 1 || msg.Recipient.ID != 2 {
		t.Fatalf("unexpected message: %+v", msg)
	}

	msg, err = api.GetMessage(context.Background(), 4)
	if err != nil || msg != nil {
		t.Fatalf("expected absent, got %v, %v", msg, err)
	}
}

func TestPagedRequests(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		_, _ = io.WriteString(w, `{"item":{"pagedItems":[{"id":1},{"id":2}],"pageIndex":0,"pageSize":10,"totalCount":2},"isSuccessful":true}`)
	}))
	defer srv.Close()
	api := NewAPI(srv.URL, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() (*model.Paged[model.Message], error)
		path string
	}{
		{"all", func() (*model.Paged[model.Message], error) { return api.GetMessagesAll(ctx, 0, 500) }, "/api/messages/paginate"},
		{"recipient", func() (*model.Paged[model.Message], error) { return api.GetMessagesByRecipientID(ctx, 2, 0, 500) }, "/api/messages/recipient/2"},
		{"sender", func() (*model.Paged[model.Message], error) { return api.GetMessagesBySenderID(ctx, 1, 0, 500) }, "/api/messages/sender/1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := tt.call()
			if err != nil {
				t.Fatal(err)
			}
			if gotPath != tt.path || gotQuery != "pageIndex=0&pageSize=500" {
				t.Fatalf("requested %s?%s", gotPath, gotQuery)
			}
			if len(page.PagedItems) != 2 || page.TotalCount != 2 {
				t.Fatalf("unexpected page: %+v", page)
			}
		})
	}
}

func TestPostMessage(t *testing.T) {
	var got model.MessageAddRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("method=%s content-type=%s", r.Method, r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"item":{"id":77,"messageContent":"yo"},"isSuccessful":true}`)
	}))
	defer srv.Close()

	msg, err := NewAPI(srv.URL, nil).PostMessage(context.Background(), &model.MessageAddRequest{Message: "yo", RecipientID: 2, SenderID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID != 77 || got.Message != "yo" || got.RecipientID != 2 {
		t.Fatalf("msg=%+v sent=%+v", msg, got)
	}
}

func TestErrorsSurfaceAsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":"validation_error","message":"validation failed: message: is required"}}`)
	}))
	defer srv.Close()
	api := NewAPI(srv.URL, nil)

	err := api.UpdateMessage(context.Background(), &model.MessageUpdateRequest{ID: 1})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Code != "validation_error" {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := api.DeleteMessage(context.Background(), 1); !errors.As(err, &apiErr) {
		t.Fatalf("delete: %v", err)
	}
}
