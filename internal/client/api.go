package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shinyyama/dm-backend/internal/model"
)

// APIError is a non-2xx answer from the message API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("message api: status %d", e.Status)
	}
	return fmt.Sprintf("message api: %d %s: %s", e.Status, e.Code, e.Message)
}

// API talks to the /api/messages endpoints. Absent records and empty pages
// come back as nil with no error.
type API struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type itemEnvelope[T any] struct {
	Item          T      `json:"item"`
	IsSuccessful  bool   `json:"isSuccessful"`
	TransactionID string `json:"transactionId"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *API) GetMessagesAll(ctx context.Context, pageIndex, pageSize int) (*model.Paged[model.Message], error) {
	return a.getPage(ctx, "/api/messages/paginate", pageIndex, pageSize)
}

func (a *API) GetMessagesByRecipientID(ctx context.Context, recipientID, pageIndex, pageSize int) (*model.Paged[model.Message], error) {
	return a.getPage(ctx, "/api/messages/recipient/"+strconv.Itoa(recipientID), pageIndex, pageSize)
}

func (a *API) GetMessagesBySenderID(ctx context.Context, senderID, pageIndex, pageSize int) (*model.Paged[model.Message], error) {
	return a.getPage(ctx, "/api/messages/sender/"+strconv.Itoa(senderID), pageIndex, pageSize)
}

func (a *API) GetMessage(ctx context.Context, id int) (*model.Message, error) {
	var env itemEnvelope[*model.Message]
	found, err := a.do(ctx, http.MethodGet, "/api/messages/"+strconv.Itoa(id), nil, &env)
	if err != nil || !found {
		return nil, err
	}
	return env.Item, nil
}

func (a *API) PostMessage(ctx context.Context, req *model.MessageAddRequest) (*model.Message, error) {
	var env itemEnvelope[*model.Message]
	if _, err := a.do(ctx, http.MethodPost, "/api/messages", req, &env); err != nil {
		return nil, err
	}
	return env.Item, nil
}

func (a *API) UpdateMessage(ctx context.Context, req *model.MessageUpdateRequest) error {
	_, err := a.do(ctx, http.MethodPut, "/api/messages/"+strconv.Itoa(req.ID), req, nil)
	return err
}

func (a *API) DeleteMessage(ctx context.Context, id int) error {
	_, err := a.do(ctx, http.MethodDelete, "/api/messages/"+strconv.Itoa(id), nil, nil)
	return err
}

func (a *API) getPage(ctx context.Context, path string, pageIndex, pageSize int) (*model.Paged[model.Message], error) {
	q := url.Values{}
	q.Set("pageIndex", strconv.Itoa(pageIndex))
	q.Set("pageSize", strconv.Itoa(pageSize))

	var env itemEnvelope[*model.Paged[model.Message]]
	found, err := a.do(ctx, http.MethodGet, path+"?"+q.Encode(), nil, &env)
	if err != nil || !found {
		return nil, err
	}
	return env.Item, nil
}

// do sends body as JSON and decodes a 2xx answer into out. found is false on 404.
func (a *API) do(ctx context.Context, method, path string, body, out any) (found bool, err error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return false, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, rd)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env errorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return false, apiErr
	}
	if out == nil {
		return true, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return true, nil
}
