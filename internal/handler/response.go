package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/dm-backend/internal/model"
	"github.com/shinyyama/dm-backend/internal/reqctx"
)

type errorPayload struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Fields  []model.FieldError `json:"fields,omitempty"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

func NewValidationResponse(ve *model.ValidationError) ErrorResponse {
	resp := NewErrorResponse("validation_error", ve.Error())
	resp.Error.Fields = ve.Fields
	return resp
}

type ItemResponse[T any] struct {
	Item          T      `json:"item"`
	IsSuccessful  bool   `json:"isSuccessful"`
	TransactionID string `json:"transactionId"`
}

type SuccessResponse struct {
	IsSuccessful  bool   `json:"isSuccessful"`
	TransactionID string `json:"transactionId"`
}

func NewItemResponse[T any](c echo.Context, item T) ItemResponse[T] {
	return ItemResponse[T]{Item: item, IsSuccessful: true, TransactionID: transactionID(c)}
}

func NewSuccessResponse(c echo.Context) SuccessResponse {
	return SuccessResponse{IsSuccessful: true, TransactionID: transactionID(c)}
}

func transactionID(c echo.Context) string {
	if rid := reqctx.RID(c.Request().Context()); rid != "" {
		return rid
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
