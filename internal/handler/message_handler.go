package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/dm-backend/internal/model"
	"github.com/shinyyama/dm-backend/internal/reqctx"
	"github.com/shinyyama/dm-backend/internal/repository"
	"github.com/shinyyama/dm-backend/internal/service"
)

type MessageHandler struct {
	svc service.MessageService
}

func NewMessageHandler(svc service.MessageService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

func (h *MessageHandler) Get(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid message id"))
	}
	msg, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err, "message not found")
	}
	return c.JSON(http.StatusOK, NewItemResponse(c, msg))
}

func (h *MessageHandler) GetAll(c echo.Context) error {
	pageIndex, pageSize, ok := pageParams(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid paging parameters"))
	}
	page, err := h.svc.GetAll(c.Request().Context(), pageIndex, pageSize)
	if err != nil {
		return h.fail(c, err, "no messages found")
	}
	return c.JSON(http.StatusOK, NewItemResponse(c, page))
}

func (h *MessageHandler) GetBySender(c echo.Context) error {
	senderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid sender id"))
	}
	pageIndex, pageSize, ok := pageParams(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid paging parameters"))
	}
	page, err := h.svc.GetBySender(c.Request().Context(), senderID, pageIndex, pageSize)
	if err != nil {
		return h.fail(c, err, "no messages found")
	}
	return c.JSON(http.StatusOK, NewItemResponse(c, page))
}

func (h *MessageHandler) GetByRecipient(c echo.Context) error {
	recipientID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid recipient id"))
	}
	pageIndex, pageSize, ok := pageParams(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid paging parameters"))
	}
	page, err := h.svc.GetByRecipient(c.Request().Context(), recipientID, pageIndex, pageSize)
	if err != nil {
		return h.fail(c, err, "no messages found")
	}
	return c.JSON(http.StatusOK, NewItemResponse(c, page))
}

func (h *MessageHandler) Create(c echo.Context) error {
	var req model.MessageAddRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request body"))
	}
	msg, err := h.svc.Create(c.Request().Context(), &req)
	if err != nil {
		return h.fail(c, err, "")
	}
	return c.JSON(http.StatusCreated, NewItemResponse(c, msg))
}

// Update takes the id from the URL; an id in the body is ignored.
func (h *MessageHandler) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid message id"))
	}
	var req model.MessageUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request body"))
	}
	req.ID = id
	if err := h.svc.Update(c.Request().Context(), &req); err != nil {
		return h.fail(c, err, "")
	}
	return c.JSON(http.StatusOK, NewSuccessResponse(c))
}

func (h *MessageHandler) Delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid message id"))
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, err, "")
	}
	return c.JSON(http.StatusOK, NewSuccessResponse(c))
}

func (h *MessageHandler) fail(c echo.Context, err error, notFound string) error {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, NewValidationResponse(ve))
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", notFound))
	case errors.Is(err, repository.ErrDBNotReady):
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("unavailable", "database not ready"))
	default:
		reqctx.Logger(c.Request().Context()).WithError(err).Error("message store call failed")
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to process message request"))
	}
}

// pageParams reads pageIndex and pageSize, defaulting to 0 and 10.
// Range checks happen in the service.
func pageParams(c echo.Context) (pageIndex, pageSize int, ok bool) {
	pageIndex, pageSize = 0, model.DefaultPageSize
	if s := c.QueryParam("pageIndex"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, false
		}
		pageIndex = v
	}
	if s := c.QueryParam("pageSize"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, false
		}
		pageSize = v
	}
	return pageIndex, pageSize, true
}
