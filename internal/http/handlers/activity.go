package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	redisclient "github.com/yungbote/activitylog-backend/internal/clients/redis"
	types "github.com/yungbote/activitylog-backend/internal/domain"
	"github.com/yungbote/activitylog-backend/internal/http/response"
	"github.com/yungbote/activitylog-backend/internal/pkg/apperr"
	"github.com/yungbote/activitylog-backend/internal/services"
)

type ActivityHandler struct {
	activity services.ActivityService
	stream   redisclient.AnalyticsStream // nil when no stream is configured
}

func NewActivityHandler(activity services.ActivityService, stream redisclient.AnalyticsStream) *ActivityHandler {
	return &ActivityHandler{activity: activity, stream: stream}
}

type ingestEventsRequest struct {
	Events []types.EventInput `json:"events"`
}

func decodeEventInputs(raw []byte) ([]types.EventInput, error) {
	var env ingestEventsRequest
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Events) > 0 {
		return env.Events, nil
	}
	var arr []types.EventInput
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}
	var one types.EventInput
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []types.EventInput{one}, nil
}

// Ingest appends synchronously: when this returns 200 the batch is
// durable and visible through every index.
func (h *ActivityHandler) Ingest(c *gin.Context) {
	inputs, ok := h.readInputs(c)
	if !ok {
		return
	}
	events, err := h.activity.Ingest(c.Request.Context(), nil, inputs)
	if err != nil {
		respondIngestError(c, err)
		return
	}
	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	response.RespondOK(c, gin.H{
		"ok":       true,
		"ingested": len(ids),
		"ids":      ids,
	})
}

// Enqueue hands the batch to the analytics stream without waiting for
// the append. Durability starts when the worker commits, not here.
func (h *ActivityHandler) Enqueue(c *gin.Context) {
	if h.stream == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "stream_unconfigured", nil)
		return
	}
	inputs, ok := h.readInputs(c)
	if !ok {
		return
	}
	for _, in := range inputs {
		if err := h.stream.Publish(c.Request.Context(), in); err != nil {
			response.RespondError(c, http.StatusBadGateway, "enqueue_failed", err)
			return
		}
	}
	response.RespondOK(c, gin.H{
		"ok":       true,
		"enqueued": len(inputs),
	})
}

func (h *ActivityHandler) Query(c *gin.Context) {
	f := services.QueryFilter{Cursor: strings.TrimSpace(c.Query("cursor"))}
	if v, ok := queryParam(c, "type"); ok {
		f.EventType = &v
	}
	if v, ok := queryParam(c, "session"); ok {
		f.SessionID = &v
	}
	if v, ok := queryParam(c, "device"); ok {
		f.DeviceID = &v
	}
	if v, ok := queryParam(c, "user"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
			return
		}
		f.UserID = &id
	}
	if v, ok := queryParam(c, "limit"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		f.Limit = n
	}

	events, next, err := h.activity.Query(c.Request.Context(), nil, f)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			response.RespondError(c, http.StatusBadRequest, "invalid_query", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "query_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"events":      events,
		"next_cursor": next,
	})
}

func (h *ActivityHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_event_id", err)
		return
	}
	ev, err := h.activity.Get(c.Request.Context(), nil, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	if ev == nil {
		response.RespondError(c, http.StatusNotFound, "event_not_found", nil)
		return
	}
	response.RespondOK(c, ev)
}

func (h *ActivityHandler) Scan(c *gin.Context) {
	parse := func(name string) (int64, bool) {
		v := strings.TrimSpace(c.Query(name))
		if v == "" {
			return 0, true
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_"+name, err)
			return 0, false
		}
		return n, true
	}
	fromID, ok := parse("from")
	if !ok {
		return
	}
	toID, ok := parse("to")
	if !ok {
		return
	}
	limit64, ok := parse("limit")
	if !ok {
		return
	}
	events, err := h.activity.Scan(c.Request.Context(), nil, fromID, toID, int(limit64))
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "scan_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}

func (h *ActivityHandler) readInputs(c *gin.Context) ([]types.EventInput, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20)
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return nil, false
	}
	if len(raw) == 0 {
		response.RespondError(c, http.StatusBadRequest, "empty_body", nil)
		return nil, false
	}
	inputs, err := decodeEventInputs(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return nil, false
	}
	if len(inputs) == 0 {
		response.RespondError(c, http.StatusBadRequest, "no_events", nil)
		return nil, false
	}
	return inputs, true
}

func respondIngestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		response.RespondError(c, http.StatusBadRequest, "event_invalid", err)
	case errors.Is(err, apperr.ErrReferential):
		response.RespondError(c, http.StatusUnprocessableEntity, "user_not_found", err)
	default:
		response.RespondError(c, http.StatusInternalServerError, "event_ingest_failed", err)
	}
}

func queryParam(c *gin.Context, name string) (string, bool) {
	v := strings.TrimSpace(c.Query(name))
	return v, v != ""
}
