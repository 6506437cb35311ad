package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/eugenenazirov/box-optimizer/internal/catalog"
	"github.com/eugenenazirov/box-optimizer/internal/optimizer"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires the optimizer parameters and catalogue storage into HTTP handlers.
type Handler struct {
	params  optimizer.Params
	storage catalog.Storage

	clock func() time.Time

	mu             sync.RWMutex
	itemsUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(params optimizer.Params, store catalog.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		params:  params,
		storage: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.itemsUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetItems(w http.ResponseWriter, r *http.Request) {
	_ = r
	items, err := h.storage.GetItems()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := itemsResponse{
		Items:     toItemPayloads(items),
		UpdatedAt: h.currentItemsUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutItems(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid catalogue", "items must contain at least one SKU")
		return
	}

	items := make([]optimizer.Item, 0, len(req.Items))
	for _, p := range req.Items {
		items = append(items, optimizer.NewItem(p.ID, p.Length, p.Width, p.Height, p.Quantity))
	}

	if err := h.storage.SetItems(items); err != nil {
		if errors.Is(err, catalog.ErrInvalidItems) {
			writeError(w, http.StatusBadRequest, "Invalid catalogue", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markItemsUpdated()

	resp := itemsResponse{
		Items:     req.Items,
		UpdatedAt: h.currentItemsUpdatedAt(),
		Message:   "Catalogue updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	items, err := h.storage.GetItems()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	params := h.params
	if len(req.Percentiles) > 0 {
		params.Percentiles = req.Percentiles
	}
	if req.OutlierPenalty != nil {
		params.OutlierPenalty = *req.OutlierPenalty
	}
	if req.SafetyContainer != nil {
		params.SafetyContainer = *req.SafetyContainer
	}

	start := time.Now()
	candidate, optErr := optimizer.New(params).Optimize(items)
	elapsed := time.Since(start)

	if optErr != nil {
		switch {
		case errors.Is(optErr, optimizer.ErrInvalidPercentiles),
			errors.Is(optErr, optimizer.ErrInvalidPenalty),
			errors.Is(optErr, optimizer.ErrInvalidContainers):
			writeError(w, http.StatusUnprocessableEntity, "Invalid parameters", optErr.Error())
		case errors.Is(optErr, optimizer.ErrInvalidItem):
			writeError(w, http.StatusInternalServerError, "Internal error", optErr.Error())
		default:
			writeInternalError(w, optErr)
		}
		return
	}

	resp := optimizeResponse{
		Percentile:        candidate.Percentile,
		MeanVoidFillPct:   candidate.MeanVoidFillPct,
		OutlierRatePct:    candidate.OutlierRatePct,
		Score:             candidate.Score,
		Containers:        toContainerPayloads(candidate, items),
		OutlierSKUs:       outlierSKUs(candidate.Evaluation, items),
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// toContainerPayloads builds the per-container usage view: assigned SKU ids,
// assigned unit count and quantity-weighted average void fill, derived from
// the candidate's final evaluation.
func toContainerPayloads(candidate optimizer.Candidate, items []optimizer.Item) []containerPayload {
	out := make([]containerPayload, 0, len(candidate.Containers))
	for _, c := range candidate.Containers {
		payload := containerPayload{
			ID:     c.ID,
			Length: c.Dims[0],
			Width:  c.Dims[1],
			Height: c.Dims[2],
			Volume: c.Volume,
			SKUs:   []string{},
		}

		units := 0
		voidFillSum := 0.0
		for _, idx := range candidate.Evaluation.AssignedTo(c.ID) {
			item := items[idx]
			payload.SKUs = append(payload.SKUs, item.ID)
			units += item.Quantity
			voidFillSum += c.VoidFillPct(item) * float64(item.Quantity)
		}
		payload.AssignedUnits = units
		if units > 0 {
			payload.AvgVoidFillPct = voidFillSum / float64(units)
		}

		out = append(out, payload)
	}
	return out
}

func outlierSKUs(eval optimizer.Evaluation, items []optimizer.Item) []string {
	out := []string{}
	for _, idx := range eval.Outliers() {
		out = append(out, items[idx].ID)
	}
	return out
}

func toItemPayloads(items []optimizer.Item) []itemPayload {
	out := make([]itemPayload, 0, len(items))
	for _, item := range items {
		out = append(out, itemPayload{
			ID:       item.ID,
			Length:   item.Raw[0],
			Width:    item.Raw[1],
			Height:   item.Raw[2],
			Quantity: item.Quantity,
		})
	}
	return out
}

func (h *Handler) currentItemsUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.itemsUpdatedAt
}

func (h *Handler) markItemsUpdated() {
	h.mu.Lock()
	h.itemsUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type itemPayload struct {
	ID       string  `json:"id"`
	Length   float64 `json:"length"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Quantity int     `json:"quantity"`
}

type itemsRequest struct {
	Items []itemPayload `json:"items"`
}

type itemsResponse struct {
	Items     []itemPayload `json:"items"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Message   string        `json:"message,omitempty"`
}

type optimizeRequest struct {
	Percentiles     []int    `json:"percentiles,omitempty"`
	OutlierPenalty  *float64 `json:"outlierPenalty,omitempty"`
	SafetyContainer *bool    `json:"safetyContainer,omitempty"`
}

type containerPayload struct {
	ID             string   `json:"id"`
	Length         float64  `json:"length"`
	Width          float64  `json:"width"`
	Height         float64  `json:"height"`
	Volume         float64  `json:"volume"`
	SKUs           []string `json:"skus"`
	AssignedUnits  int      `json:"assignedUnits"`
	AvgVoidFillPct float64  `json:"avgVoidFillPct"`
}

type optimizeResponse struct {
	Percentile        int                `json:"percentile"`
	MeanVoidFillPct   float64            `json:"meanVoidFillPct"`
	OutlierRatePct    float64            `json:"outlierRatePct"`
	Score             float64            `json:"score"`
	Containers        []containerPayload `json:"containers"`
	OutlierSKUs       []string           `json:"outlierSkus"`
	CalculationTimeMs int64              `json:"calculationTimeMs"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
