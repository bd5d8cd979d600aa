package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"go-calculator/internal/engine"
	"go-calculator/internal/handlers"
	"go-calculator/internal/keypad"
	"go-calculator/internal/observability"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

// Handler serves calculator sessions over HTTP.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// ---------------------------------------------------------------------------
// Handlers — session lifecycle
// ---------------------------------------------------------------------------

// Keypad handles GET /calculator/keypad
func (h *Handler) Keypad(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, KeypadResponse{Keys: keypad.Layout()})
}

// CreateSession handles POST /calculator/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)

	ctx, span := tracer.Start(ctx, "calculator.session.create")
	defer span.End()

	s, err := h.store.Create()
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "create_session", "session limit reached", err, http.StatusServiceUnavailable, w)
		return
	}

	sessionsUpDown.Add(ctx, 1)
	span.SetAttributes(attribute.String("calculator.session.id", s.ID))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator session created",
		zap.String("session_id", s.ID),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	display, state := s.Snapshot()
	handlers.WriteJSON(w, http.StatusCreated, SessionResponse{
		ID:      s.ID,
		Display: display,
		State:   newStateView(state),
	})
}

// GetSession handles GET /calculator/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(ctx, "calculator.session.get",
		trace.WithAttributes(attribute.String("calculator.session.id", id)),
	)
	defer span.End()

	s, err := h.store.Get(id)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "get_session", "session not found", err, http.StatusNotFound, w)
		return
	}

	display, state := s.Snapshot()
	handlers.WriteJSON(w, http.StatusOK, SessionResponse{
		ID:      s.ID,
		Display: display,
		State:   newStateView(state),
	})
}

// DeleteSession handles DELETE /calculator/sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(ctx, "calculator.session.delete",
		trace.WithAttributes(attribute.String("calculator.session.id", id)),
	)
	defer span.End()

	if err := h.store.Delete(id); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "delete_session", "session not found", err, http.StatusNotFound, w)
		return
	}

	sessionsUpDown.Add(ctx, -1)
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator session deleted",
		zap.String("session_id", id),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Handler — button presses (one child span per press)
// ---------------------------------------------------------------------------

// Press handles POST /calculator/sessions/{id}/press — feeds every button
// to the session's engine in order, creating a child span per press.
func (h *Handler) Press(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	id := chi.URLParam(r, "id")

	// Parent span for the whole request
	ctx, span := tracer.Start(ctx, "calculator.press_sequence",
		trace.WithAttributes(
			attribute.String("calculator.session.id", id),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req PressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "press", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	buttons, err := parsePressRequest(req)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "press", err.Error(), err, http.StatusBadRequest, w)
		return
	}

	s, err := h.store.Get(id)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "press", "session not found", err, http.StatusNotFound, w)
		return
	}

	span.SetAttributes(attribute.Int("calculator.press.count", len(buttons)))

	presses := make([]PressResult, 0, len(buttons))
	for i, b := range buttons {
		// --- Child span per press ---
		_, pressSpan := tracer.Start(ctx, "calculator.press",
			trace.WithAttributes(
				attribute.Int("calculator.press.index", i),
				attribute.String("calculator.button", b.String()),
			),
		)

		start := time.Now()
		display, evals := s.Press(b)
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms

		attrs := metric.WithAttributes(attribute.String("button", b.String()))
		pressCounter.Add(ctx, 1, attrs)
		pressHistogram.Record(ctx, elapsed, attrs)

		for _, ev := range evals {
			recordEvaluation(ctx, pressSpan, logger, ev)
		}

		pressSpan.SetAttributes(attribute.String("calculator.display", display))
		pressSpan.SetStatus(codes.Ok, "")
		pressSpan.End()

		logger.Debug("button pressed",
			zap.String("session_id", id),
			zap.Int("index", i),
			zap.String("button", b.String()),
			zap.String("display", display),
			zap.Float64("duration_ms", elapsed),
		)

		presses = append(presses, PressResult{Button: b.String(), Display: display})
	}

	display, state := s.Snapshot()

	span.AddEvent("press_sequence.complete", trace.WithAttributes(
		attribute.String("display", display),
		attribute.Int("presses", len(buttons)),
	))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator presses applied",
		zap.String("session_id", id),
		zap.Int("presses", len(buttons)),
		zap.String("display", display),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusOK, PressResponse{
		ID:      id,
		Presses: presses,
		Display: display,
		State:   newStateView(state),
	})
}

var errNoButtons = errors.New("no buttons provided")

func parsePressRequest(req PressRequest) ([]engine.Button, error) {
	buttons := make([]engine.Button, 0, len(req.Buttons))
	for _, name := range req.Buttons {
		b, err := keypad.Parse(name)
		if err != nil {
			return nil, err
		}
		buttons = append(buttons, b)
	}

	if req.Sequence != "" {
		seq, err := keypad.ParseSequence(req.Sequence)
		if err != nil {
			return nil, err
		}
		buttons = append(buttons, seq...)
	}

	if len(buttons) == 0 {
		return nil, errNoButtons
	}
	return buttons, nil
}

// recordEvaluation attaches one arithmetic step to the press span, the
// evaluation metrics and the log.
func recordEvaluation(ctx context.Context, span trace.Span, logger *zap.Logger, ev engine.Evaluation) {
	attrs := metric.WithAttributes(
		attribute.String("operation", ev.Op.String()),
		attribute.Bool("repeat", ev.Repeat),
	)
	evalCounter.Add(ctx, 1, attrs)
	resultGauge.Record(ctx, ev.Result, metric.WithAttributes(attribute.String("operation", ev.Op.String())))

	span.AddEvent("evaluation.complete", trace.WithAttributes(
		attribute.String("operation", ev.Op.String()),
		attribute.Float64("left", ev.Left),
		attribute.Float64("right", ev.Right),
		attribute.Float64("result", ev.Result),
		attribute.Bool("repeat", ev.Repeat),
	))

	logger.Info("calculator evaluation completed",
		zap.String("operation", ev.Op.String()),
		zap.Float64("left", ev.Left),
		zap.Float64("right", ev.Right),
		zap.Float64("result", ev.Result),
		zap.Bool("repeat", ev.Repeat),
		zap.String("expression", fmt.Sprintf("%s %s %s = %s",
			engine.Format(ev.Left), ev.Op.Symbol(), engine.Format(ev.Right), engine.Format(ev.Result))),
	)
}
