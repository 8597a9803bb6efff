package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/usecase"
	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel/attribute"
)

var internalJobDispatchUnsafeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// RunReconcileJob polls one source. A failure already recorded on the source
// answers 200 so the queue does not retry; the next run is scheduled by backoff.
func (h *Handler) RunReconcileJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunReconcileJob")
	defer span.End()

	var req usecase.ReconcileJobPayload
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if strings.TrimSpace(req.DispatchID) == "" {
		req.DispatchID = buildManualDispatchID(usecase.JobNameReconcile, strconv.FormatInt(req.SourceID, 10), time.Now())
	}
	annotate(ctx, attribute.Int64("source_id", req.SourceID), attribute.String("dispatch_id", req.DispatchID))

	outcome, err := h.reconciler.RunReconcileJob(ctx, req)
	if err != nil {
		if usecase.IsRecordedFailure(err) {
			h.logger.WarnContext(ctx, "reconcile job failed", "source_id", req.SourceID, "dispatch_id", req.DispatchID, "error", err)
			writeSuccess(ctx, w, http.StatusOK, outcome)
			return
		}
		h.logger.ErrorContext(ctx, "reconcile job errored", "source_id", req.SourceID, "dispatch_id", req.DispatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, outcome)
}

func (h *Handler) RunScheduleDueJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunScheduleDueJob")
	defer span.End()

	result, err := h.reconciler.ScheduleDueSources(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "schedule due sources failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunDueJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunDueJob")
	defer span.End()

	result, err := h.reconciler.RunDueSources(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run due sources failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunCheckStalledJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunCheckStalledJob")
	defer span.End()

	result, err := h.reconciler.CheckStalled(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "check stalled sources failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, result)
}

// RunBootstrapJob registers the default fixture and odds sources.
func (h *Handler) RunBootstrapJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunBootstrapJob")
	defer span.End()

	items, err := h.reconciler.RegisterDefaults(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "bootstrap sources failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]sourceDTO, 0, len(items))
	for _, item := range items {
		out = append(out, sourceToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

// decodeJSONBody treats an empty body as the zero value.
func decodeJSONBody(r *http.Request, dst any) error {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func buildManualDispatchID(jobName, key string, now time.Time) string {
	ts := now.UTC().Format("20060102T150405.000000000Z")
	return "manual-" + sanitizeDispatchPart(jobName) + "-" + sanitizeDispatchPart(key) + "-" + ts
}

func sanitizeDispatchPart(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return internalJobDispatchUnsafeRegex.ReplaceAllString(value, "-")
}
