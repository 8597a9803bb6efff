package httpapi

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
)

func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSources")
	defer span.End()

	items, err := h.reconciler.ListSources(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list sources failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]sourceDTO, 0, len(items))
	for _, item := range items {
		out = append(out, sourceToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) EnableSource(w http.ResponseWriter, r *http.Request) {
	h.setSourceEnabled(w, r, true)
}

func (h *Handler) DisableSource(w http.ResponseWriter, r *http.Request) {
	h.setSourceEnabled(w, r, false)
}

func (h *Handler) setSourceEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetSourceEnabled")
	defer span.End()

	sourceID, err := pathInt64(r, "sourceID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	annotate(ctx, attribute.Int64("source_id", sourceID))

	item, err := h.reconciler.SetEnabled(ctx, sourceID, enabled)
	if err != nil {
		h.logger.WarnContext(ctx, "set source enabled failed", "source_id", sourceID, "enabled", enabled, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, sourceToDTO(item))
}

func (h *Handler) RestartSource(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RestartSource")
	defer span.End()

	sourceID, err := pathInt64(r, "sourceID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	annotate(ctx, attribute.Int64("source_id", sourceID))

	item, err := h.reconciler.Restart(ctx, sourceID)
	if err != nil {
		h.logger.WarnContext(ctx, "restart source failed", "source_id", sourceID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, sourceToDTO(item))
}

// ListSourceDispatches returns the most recent reconcile dispatches of a
// source, newest first.
func (h *Handler) ListSourceDispatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSourceDispatches")
	defer span.End()

	sourceID, err := pathInt64(r, "sourceID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	annotate(ctx, attribute.Int64("source_id", sourceID))

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.reconciler.ListDispatches(ctx, sourceID, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list source dispatches failed", "source_id", sourceID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]dispatchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, dispatchToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
