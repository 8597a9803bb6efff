package httpapi

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
)

func (h *Handler) ListLiveFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLiveFixtures")
	defer span.End()

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.liveData.ListLiveFixtures(ctx, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list live fixtures failed", "limit", limit, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]liveFixtureDTO, 0, len(items))
	for _, item := range items {
		out = append(out, liveFixtureToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetLiveOdds(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLiveOdds")
	defer span.End()

	fixtureID, err := pathInt64(r, "fixtureID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	annotate(ctx, attribute.Int64("fixture_id", fixtureID))

	item, err := h.liveData.GetLiveOdds(ctx, fixtureID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, liveOddsToDTO(item))
}
