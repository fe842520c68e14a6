package rest

import (
	"net/http"
	"net/url"

	"github.com/syntrixbase/filecatalog/internal/catalog"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

func (h *Handler) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := model.ValidateFileID(id); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	rec, err := h.reader.FindByID(r.Context(), id)
	if err != nil {
		h.writeCatalogError(w, r, err)
		return
	}

	etag := rec.ETag()
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && (match == etag || match == "*") {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := decodeQuery[SearchRequest](r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	recs, err := h.searcher.Search(r.Context(), catalog.Query{
		Text:   req.FileName,
		Direct: req.Direct,
		Filter: req.Filter,
	})
	if err != nil {
		h.writeCatalogError(w, r, err)
		return
	}
	if recs == nil {
		recs = []*model.FileRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleTags serves the three tag routes. RESET answers 201 with the record,
// MERGE and DELETE answer 204.
func (h *Handler) handleTags(mode model.TagMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := model.ValidateFileID(id); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}

		tags, err := decodeTags(r)
		if err != nil {
			if isBodyTooLarge(err) {
				writeError(w, http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, "Request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}

		rec, err := h.mutator.Apply(r.Context(), id, tags, mode)
		if err != nil {
			h.writeCatalogError(w, r, err)
			return
		}

		h.logger.Debug("Tags applied", "id", rec.ID, "mode", mode, "subject", SubjectFromContext(r.Context()))

		if mode != model.TagModeReset {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Location", "/files/"+url.PathEscape(rec.ID))
		w.Header().Set("Access-Control-Expose-Headers", "Location")
		writeJSON(w, http.StatusCreated, rec)
	}
}
