package handlers

import (
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"
)

// ObjectSource is a blob backend that can hand stored objects back.
type ObjectSource interface {
	Object(key string) ([]byte, bool)
}

// BlobHandler serves objects for blob drivers that keep them in process.
type BlobHandler struct {
	source ObjectSource
}

func NewBlobHandler(source ObjectSource) *BlobHandler {
	return &BlobHandler{source: source}
}

func (h *BlobHandler) GetObject(w http.ResponseWriter, r *http.Request) {
	data, ok := h.source.Object(mux.Vars(r)["key"])
	if !ok {
		writeError(w, http.StatusNotFound, "object not found")
		return
	}
	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
