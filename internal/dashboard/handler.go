package dashboard

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/go-logr/logr"
)

// Entry is the JSON form of one table value.
type Entry struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type editRequest struct {
	Value *float64 `json:"value"`
}

// NewHandler exposes the table over HTTP:
//
//	GET /values          all entries
//	GET /values/{label}  one entry
//	PUT /values/{label}  {"value": 2.5}, applied with Table.Set
//
// Labels may contain slashes (tab prefixes). PUT only edits published labels.
func NewHandler(t *Table, log logr.Logger) http.Handler {
	h := &handler{table: t, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /values", h.list)
	mux.HandleFunc("GET /values/{label...}", h.get)
	mux.HandleFunc("PUT /values/{label...}", h.put)
	return mux
}

type handler struct {
	table *Table
	log   logr.Logger
}

func (h *handler) list(w http.ResponseWriter, _ *http.Request) {
	labels := h.table.Labels()
	out := make([]Entry, 0, len(labels))
	for _, l := range labels {
		if v, ok := h.table.Get(l); ok {
			out = append(out, Entry{Label: l, Value: v})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	label := r.PathValue("label")
	v, ok := h.table.Get(label)
	if !ok {
		writeError(w, http.StatusNotFound, ErrUnknownLabel)
		return
	}
	writeJSON(w, http.StatusOK, Entry{Label: label, Value: v})
}

func (h *handler) put(w http.ResponseWriter, r *http.Request) {
	label := r.PathValue("label")
	if _, ok := h.table.Get(label); !ok {
		writeError(w, http.StatusNotFound, ErrUnknownLabel)
		return
	}
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, errors.New("missing value"))
		return
	}
	if math.IsNaN(*req.Value) || math.IsInf(*req.Value, 0) {
		writeError(w, http.StatusBadRequest, errors.New("value must be finite"))
		return
	}
	h.table.Set(label, *req.Value)
	h.log.V(1).Info("remote edit", "label", label, "value", *req.Value, "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, Entry{Label: label, Value: *req.Value})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
