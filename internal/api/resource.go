package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"siteledger/internal/ledger"
)

// resource is the one CRUD handler set shared by all four entity kinds,
// bound to a kind through the store's typed method values.
type resource[T ledger.Entity] struct {
	noun   string
	list   func() []T
	create func(T) (T, error)
	update func(string, T) (T, error)
	remove func(string) error
}

func mountResource[T ledger.Entity](r chi.Router, path string, res resource[T]) {
	r.Get(path, res.handleList)
	r.Post(path, res.handleCreate)
	r.Get(path+"/{id}", res.handleGet)
	r.Put(path+"/{id}", res.handleUpdate)
	r.Delete(path+"/{id}", res.handleDelete)
}

func (res resource[T]) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, res.list())
}

func (res resource[T]) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, v := range res.list() {
		if v.EntityID() == id {
			writeJSON(w, v)
			return
		}
	}
	httpError(w, http.StatusNotFound, "not_found", "%s not found", res.noun)
}

func (res resource[T]) handleCreate(w http.ResponseWriter, r *http.Request) {
	v, ok := res.decode(w, r)
	if !ok {
		return
	}

	out, err := res.create(v)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(out)
}

func (res resource[T]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, ok := res.decode(w, r)
	if !ok {
		return
	}

	out, err := res.update(id, v)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, out)
}

func (res resource[T]) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := res.remove(id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

// decode parses the request body and enforces the name requirement before
// the store is ever called; the store trusts its caller for field shapes.
func (res resource[T]) decode(w http.ResponseWriter, r *http.Request) (T, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return v, false
	}
	if strings.TrimSpace(v.DisplayName()) == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%s name is required", res.noun)
		return v, false
	}
	return v, true
}
