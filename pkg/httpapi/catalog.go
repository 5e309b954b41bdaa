package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"bakeshop/pkg/catalog"
)

// listCatalog serves the whole shelf or the items matching ?category= and ?q=.
func (s *Server) listCatalog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	items := s.catalog.List()

	if raw := strings.TrimSpace(query.Get("category")); raw != "" {
		category, err := catalog.ParseCategory(raw)
		if err != nil {
			s.respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		items = s.catalog.ByCategory(category)
	}
	if q := strings.TrimSpace(query.Get("q")); q != "" {
		matched := make(map[string]bool)
		for _, item := range s.catalog.Search(q) {
			matched[item.ID] = true
		}
		filtered := items[:0]
		for _, item := range items {
			if matched[item.ID] {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.catalog.Counts())
}

func (s *Server) getCatalogItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.catalog.Get(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.respondError(w, err.Error(), http.StatusNotFound)
			return
		}
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}
