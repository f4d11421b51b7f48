package server

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/paideia-dao/paideia-site/internal/fetcher"
	"github.com/paideia-dao/paideia-site/internal/resource"
	"github.com/paideia-dao/paideia-site/internal/swr"
)

type priceResponse struct {
	Price  string `json:"price"`
	Status string `json:"status"`
}

type resourceResponse struct {
	Key           string `json:"key"`
	Status        string `json:"status"`
	HasData       bool   `json:"hasData"`
	LastFetchedAt string `json:"lastFetchedAt,omitempty"`
	Error         string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	entries := s.loadAll(r.Context(), s.priceKey)
	e := entries[s.priceKey]
	s.writeJSON(w, r, http.StatusOK, priceResponse{
		Price:  s.priceView(e),
		Status: e.Status.String(),
	})
}

func (s *Server) handleResourceList(w http.ResponseWriter, r *http.Request) {
	keys := s.cache.Keys()
	out := make([]resourceResponse, 0, len(keys))
	for _, key := range keys {
		out = append(out, toResourceResponse(s.cache.Peek(key)))
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	key, ok := s.pathKey(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, r, http.StatusOK, toResourceResponse(s.cache.Peek(key)))
}

func (s *Server) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	key, ok := s.pathKey(w, r)
	if !ok {
		return
	}
	s.cache.Revalidate(key)
	s.writeJSON(w, r, http.StatusAccepted, toResourceResponse(s.cache.Peek(key)))
}

func (s *Server) handleFocus(w http.ResponseWriter, _ *http.Request) {
	s.cache.Focus()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) pathKey(w http.ResponseWriter, r *http.Request) (resource.Key, bool) {
	key, err := resource.ParseKey(r.PathValue("key"))
	if err != nil {
		s.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "unknown resource key"})
		return resource.Key{}, false
	}
	return key, true
}

func toResourceResponse(e swr.Entry) resourceResponse {
	out := resourceResponse{
		Key:     e.Key.String(),
		Status:  e.Status.String(),
		HasData: e.HasData,
	}
	if !e.LastFetchedAt.IsZero() {
		out.LastFetchedAt = e.LastFetchedAt.UTC().Format(time.RFC3339)
	}
	switch {
	case e.Err == nil:
	case fetcher.IsNetworkError(e.Err):
		out.Error = fetcher.NetworkError.String()
	case fetcher.IsDecodeError(e.Err):
		out.Error = fetcher.DecodeError.String()
	default:
		out.Error = "unknown"
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		s.logger.Error("encode response",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
