package server

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/paideia-dao/paideia-site/internal/accordion"
	"github.com/paideia-dao/paideia-site/internal/render"
	"github.com/paideia-dao/paideia-site/internal/resource"
	"github.com/paideia-dao/paideia-site/internal/swr"
	"github.com/paideia-dao/paideia-site/internal/viewmodel"
	"github.com/paideia-dao/paideia-site/pkg/hashutil"
)

const (
	LandingPath   = "/"
	EducationPath = "/education"
)

// RenderLanding renders the landing page with whatever price is available
// within the render wait.
func (s *Server) RenderLanding(ctx context.Context) ([]byte, error) {
	entries := s.loadAll(ctx, s.priceKey)
	price := s.priceView(entries[s.priceKey])

	return renderBytes(ctx, render.Page("Paideia", render.LandingPage(render.LandingData{
		Price: price,
		Stats: viewmodel.BuildStats(price),
	})))
}

// RenderEducation renders the education page. faqQuery is the raw value of
// the faq query parameter and selects the expanded panel.
func (s *Server) RenderEducation(ctx context.Context, faqQuery string) ([]byte, error) {
	entries := s.loadAll(ctx, s.articleListKey, s.faqListKey)

	var articles []viewmodel.ArticleView
	if list, ok := swr.Value[[]resource.ArticleSummary](entries[s.articleListKey]); ok {
		articles = s.articles.BuildAll(list)
	}
	var faq []viewmodel.FAQView
	if list, ok := swr.Value[[]resource.FAQEntry](entries[s.faqListKey]); ok {
		faq = viewmodel.BuildFaqView(list)
	}

	return renderBytes(ctx, render.Page("Paideia | Education", render.EducationPage(render.EducationData{
		Articles: articles,
		FAQ:      faq,
		FAQState: accordion.FromQuery(faqQuery, viewmodel.PanelIDs(faq)),
		PagePath: EducationPath,
	})))
}

func (s *Server) priceView(e swr.Entry) string {
	p, _ := swr.Value[*resource.PricePayload](e)
	return viewmodel.BuildPriceView(p)
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	body, err := s.RenderLanding(r.Context())
	s.writePage(w, r, body, err)
}

func (s *Server) handleEducation(w http.ResponseWriter, r *http.Request) {
	body, err := s.RenderEducation(r.Context(), r.URL.Query().Get(accordion.QueryParam))
	s.writePage(w, r, body, err)
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, body []byte, err error) {
	if err != nil {
		s.logger.Error("render page",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	etag := ETag(body)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if matchesETag(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// ETag is the strong entity tag of a rendered page: a truncated BLAKE3
// digest of its bytes.
func ETag(body []byte) string {
	sum, _ := hashutil.HashBytes(body, hashutil.HashAlgoBLAKE3)
	return `"` + sum[:32] + `"`
}

func matchesETag(header string, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func renderBytes(ctx context.Context, c templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
