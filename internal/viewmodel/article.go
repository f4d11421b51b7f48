package viewmodel

import (
	"fmt"

	"github.com/paideia-dao/paideia-site/internal/resource"
	"github.com/paideia-dao/paideia-site/pkg/hashutil"
	"github.com/paideia-dao/paideia-site/pkg/urlutil"
)

const (
	DefaultLinkNamespace      = "/blog/"
	DefaultPlaceholderPool    = 18
	DefaultPlaceholderPattern = "/images/placeholder/%d.jpg"
	articleDateLayout         = "Jan 02 2006"
)

type ArticleView struct {
	Title       string
	ImageURL    string
	Description string
	Link        string
	Category    string
	Date        string
}

// ArticleBuilder turns article summaries into card records.
type ArticleBuilder struct {
	namespace          string
	placeholderPool    int
	placeholderPattern string
}

func NewArticleBuilder(namespace string, placeholderPool int, placeholderPattern string) ArticleBuilder {
	if placeholderPool < 1 {
		placeholderPool = DefaultPlaceholderPool
	}
	if placeholderPattern == "" {
		placeholderPattern = DefaultPlaceholderPattern
	}
	return ArticleBuilder{
		namespace:          namespace,
		placeholderPool:    placeholderPool,
		placeholderPattern: placeholderPattern,
	}
}

func DefaultArticleBuilder() ArticleBuilder {
	return NewArticleBuilder(DefaultLinkNamespace, DefaultPlaceholderPool, DefaultPlaceholderPattern)
}

func (b ArticleBuilder) Build(a resource.ArticleSummary) ArticleView {
	view := ArticleView{
		Title:       a.Name,
		ImageURL:    b.image(a),
		Description: plainText(a.Description),
		Link:        urlutil.NamespacePath(b.namespace, a.Link),
		Category:    a.Category,
	}
	if !a.Date.IsZero() {
		view.Date = a.Date.Format(articleDateLayout)
	}
	return view
}

// BuildAll keeps source order and drops records without a name or link.
func (b ArticleBuilder) BuildAll(list []resource.ArticleSummary) []ArticleView {
	views := make([]ArticleView, 0, len(list))
	for _, a := range list {
		if !resource.Valid(a) {
			continue
		}
		views = append(views, b.Build(a))
	}
	return views
}

// image uses the payload URL when it starts with "/" or "https://",
// otherwise a placeholder
// chosen by hashing the article's link and name, so the same article
// always gets the same picture.
func (b ArticleBuilder) image(a resource.ArticleSummary) string {
	if urlutil.IsRootedOrHTTPS(a.ImgURL) {
		return a.ImgURL
	}
	return b.Placeholder(a.Link, a.Name)
}

// Placeholder returns the placeholder image for an article identity.
func (b ArticleBuilder) Placeholder(link, name string) string {
	return fmt.Sprintf(b.placeholderPattern, 1+hashutil.Bucket(b.placeholderPool, link, name))
}
