package resource

import (
	"fmt"
	"strings"
	"time"
)

// Kind enumerates the resources the site knows how to fetch.
type Kind int

const (
	KindAssetPrice Kind = iota + 1
	KindArticleList
	KindFAQList
)

func (k Kind) String() string {
	switch k {
	case KindAssetPrice:
		return "asset-price"
	case KindArticleList:
		return "article-list"
	case KindFAQList:
		return "faq-list"
	default:
		return "unknown"
	}
}

// Key identifies one cacheable resource. The zero Key is invalid.
// Keys are comparable and safe to use as map keys.
type Key struct {
	kind  Kind
	param string
}

// AssetPrice is the key of the price of the given asset symbol.
func AssetPrice(symbol string) Key {
	return Key{kind: KindAssetPrice, param: strings.ToLower(strings.TrimSpace(symbol))}
}

// ArticleList is the key of the article list for a category.
// An empty category means every article.
func ArticleList(category string) Key {
	return Key{kind: KindArticleList, param: strings.ToLower(strings.TrimSpace(category))}
}

func FAQList() Key {
	return Key{kind: KindFAQList}
}

func (k Key) Kind() Kind {
	return k.kind
}

func (k Key) Param() string {
	return k.param
}

func (k Key) IsZero() bool {
	return k.kind == 0
}

func (k Key) String() string {
	switch k.kind {
	case KindFAQList:
		return k.kind.String()
	case KindAssetPrice, KindArticleList:
		return k.kind.String() + ":" + k.param
	default:
		return ""
	}
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	name, param, hasParam := strings.Cut(s, ":")
	switch name {
	case KindFAQList.String():
		if hasParam {
			return Key{}, fmt.Errorf("%w: %q takes no parameter", ErrUnknownKey, s)
		}
		return FAQList(), nil
	case KindAssetPrice.String():
		if param == "" {
			return Key{}, fmt.Errorf("%w: %q is missing the asset symbol", ErrUnknownKey, s)
		}
		return AssetPrice(param), nil
	case KindArticleList.String():
		if !hasParam {
			return Key{}, fmt.Errorf("%w: %q is missing the category", ErrUnknownKey, s)
		}
		return ArticleList(param), nil
	default:
		return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}
}

// PricePayload is the body of the price endpoint.
type PricePayload struct {
	Price *float64 `json:"price" validate:"required,gte=0"`
}

// Value returns the price, or zero when absent.
func (p *PricePayload) Value() float64 {
	if p == nil || p.Price == nil {
		return 0
	}
	return *p.Price
}

// ArticleSummary is one entry of the articles endpoint.
type ArticleSummary struct {
	Name        string `json:"name" validate:"required"`
	ImgURL      string `json:"img_url,omitempty"`
	Description string `json:"description"`
	Link        string `json:"link" validate:"required"`
	Category    string `json:"category,omitempty"`
	Date        Date   `json:"date"`
}

// FAQEntry is one entry of the FAQ endpoint. Answer is markdown.
type FAQEntry struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// Date is a calendar timestamp that tolerates the formats the content API
// has used over time. Unparsable values decode to the zero Date.
type Date struct {
	time.Time
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}
		}
	}
	return Date{}
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Date{}
		return nil
	}
	*d = ParseDate(strings.Trim(s, `"`))
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(time.RFC3339) + `"`), nil
}
