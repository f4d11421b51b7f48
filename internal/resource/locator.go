package resource

import (
	"fmt"
	"net/url"

	"github.com/paideia-dao/paideia-site/pkg/urlutil"
)

// Locator maps keys to upstream URLs on the two API bases.
type Locator struct {
	contentBase url.URL
	priceBase   url.URL
}

func NewLocator(contentBase, priceBase url.URL) Locator {
	return Locator{
		contentBase: urlutil.Canonicalize(contentBase),
		priceBase:   urlutil.Canonicalize(priceBase),
	}
}

func (l Locator) ContentBase() url.URL {
	return l.contentBase
}

func (l Locator) PriceBase() url.URL {
	return l.priceBase
}

func (l Locator) URL(key Key) (url.URL, error) {
	switch key.Kind() {
	case KindAssetPrice:
		return urlutil.JoinPath(l.priceBase, "asset", "price", url.PathEscape(key.Param())), nil
	case KindArticleList:
		u := urlutil.JoinPath(l.contentBase, "blogs/")
		if key.Param() == "education" {
			u.RawQuery = url.Values{"education_only": []string{"true"}}.Encode()
		} else if key.Param() != "" {
			u.RawQuery = url.Values{"category": []string{key.Param()}}.Encode()
		}
		return u, nil
	case KindFAQList:
		return urlutil.JoinPath(l.contentBase, "faq/"), nil
	default:
		return url.URL{}, fmt.Errorf("%w: %v", ErrUnknownKey, key)
	}
}
