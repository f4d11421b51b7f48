package resource

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode parses body into the payload shape of key. Price payloads must be
// complete; list payloads only need to be arrays. Elements that do not
// decode into a record are dropped, the rest are checked later with Valid.
func Decode(key Key, body []byte) (any, error) {
	switch key.Kind() {
	case KindAssetPrice:
		var p PricePayload
		if err := sonic.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
		if err := validate.Struct(&p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
		return &p, nil
	case KindArticleList:
		return decodeList[ArticleSummary](body)
	case KindFAQList:
		return decodeList[FAQEntry](body)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKey, key)
	}
}

func decodeList[T any](body []byte) ([]T, error) {
	var raw []json.RawMessage
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected an array", ErrMalformedBody)
	}
	list := make([]T, 0, len(raw))
	for _, elem := range raw {
		var record T
		if err := sonic.Unmarshal(elem, &record); err != nil {
			continue
		}
		list = append(list, record)
	}
	return list, nil
}

// Valid reports whether a decoded record satisfies its shape constraints.
func Valid(record any) bool {
	return validate.Struct(record) == nil
}
