package domain

import "encoding/json"

// Page is the canonical list shape. The API answers list endpoints with
// either a bare JSON array or a {data,total,page,pageSize} envelope;
// both decode into a Page so callers never branch on response shape.
type Page[T any] struct {
	Items    []T `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

func (p *Page[T]) UnmarshalJSON(b []byte) error {
	trimmed := firstNonSpace(b)
	if trimmed == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*p = Page[T]{Items: items, Total: len(items)}
		return nil
	}
	type envelope Page[T]
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	*p = Page[T](env)
	if p.Total == 0 {
		p.Total = len(p.Items)
	}
	return nil
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c
	}
	return 0
}
