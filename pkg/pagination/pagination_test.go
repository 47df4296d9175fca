package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", query: "", wantLimit: DefaultLimit, wantOffset: 0},
		{name: "explicit values", query: "?limit=10&offset=40", wantLimit: 10, wantOffset: 40},
		{name: "limit clamped to max", query: "?limit=5000", wantLimit: MaxLimit, wantOffset: 0},
		{name: "negative values ignored", query: "?limit=-5&offset=-10", wantLimit: DefaultLimit, wantOffset: 0},
		{name: "malformed values ignored", query: "?limit=abc&offset=xyz", wantLimit: DefaultLimit, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ledger"+tt.query, nil)
			p := FromRequest(r)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestMetaFor(t *testing.T) {
	m := MetaFor(Page{Limit: 25, Offset: 50}, 123)
	assert.Equal(t, 25, m.Limit)
	assert.Equal(t, 50, m.Offset)
	assert.Equal(t, int64(123), m.Total)
}
