package utils

import "testing"

func TestResolvePage(t *testing.T) {
	intPtr := func(v int) *int { return &v }

	tests := []struct {
		name       string
		offset     *int
		limit      *int
		wantOffset int
		wantLimit  int
	}{
		{"nil values use defaults", nil, nil, 0, defaultPageSize},
		{"explicit bounds pass through", intPtr(40), intPtr(50), 40, 50},
		{"negative offset falls back", intPtr(-5), intPtr(10), 0, 10},
		{"zero limit falls back", intPtr(0), intPtr(0), 0, defaultPageSize},
		{"oversized limit is capped", nil, intPtr(5000), 0, maxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := ResolvePage(tt.offset, tt.limit)
			if page.Offset != tt.wantOffset {
				t.Errorf("offset = %d, want %d", page.Offset, tt.wantOffset)
			}
			if page.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", page.Limit, tt.wantLimit)
			}
		})
	}
}
