package job

import "testing"

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, size         int64
		wantPage, wantSize int64
	}{
		{0, 0, 1, 20},
		{-1, 500, 1, 20},
		{3, 50, 3, 50},
		{2, 200, 2, 200},
	}
	for _, tt := range tests {
		p, s := NormalizePage(tt.page, tt.size)
		if p != tt.wantPage || s != tt.wantSize {
			t.Errorf("NormalizePage(%d, %d) = %d, %d; want %d, %d", tt.page, tt.size, p, s, tt.wantPage, tt.wantSize)
		}
	}
}
