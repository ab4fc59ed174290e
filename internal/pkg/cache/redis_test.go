package cache

import "testing"

func TestImageCacheKey(t *testing.T) {
	tests := []struct {
		keyword string
		want    string
	}{
		{"Coffee Beans", "img:pexels:coffee beans"},
		{"  coffee   beans ", "img:pexels:coffee beans"},
		{"", "img:pexels:"},
	}
	for _, tt := range tests {
		if got := ImageCacheKey("pexels", tt.keyword); got != tt.want {
			t.Errorf("ImageCacheKey(%q) = %q, want %q", tt.keyword, got, tt.want)
		}
	}
}
