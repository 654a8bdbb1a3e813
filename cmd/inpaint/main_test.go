package main

import (
	"testing"

	"github.com/pixelmend/inpaint/internal/geometry"
)

func TestParseRegion(t *testing.T) {
	tests := []struct {
		spec    string
		want    geometry.Region
		wantErr bool
	}{
		{"10,20,30,40", geometry.Region{X: 10, Y: 20, Width: 30, Height: 40}, false},
		{" 1, 2, 3, 4 ", geometry.Region{X: 1, Y: 2, Width: 3, Height: 4}, false},
		{"-5,-5,30,30", geometry.Region{X: -5, Y: -5, Width: 30, Height: 30}, false},
		{"10,20,30", geometry.Region{}, true},
		{"a,b,c,d", geometry.Region{}, true},
		{"", geometry.Region{}, true},
	}
	for _, tt := range tests {
		got, err := parseRegion(tt.spec)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRegion(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseRegion(%q) = %+v, want %+v", tt.spec, got, tt.want)
		}
	}
}

func TestExtOf(t *testing.T) {
	tests := []struct{ path, want string }{
		{"photo.png", ".png"},
		{"dir/photo.jpeg", ".jpeg"},
		{"dir.with.dots/file", ""},
		{"noext", ""},
	}
	for _, tt := range tests {
		if got := extOf(tt.path); got != tt.want {
			t.Errorf("extOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
