package main

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"detection", []string{"detection"}},
		{" detection , trajectory,,text ", []string{"detection", "trajectory", "text"}},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultOutputPath(t *testing.T) {
	got := defaultOutputPath(filepath.Join("input", "manifests", "match day.yaml"))
	if filepath.Dir(got) != "output" {
		t.Errorf("dir = %s", filepath.Dir(got))
	}
	base := filepath.Base(got)
	if !strings.HasPrefix(base, "match_day_") || filepath.Ext(base) != ".mp4" {
		t.Errorf("name = %s", base)
	}
}
