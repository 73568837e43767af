package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinPath(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{nil, "/"},
		{[]string{""}, "/"},
		{[]string{"api", "items"}, "/api/items"},
		{[]string{"/api/", "/download/", "42"}, "/api/download/42"},
		{[]string{"folder", "", "abc"}, "/folder/abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, JoinPath(tt.parts...), "parts=%v", tt.parts)
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0.0 B"},
		{1023, "1023.0 B"},
		{1024, "1.0 kB"},
		{12 * 1024 * 1024, "12.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanSize(tt.n))
	}
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{}, SplitPath("/"))
	assert.Equal(t, []string{"folder", "abc"}, SplitPath("/folder/abc"))
	assert.Equal(t, []string{"folder", "abc"}, SplitPath("folder//abc/"))
	assert.Equal(t, SplitPath(JoinPath("a", "b", "c")), []string{"a", "b", "c"})
}
