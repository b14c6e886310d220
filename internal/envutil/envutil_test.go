package envutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDev(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"development", true},
		{"dev", true},
		{"DEV", true},
		{"Development", true},
		{"production", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("value "+tt.value, func(t *testing.T) {
			t.Setenv("EGGSPLAIN_FRONT_ENV", tt.value)
			assert.Equal(t, tt.want, IsDev())
		})
	}
}

func TestIsTrue(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"false", false},
		{"0", false},
		{"", false},
		{"enabled", false},
	}

	for _, tt := range tests {
		t.Run("value "+tt.value, func(t *testing.T) {
			t.Setenv("SOME_FLAG", tt.value)
			assert.Equal(t, tt.want, IsTrue("SOME_FLAG"))
		})
	}
}
