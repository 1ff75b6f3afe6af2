package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-m", "local", "-x", "ignored"},
			allowed: []string{"-m"},
			want:    []string{"-m", "local"},
		},
		{
			name:    "equals form",
			args:    []string{"--mode=remote", "--other=1"},
			allowed: []string{"--mode"},
			want:    []string{"--mode=remote"},
		},
		{
			name:    "flag followed by another flag",
			args:    []string{"-v", "-m", "local"},
			allowed: []string{"-v", "-m"},
			want:    []string{"-v", "-m", "local"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-a", "1", "-b", "2"},
			allowed: []string{"-z"},
			want:    []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FilterArgs(tc.args, tc.allowed))
		})
	}
}
