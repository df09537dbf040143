package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewPool hands out the package's Pool type
var _ func(fx.Lifecycle, *zap.Logger, string) (*Pool, error) = NewPool

func TestMaskPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "<empty>"},
		{"url with password", "postgres://octobot:s3cret@db:5432/octobot", "postgres://octobot:xxxxx@db:5432/octobot"},
		{"url without password", "postgres://octobot@db/octobot", "postgres://octobot@db/octobot"},
		{"keyword value", "host=db user=octobot password=s3cret", "<redacted>"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MaskPassword(tt.in))
		})
	}
}
