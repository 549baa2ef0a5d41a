package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/solventhq/walletcore/pkg/domain"
)

func TestMapGormErrorToDomain(t *testing.T) {
	opaque := errors.New("connection reset")

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"duplicated key", gorm.ErrDuplicatedKey, domain.ErrAlreadyExists},
		{"record not found", gorm.ErrRecordNotFound, domain.ErrNotFound},
		{"wrapped duplicated key",
			fmt.Errorf("insert transfer: %w", gorm.ErrDuplicatedKey),
			domain.ErrAlreadyExists},
		{"deeply wrapped not found",
			fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", gorm.ErrRecordNotFound)),
			domain.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapGormErrorToDomain(tc.in))
		})
	}

	t.Run("unknown errors pass through unchanged", func(t *testing.T) {
		assert.Same(t, opaque, MapGormErrorToDomain(opaque))
	})
}
