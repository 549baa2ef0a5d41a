package transfer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/solventhq/walletcore/pkg/domain/transfer"
)

func TestSplitFee(t *testing.T) {
	split := transfer.SplitFee(1000, 50)
	assert.Equal(t, int64(1000), split.Gross)
	assert.Equal(t, int64(50), split.Fee)
	assert.Equal(t, int64(950), split.Net)
}

func TestSplitFeePercent(t *testing.T) {
	cases := []struct {
		name    string
		gross   int64
		percent float64
		fee     int64
	}{
		{"one percent", 10000, 0.01, 100},
		{"zero percent", 10000, 0, 0},
		{"rounds half up", 999, 0.015, 15}, // 14.985 -> 15
		{"rounds down", 100, 0.014, 1},     // 1.4 -> 1
		{"tiny amounts", 1, 0.01, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			split := transfer.SplitFeePercent(tc.gross, tc.percent)
			assert.Equal(t, tc.fee, split.Fee)
			assert.Equal(t, tc.gross-tc.fee, split.Net)
			assert.Equal(t, tc.gross, split.Net+split.Fee)
		})
	}
}
