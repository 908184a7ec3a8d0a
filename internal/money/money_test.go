package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToSmallestUnits(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		currency string
		want     int64
		wantErr  bool
	}{
		{
			name:     "WholeUSDC",
			amount:   "100",
			currency: "USDC",
			want:     100_000000,
		},
		{
			name:     "FractionalUSDC",
			amount:   "0.000001",
			currency: "USDC",
			want:     1,
		},
		{
			name:     "BTCFullPrecision",
			amount:   "0.00000001",
			currency: "BTC",
			want:     1,
		},
		{
			name:     "TrailingZeros",
			amount:   "1.980000",
			currency: "USDC",
			want:     1_980000,
		},
		{
			name:     "LeadingWhitespace",
			amount:   " 2.5",
			currency: "FUN",
			want:     250,
		},
		{
			name:     "TooManyDecimals",
			amount:   "0.0000001",
			currency: "USDC",
			wantErr:  true,
		},
		{
			name:     "Malformed",
			amount:   "1.2.3",
			currency: "USDC",
			wantErr:  true,
		},
		{
			name:     "Empty",
			amount:   "",
			currency: "USDC",
			wantErr:  true,
		},
		{
			name:     "UnknownCurrency",
			amount:   "1",
			currency: "DOGE",
			wantErr:  true,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ToSmallestUnits(tc.amount, tc.currency)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got: %v", err)
				}

				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("unexpected result, want: %d, got: %d", tc.want, got)
			}
		})
	}
}

func TestToPositiveSmallestUnits(t *testing.T) {
	cases := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{
			name:   "Positive",
			amount: "0.5",
		},
		{
			name:    "Zero",
			amount:  "0",
			wantErr: true,
		},
		{
			name:    "Negative",
			amount:  "-1",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ToPositiveSmallestUnits(tc.amount, "USDC")
			if tc.wantErr != (err != nil) {
				t.Errorf("wantErr=%v, got: %v", tc.wantErr, err)
			}
			if tc.wantErr && !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("expected ErrInvalidAmount, got: %v", err)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		currency string
		want     string
	}{
		{
			name:     "Canonical",
			amount:   "1.98",
			currency: "USDC",
			want:     "1.98",
		},
		{
			name:     "TrailingZerosTrimmed",
			amount:   "1.980000",
			currency: "USDC",
			want:     "1.98",
		},
		{
			name:     "Whole",
			amount:   "100",
			currency: "USDC",
			want:     "100",
		},
		{
			name:     "Satoshi",
			amount:   "0.00000001",
			currency: "BTC",
			want:     "0.00000001",
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			units, err := ToSmallestUnits(tc.amount, tc.currency)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got, err := FromSmallestUnits(units, tc.currency)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tc.want {
				t.Errorf("unexpected result, want: %s, got: %s", tc.want, got)
			}
		})
	}
}

func TestPayout(t *testing.T) {
	cases := []struct {
		name       string
		stake      int64
		multiplier string
		want       int64
	}{
		{
			name:       "CoinFlipWin",
			stake:      100_000000,
			multiplier: "1.98",
			want:       198_000000,
		},
		{
			name:       "LadderLevelThree",
			stake:      100_000000,
			multiplier: "1.728",
			want:       172_800000,
		},
		{
			name:       "TruncatesSubUnit",
			stake:      1,
			multiplier: "1.5",
			want:       1,
		},
		{
			name:       "LossZero",
			stake:      100_000000,
			multiplier: "0",
			want:       0,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mult, err := decimal.NewFromString(tc.multiplier)
			if err != nil {
				t.Fatalf("bad multiplier: %v", err)
			}

			got := Payout(tc.stake, mult)
			if got != tc.want {
				t.Errorf("unexpected result, want: %d, got: %d", tc.want, got)
			}
		})
	}
}
