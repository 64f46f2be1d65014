package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundCent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "exact cents unchanged", input: "10.25", expected: "10.25"},
		{name: "half rounds up", input: "10.255", expected: "10.26"},
		{name: "below half rounds down", input: "10.2549", expected: "10.25"},
		{name: "above half rounds up", input: "10.2551", expected: "10.26"},
		{name: "whole number unchanged", input: "100", expected: "100"},
		{name: "cascading half", input: "0.005", expected: "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundCent(decimal.RequireFromString(tt.input))
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("RoundCent(%s) = %s, expected %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsCentAligned(t *testing.T) {
	if !IsCentAligned(decimal.RequireFromString("10.25")) {
		t.Error("expected 10.25 to be cent aligned")
	}

	if IsCentAligned(decimal.RequireFromString("10.255")) {
		t.Error("expected 10.255 not to be cent aligned")
	}
}

func TestValidatePayment(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		expectedErr error
	}{
		{name: "positive cent-aligned", amount: "50.00", expectedErr: nil},
		{name: "zero", amount: "0", expectedErr: ErrInvalidAmount},
		{name: "negative", amount: "-10", expectedErr: ErrInvalidAmount},
		{name: "sub-cent", amount: "10.005", expectedErr: ErrSubCentAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayment(decimal.RequireFromString(tt.amount))

			if tt.expectedErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, tt.expectedErr) {
				t.Errorf("expected %v, got %v", tt.expectedErr, err)
			}
		})
	}
}

func TestValidatePrincipal(t *testing.T) {
	if err := ValidatePrincipal(decimal.NewFromInt(10000)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidatePrincipal(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	tooLarge := decimal.RequireFromString(MaxPrincipal).Add(decimal.NewFromInt(1))
	if err := ValidatePrincipal(tooLarge); !errors.Is(err, ErrAmountTooLarge) {
		t.Errorf("expected ErrAmountTooLarge, got %v", err)
	}

	if err := ValidatePrincipal(decimal.RequireFromString("99.999")); !errors.Is(err, ErrSubCentAmount) {
		t.Errorf("expected ErrSubCentAmount, got %v", err)
	}
}
