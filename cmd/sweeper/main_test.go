package main

import (
	"testing"

	"github.com/credipos/engine/internal/domain"
)

func TestLoanIDs(t *testing.T) {
	loans := []*domain.Loan{
		{ID: "loan-1"},
		{ID: "loan-2"},
	}

	ids := loanIDs(loans)
	if len(ids) != 2 || ids[0] != "loan-1" || ids[1] != "loan-2" {
		t.Fatalf("unexpected ids: %v", ids)
	}

	if got := loanIDs(nil); len(got) != 0 {
		t.Fatalf("expected empty slice for nil input, got %v", got)
	}
}
