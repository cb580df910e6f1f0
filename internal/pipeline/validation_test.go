package pipeline

import (
	"testing"

	"github.com/dvloznov/spendlens/internal/domain"
)

func TestValidityFilter_Valid(t *testing.T) {
	tests := []struct {
		name         string
		spendingOnly bool
		tx           domain.Transaction
		want         bool
	}{
		{
			name: "settled expense",
			tx:   domain.Transaction{Description: "Netflix Subscription", Amount: -15.99},
			want: true,
		},
		{
			name: "income kept by default",
			tx:   domain.Transaction{Description: "Paycheck", Amount: 2500},
			want: true,
		},
		{
			name:         "income dropped when tracking spending only",
			spendingOnly: true,
			tx:           domain.Transaction{Description: "Paycheck", Amount: 2500},
			want:         false,
		},
		{
			name:         "zero amount is not income",
			spendingOnly: true,
			tx:           domain.Transaction{Description: "Card check", Amount: 0},
			want:         true,
		},
		{
			name: "declined card",
			tx:   domain.Transaction{Description: "Amazon purchase DECLINED", Amount: -40},
			want: false,
		},
		{
			name: "pending authorisation",
			tx:   domain.Transaction{Description: "Pending - Uber trip", Amount: -12},
			want: false,
		},
		{
			name: "failed transfer",
			tx:   domain.Transaction{Description: "Transfer failed insufficient funds", Amount: -300},
			want: false,
		},
		{
			name: "reversal",
			tx:   domain.Transaction{Description: "Card reversal Daraz", Amount: 50},
			want: false,
		},
		{
			name: "refund kept by default",
			tx:   domain.Transaction{Description: "Refund Amazon", Amount: -1},
			want: true,
		},
		{
			name:         "refund dropped when tracking spending only",
			spendingOnly: true,
			tx:           domain.Transaction{Description: "Refund Amazon", Amount: -1},
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewValidityFilter(tt.spendingOnly)
			if got := f.Valid(tt.tx); got != tt.want {
				t.Errorf("Valid(%+v) = %v, want %v", tt.tx, got, tt.want)
			}
		})
	}
}

func TestValidityFilter_CustomKeywords(t *testing.T) {
	f := NewValidityFilter(false, "  HOLD ", "")
	if f.Valid(domain.Transaction{Description: "Hotel hold", Amount: -100}) {
		t.Error("custom keyword not applied")
	}
	if !f.Valid(domain.Transaction{Description: "Declined card", Amount: -1}) {
		t.Error("custom keywords should replace the defaults")
	}
}

func TestValidityFilter_Apply(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "a", Description: "Coffee shop", Amount: -4},
		{ID: "b", Description: "Payment declined", Amount: -4},
		{ID: "c", Description: "Salary", Amount: 100},
		{ID: "d", Description: "Groceries store", Amount: -20},
	}
	kept, rejected := NewValidityFilter(true).Apply(txs)
	if rejected != 2 {
		t.Errorf("rejected = %d, want 2", rejected)
	}
	if len(kept) != 2 || kept[0].ID != "a" || kept[1].ID != "d" {
		t.Errorf("kept = %+v", kept)
	}
	if len(txs) != 4 {
		t.Error("input modified")
	}
}
