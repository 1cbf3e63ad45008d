package core

import (
	"errors"
	"testing"
)

func TestParseRefreshScope(t *testing.T) {
	tests := []struct {
		in      string
		want    RefreshScope
		wantErr bool
	}{
		{in: "", want: RefreshAll},
		{in: "all", want: RefreshAll},
		{in: " Expenses ", want: RefreshExpenses},
		{in: "PRICES", want: RefreshPrices},
		{in: "inflation", want: RefreshInflation},
		{in: "portfolio", want: RefreshPortfolio},
		{in: "everything", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseRefreshScope(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownScope) {
				t.Errorf("ParseRefreshScope(%q): expected ErrUnknownScope, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRefreshScope(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRefreshScope(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
