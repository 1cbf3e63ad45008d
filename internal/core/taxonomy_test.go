package core

import "testing"

func TestAccountFromDetails(t *testing.T) {
	cases := []struct {
		details string
		want    string
	}{
		{"", "Current"},
		{"paypal", "PayPal"},
		{"PAYPAL", "PayPal"},
		{"paid via PayPal yesterday", "PayPal"},
		{"546%^%&* O*&  @M@JJ *(Y", "Current"},
		{"p a y p a l", "Current"},
	}
	for _, tc := range cases {
		if got := AccountFromDetails(tc.details); got != tc.want {
			t.Fatalf("%q expected %s, got %s", tc.details, tc.want, got)
		}
	}
}

func TestGroupForSubcategory(t *testing.T) {
	cases := []struct {
		sub  string
		want string
	}{
		{"Groceries", "Food & drink"},
		{"Mortgage", "Home"},
		{"Taxi", "Transportation"},
		{"Electricity", "Utilities"},
		{"General", "General"},
		{"Cryptocurrency", "General"}, // unmapped falls back
	}
	for _, tc := range cases {
		if got := GroupForSubcategory(tc.sub); got != tc.want {
			t.Fatalf("%q expected %s, got %s", tc.sub, tc.want, got)
		}
	}
}

func TestTaxonomyIsClosed(t *testing.T) {
	groups := map[string]bool{}
	for _, g := range ExpenseGroups {
		groups[g] = true
	}
	for sub, group := range SubcategoryGroups {
		if !groups[group] {
			t.Fatalf("subcategory %q maps to unknown group %q", sub, group)
		}
	}
	if len(SubcategoryGroups) != 42 {
		t.Fatalf("expected 42 subcategories, got %d", len(SubcategoryGroups))
	}
	if len(IncomeCategories) != 6 {
		t.Fatalf("expected 6 income categories, got %d", len(IncomeCategories))
	}
}
