package storage

import (
	"context"
	"fmt"

	"smartfinances/internal/core"
)

// seedTaxonomy inserts the income categories, expense groups, and the
// subcategory to group mapping. INSERT OR IGNORE keeps reruns idempotent
// and preserves rows registered later for unseen upstream subcategories.
func (r *SQLiteRepository) seedTaxonomy(ctx context.Context) error {
	return r.withTx(ctx, func(q *Queries) error {
		for _, category := range core.IncomeCategories {
			if err := q.SeedIncomeCategory(ctx, category); err != nil {
				return fmt.Errorf("seed income category %s: %w", category, err)
			}
		}
		for _, group := range core.ExpenseGroups {
			if err := q.SeedExpenseGroup(ctx, group); err != nil {
				return fmt.Errorf("seed expense group %s: %w", group, err)
			}
		}
		for subcategory, group := range core.SubcategoryGroups {
			err := q.SeedExpenseCategory(ctx, SeedExpenseCategoryParams{
				Category:     subcategory,
				ExpenseGroup: group,
			})
			if err != nil {
				return fmt.Errorf("seed expense category %s: %w", subcategory, err)
			}
		}
		return nil
	})
}
