package core

import (
	"regexp"
	"sort"
)

// GeneralGroup is the fallback expense group for subcategories the mapping
// does not know about.
const GeneralGroup = "General"

// IncomeCategories are the fixed income buckets.
var IncomeCategories = []string{
	"Salary", "Passive", "Gift", "Reward", "Other Active", "Bonus",
}

// ExpenseGroups are the top-level expense buckets.
var ExpenseGroups = []string{
	"Entertainment", "Food & drink", "Home", "Life",
	"Transportation", "Utilities", "General",
}

// SubcategoryGroups maps each Splitwise category name to its expense group.
var SubcategoryGroups = map[string]string{
	"Music":                   "Entertainment",
	"Movies":                  "Entertainment",
	"Sports":                  "Entertainment",
	"Games":                   "Entertainment",
	"Entertainment - Other":   "Entertainment",
	"Dining out":              "Food & drink",
	"Groceries":               "Food & drink",
	"Liquor":                  "Food & drink",
	"Food and drink - Other":  "Food & drink",
	"Services":                "Home",
	"Furniture":               "Home",
	"Household supplies":      "Home",
	"Maintenance":             "Home",
	"Mortgage":                "Home",
	"Pets":                    "Home",
	"Rent":                    "Home",
	"Electronics":             "Home",
	"Home - Other":            "Home",
	"Gifts":                   "Life",
	"Clothing":                "Life",
	"Taxes":                   "Life",
	"Insurance":               "Life",
	"Medical expenses":        "Life",
	"Education":               "Life",
	"Life - Other":            "Life",
	"Parking":                 "Transportation",
	"Bus/train":               "Transportation",
	"Bicycle":                 "Transportation",
	"Plane":                   "Transportation",
	"Taxi":                    "Transportation",
	"Car":                     "Transportation",
	"Gas/fuel":                "Transportation",
	"Hotel":                   "Transportation",
	"Transportation - Other":  "Transportation",
	"Cleaning":                "Utilities",
	"Heat/gas":                "Utilities",
	"Trash":                   "Utilities",
	"TV/Phone/Internet":       "Utilities",
	"Electricity":             "Utilities",
	"Water":                   "Utilities",
	"Other":                   "General",
	"General":                 "General",
}

// GroupForSubcategory resolves a Splitwise category name to its expense
// group, defaulting to General so pivots always total up.
func GroupForSubcategory(sub string) string {
	if group, ok := SubcategoryGroups[sub]; ok {
		return group
	}
	return GeneralGroup
}

// Subcategories returns the known Splitwise category names, sorted.
func Subcategories() []string {
	subs := make([]string, 0, len(SubcategoryGroups))
	for sub := range SubcategoryGroups {
		subs = append(subs, sub)
	}
	sort.Strings(subs)
	return subs
}

var paypalPattern = regexp.MustCompile(`(?i)paypal`)

// AccountFromDetails infers the paying account from an expense's free-text
// details: any mention of PayPal routes to the PayPal account, everything
// else to the current account.
func AccountFromDetails(details string) string {
	if paypalPattern.MatchString(details) {
		return AccountPayPal
	}
	return AccountCurrent
}
