package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"smartfinances/internal/core"
)

const (
	DefaultStartDate    = "2017-09-01"
	DefaultBaseCurrency = "GBP"
)

// PlatformAccount names one investment platform whose transaction log is
// kept in a Google Sheets range.
type PlatformAccount struct {
	Name          string `yaml:"name"`
	SpreadsheetID string `yaml:"spreadsheet_id"`
	ReadRange     string `yaml:"range"`
}

// InvestmentEntry declares one instrument to track prices for. Dates use
// the YYYY-MM-DD form; end_date is omitted while the position is open.
type InvestmentEntry struct {
	Ticker    string `yaml:"ticker"`
	Name      string `yaml:"name"`
	Source    string `yaml:"source"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	Account   string `yaml:"account"`
}

// Parameters holds the non-secret runtime parameters: the reporting
// window, the base currency, and the accounts and instruments to track.
// Secrets stay in the environment.
type Parameters struct {
	StartDate        string            `yaml:"start_date"`
	BaseCurrency     string            `yaml:"base_currency"`
	UserID           int64             `yaml:"user_id"`
	PlatformAccounts []PlatformAccount `yaml:"platform_accounts"`
	Investments      []InvestmentEntry `yaml:"investments"`
}

// LoadParameters reads and validates the parameters file. A missing file
// is not an error; the defaults describe an empty portfolio.
func LoadParameters(path string) (*Parameters, error) {
	params := &Parameters{}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to defaults
	case err != nil:
		return nil, fmt.Errorf("reading parameters file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, params); err != nil {
			return nil, fmt.Errorf("parsing parameters file %s: %w", path, err)
		}
	}

	if params.StartDate == "" {
		params.StartDate = DefaultStartDate
	}
	if params.BaseCurrency == "" {
		params.BaseCurrency = DefaultBaseCurrency
	}

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters file %s: %w", path, err)
	}
	return params, nil
}

// Validate checks the parameters and returns an error listing every problem.
func (p *Parameters) Validate() error {
	var errors []string

	if _, err := core.ParseDay(p.StartDate); err != nil {
		errors = append(errors, fmt.Sprintf("invalid start_date '%s': must be YYYY-MM-DD", p.StartDate))
	}

	if len(p.BaseCurrency) != 3 || p.BaseCurrency != strings.ToUpper(p.BaseCurrency) {
		errors = append(errors, fmt.Sprintf("invalid base_currency '%s': must be a 3-letter uppercase code", p.BaseCurrency))
	}

	accountNames := make(map[string]bool, len(p.PlatformAccounts))
	for i, account := range p.PlatformAccounts {
		if account.Name == "" {
			errors = append(errors, fmt.Sprintf("platform_accounts[%d]: name cannot be empty", i))
			continue
		}
		if accountNames[account.Name] {
			errors = append(errors, fmt.Sprintf("platform_accounts[%d]: duplicate name '%s'", i, account.Name))
		}
		accountNames[account.Name] = true
		if account.SpreadsheetID == "" {
			errors = append(errors, fmt.Sprintf("platform account '%s': spreadsheet_id cannot be empty", account.Name))
		}
		if account.ReadRange == "" {
			errors = append(errors, fmt.Sprintf("platform account '%s': range cannot be empty", account.Name))
		}
	}

	tickers := make(map[string]bool, len(p.Investments))
	for i, inv := range p.Investments {
		if inv.Ticker == "" {
			errors = append(errors, fmt.Sprintf("investments[%d]: ticker cannot be empty", i))
			continue
		}
		if tickers[inv.Ticker] {
			errors = append(errors, fmt.Sprintf("investments[%d]: duplicate ticker '%s'", i, inv.Ticker))
		}
		tickers[inv.Ticker] = true
		if inv.Source != core.SourceYahoo && inv.Source != core.SourceEODHD {
			errors = append(errors, fmt.Sprintf("investment '%s': invalid source '%s': must be '%s' or '%s'",
				inv.Ticker, inv.Source, core.SourceYahoo, core.SourceEODHD))
		}
		start, err := core.ParseDay(inv.StartDate)
		if err != nil {
			errors = append(errors, fmt.Sprintf("investment '%s': invalid start_date '%s': must be YYYY-MM-DD", inv.Ticker, inv.StartDate))
		}
		if inv.EndDate != "" {
			end, err := core.ParseDay(inv.EndDate)
			if err != nil {
				errors = append(errors, fmt.Sprintf("investment '%s': invalid end_date '%s': must be YYYY-MM-DD", inv.Ticker, inv.EndDate))
			} else if end.Before(start) {
				errors = append(errors, fmt.Sprintf("investment '%s': end_date %s precedes start_date %s", inv.Ticker, inv.EndDate, inv.StartDate))
			}
		}
		if inv.Account != "" && len(accountNames) > 0 && !accountNames[inv.Account] {
			errors = append(errors, fmt.Sprintf("investment '%s': account '%s' is not a declared platform account", inv.Ticker, inv.Account))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("parameters validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Start returns the reporting window start. Validate must have passed.
func (p *Parameters) Start() core.Day {
	day, _ := core.ParseDay(p.StartDate)
	return day
}

// InvestmentList converts the declared investments into domain values.
// Validate must have passed.
func (p *Parameters) InvestmentList() []core.Investment {
	out := make([]core.Investment, 0, len(p.Investments))
	for _, inv := range p.Investments {
		start, _ := core.ParseDay(inv.StartDate)
		investment := core.Investment{
			Ticker:    inv.Ticker,
			Name:      inv.Name,
			Source:    inv.Source,
			StartDate: start,
			Account:   inv.Account,
		}
		if inv.EndDate != "" {
			investment.EndDate, _ = core.ParseDay(inv.EndDate)
		}
		out = append(out, investment)
	}
	return out
}
