package http

import (
	"fmt"
	"html/template"
	"sync/atomic"

	"net/http"

	"smartfinances/internal/core"
	"smartfinances/internal/log"
)

// handleCreateIncome records a manually entered income row. Income has no
// upstream feed, so this form is the only way rows get in.
func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		s.logger.ErrorContext(r.Context(), "Income body parse failed", log.FieldError, err)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	date := core.Today()
	if v := parser.Get("date"); v != "" {
		parsed, err := core.ParseDay(v)
		if err != nil {
			UnprocessableEntityError("Invalid date, expected YYYY-MM-DD").Write(w)
			return
		}
		date = parsed
	}

	amount, err := core.ParseAmount(parser.Get("amount"))
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	account := parser.Get("account")
	if account == "" {
		account = core.AccountCurrent
	}

	income := core.Income{
		Date:        date,
		Description: parser.Get("description"),
		Account:     account,
		Category:    parser.Get("category"),
		Amount:      amount,
	}
	if err := income.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	saved, err := s.data.AddIncome(r.Context(), income)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to save income",
			log.FieldError, err,
			"description", income.Description,
			"category", income.Category,
			log.FieldOperation, log.OpUpsert)
		InternalServerError("Error saving income").Write(w)
		return
	}

	atomic.AddInt64(&s.metrics.incomesCreated, 1)
	s.logger.InfoContext(r.Context(), "Income created",
		"income_id", saved.ID,
		"category", saved.Category,
		"amount", saved.Amount.String())

	message := fmt.Sprintf("Income recorded: %s, %s (%s)",
		saved.Description, formatPounds(saved.Amount), saved.Category)

	NewHTMXResponse().
		TriggerIncomeCreated(saved.Date.Year(), int(saved.Date.Month())).
		TriggerFormReset().
		TriggerSuccessNotification(message).
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(message) + `</div>`).
		Write(w)
}
