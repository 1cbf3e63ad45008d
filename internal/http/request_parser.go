// Request parsing utilities shared by the handlers: pivot query
// validation, the JSON-or-form body parser HTMX needs, and the method
// guards.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"smartfinances/internal/core"
)

// PivotQuery holds the validated pivot table parameters.
type PivotQuery struct {
	Period core.PivotPeriod
	Level  core.PivotLevel
	Group  string
}

var errInvalidGroup = errors.New("invalid sharing group")

// ParsePivotQuery validates period, level, and group query parameters,
// defaulting to the month-by-category view over all groups.
func ParsePivotQuery(query url.Values) (PivotQuery, error) {
	q := PivotQuery{
		Period: core.PeriodMonth,
		Level:  core.LevelCategory,
		Group:  core.AllSharingGroups,
	}

	if v := strings.TrimSpace(query.Get("period")); v != "" {
		q.Period = core.PivotPeriod(v)
	}
	if err := q.Period.Validate(); err != nil {
		return PivotQuery{}, err
	}

	if v := strings.TrimSpace(query.Get("level")); v != "" {
		q.Level = core.PivotLevel(v)
	}
	if err := q.Level.Validate(); err != nil {
		return PivotQuery{}, err
	}

	if v := strings.TrimSpace(query.Get("group")); v != "" {
		q.Group = v
	}
	if q.Group != core.AllSharingGroups {
		if _, err := strconv.ParseInt(q.Group, 10, 64); err != nil {
			return PivotQuery{}, errInvalidGroup
		}
	}

	return q, nil
}

// ParseTrendPeriod validates the period parameter for the chart feeds,
// defaulting to month.
func ParseTrendPeriod(query url.Values) (core.PivotPeriod, error) {
	period := core.PeriodMonth
	if v := strings.TrimSpace(query.Get("period")); v != "" {
		period = core.PivotPeriod(v)
	}
	if err := period.Validate(); err != nil {
		return "", err
	}
	return period, nil
}

// RequestBodyParser reads a request body once and exposes its fields
// whether the client sent JSON or form-encoded data.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]interface{}
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(r.Body)
	return p
}

// Parse decodes the body as JSON when it looks like JSON, otherwise as a
// form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || p.body[0] == '[' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns the sanitized string value for key from whichever encoding
// was parsed.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// IsJSON reports whether the parsed body was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod returns an error response builder when the request method
// is not one of methods, nil otherwise.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequireGET guards read-only handlers.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet)
}

// RequirePOST guards mutating handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}
