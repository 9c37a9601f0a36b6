package services

import (
	"law_case_engine/models"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Pagination bounds for case listings
const (
	DefaultCaseLimit = 20
	MaxCaseLimit     = 100
	// maxCasePage keeps (page-1)*limit far from integer overflow
	maxCasePage = 10_000_000
)

// sortColumns is the sortBy allow-list, mapping request names to columns
var sortColumns = map[string]string{
	"createdAt":       "created_at",
	"updatedAt":       "updated_at",
	"title":           "title",
	"caseNumber":      "case_number",
	"status":          "status",
	"priority":        "priority",
	"filingDate":      "filing_date",
	"nextHearingDate": "next_hearing_date",
}

// CaseFilters holds the equality filters that survived sanitising
type CaseFilters struct {
	Status       string `json:"status,omitempty"`
	CaseType     string `json:"caseType,omitempty"`
	Priority     string `json:"priority,omitempty"`
	ClientID     string `json:"clientId,omitempty"`
	AssignedToID string `json:"assignedToId,omitempty"`
}

// CaseOrder is the single ordering clause of a case query
type CaseOrder struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// CaseQuery is the sanitised, bounded form of a case list request
type CaseQuery struct {
	Scope   Scope       `json:"-"`
	Filters CaseFilters `json:"filters"`
	Search  string      `json:"search,omitempty"`
	OrderBy CaseOrder   `json:"orderBy"`
	Skip    int         `json:"skip"`
	Limit   int         `json:"limit"`
	Page    int         `json:"page"`
}

// CompileCaseQuery turns raw list parameters into a CaseQuery. It never fails: invalid
// values are clamped or dropped. The scope comes from the caller's identity and nothing
// in raw can widen it.
func CompileCaseQuery(scope Scope, raw url.Values) CaseQuery {
	q := CaseQuery{
		Scope:   scope,
		OrderBy: CaseOrder{Field: "createdAt", Desc: true},
	}

	q.Limit = clampInt(parseIntParam(raw, "limit", DefaultCaseLimit), 1, MaxCaseLimit)
	q.Page = clampInt(parseIntParam(raw, "page", 1), 1, maxCasePage)

	if offset, ok := intParam(raw, "offset"); ok {
		if offset < 0 {
			offset = 0
		}
		q.Skip = offset
		q.Page = offset/q.Limit + 1
	} else {
		q.Skip = (q.Page - 1) * q.Limit
	}

	if status := raw.Get("status"); models.IsValidCaseStatus(status) {
		q.Filters.Status = status
	}
	if caseType := raw.Get("caseType"); models.IsValidCaseType(caseType) {
		q.Filters.CaseType = caseType
	}
	if priority := raw.Get("priority"); models.IsValidCasePriority(priority) {
		q.Filters.Priority = priority
	}
	q.Filters.ClientID = strings.TrimSpace(raw.Get("clientId"))
	q.Filters.AssignedToID = strings.TrimSpace(raw.Get("assignedToId"))
	q.Search = strings.TrimSpace(raw.Get("q"))

	if _, ok := sortColumns[raw.Get("sortBy")]; ok {
		q.OrderBy.Field = raw.Get("sortBy")
	}
	q.OrderBy.Desc = raw.Get("sortOrder") != "asc"

	return q
}

// ApplyFilters adds scope, filters and search to a query, without order or paging
func (q CaseQuery) ApplyFilters(db *gorm.DB) *gorm.DB {
	query := q.Scope.Apply(db)

	if q.Filters.Status != "" {
		query = query.Where("status = ?", q.Filters.Status)
	}
	if q.Filters.CaseType != "" {
		query = query.Where("case_type = ?", q.Filters.CaseType)
	}
	if q.Filters.Priority != "" {
		query = query.Where("priority = ?", q.Filters.Priority)
	}
	if q.Filters.ClientID != "" {
		query = query.Where("client_id = ?", q.Filters.ClientID)
	}
	if q.Filters.AssignedToID != "" {
		query = query.Where("assigned_to_id = ?", q.Filters.AssignedToID)
	}

	if q.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		query = query.Where(
			"(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\' OR LOWER(case_number) LIKE ? ESCAPE '\\')",
			pattern, pattern, pattern,
		)
	}

	return query
}

// Apply adds filters, the single order clause and paging
func (q CaseQuery) Apply(db *gorm.DB) *gorm.DB {
	return q.ApplyFilters(db).
		Order(q.OrderClause()).
		Offset(q.Skip).
		Limit(q.Limit)
}

// OrderClause renders the ordering as SQL from allow-listed columns only
func (q CaseQuery) OrderClause() string {
	column, ok := sortColumns[q.OrderBy.Field]
	if !ok {
		column = "created_at"
	}
	if q.OrderBy.Desc {
		return column + " DESC"
	}
	return column + " ASC"
}

func intParam(raw url.Values, key string) (int, bool) {
	value := strings.TrimSpace(raw.Get(key))
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseIntParam(raw url.Values, key string, defaultValue int) int {
	if n, ok := intParam(raw, key); ok {
		return n
	}
	return defaultValue
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// escapeLike neutralises LIKE wildcards so search terms match literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
