// Package query turns request query strings into GORM predicates: exact-match
// field filters, relation preloads, aggregate counts, search and paging.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"github.com/justsurfingit/job-board/internal/models"
	"gorm.io/gorm"
)

const (
	ParamRelations = "relations"
	ParamLimit     = "limit"
	ParamOffset    = "offset"
	ParamSearch    = "q"

	countSuffix = ".count"
	MaxLimit    = 100
)

// Schema declares what may be filtered and attached for one entity.
type Schema struct {
	Table string
	// Fields maps a query parameter to its column.
	Fields map[string]string
	// Relations maps a relation name to the GORM association path to preload.
	Relations map[string]string
	// Counts lists relations that accept the ".count" suffix.
	Counts map[string]bool
	// Normalize rewrites a filter value before it reaches the database.
	Normalize map[string]func(string) (string, error)
}

var JobSchema = Schema{
	Table: "jobs",
	Fields: map[string]string{
		"id":          "id",
		"title":       "title",
		"description": "description",
		"company_id":  "company_id",
	},
	Relations: map[string]string{
		"company":          "Company",
		"application":      "Applications",
		"application.user": "Applications.User",
	},
	Counts: map[string]bool{"application": true},
}

var ApplicationSchema = Schema{
	Table: "applications",
	Fields: map[string]string{
		"id":      "id",
		"job_id":  "job_id",
		"user_id": "user_id",
		"status":  "status",
	},
	Relations: map[string]string{
		"job":         "Job",
		"job.company": "Job.Company",
		"user":        "User",
	},
	Normalize: map[string]func(string) (string, error){
		"status": func(v string) (string, error) {
			s, err := models.ParseStatus(v)
			return string(s), err
		},
	},
}

var UserSchema = Schema{
	Table: "users",
	Fields: map[string]string{
		"id":          "id",
		"email":       "email",
		"roq_user_id": "roq_user_id",
		"tenant_id":   "tenant_id",
	},
}

var CompanySchema = Schema{
	Table: "companies",
	Fields: map[string]string{
		"id":        "id",
		"name":      "name",
		"tenant_id": "tenant_id",
		"user_id":   "user_id",
	},
	Relations: map[string]string{
		"job": "Jobs",
	},
}

// Params is a parsed, validated query.
type Params struct {
	Filters   map[string]string
	Relations []string
	Counts    []string
	Limit     int
	Offset    int
	schema    Schema

	applications func(*gorm.DB) *gorm.DB
}

// Parse validates values against schema. Unknown parameters are rejected
// with field-level messages.
func Parse(values url.Values, schema Schema) (Params, error) {
	p := Params{Filters: map[string]string{}, schema: schema}
	problems := map[string]string{}

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		switch key {
		case ParamRelations:
			for _, v := range vals {
				for _, rel := range strings.Split(v, ",") {
					rel = strings.TrimSpace(rel)
					if rel == "" {
						continue
					}
					if err := p.addRelation(rel); err != nil {
						problems[ParamRelations] = err.Error()
					}
				}
			}
		case ParamLimit:
			n, err := strconv.Atoi(vals[0])
			if err != nil || n < 1 || n > MaxLimit {
				problems[ParamLimit] = fmt.Sprintf("must be an integer between 1 and %d", MaxLimit)
				continue
			}
			p.Limit = n
		case ParamOffset:
			n, err := strconv.Atoi(vals[0])
			if err != nil || n < 0 {
				problems[ParamOffset] = "must be a non-negative integer"
				continue
			}
			p.Offset = n
		default:
			if _, ok := schema.Fields[key]; !ok {
				problems[key] = "unknown filter"
				continue
			}
			value := vals[0]
			if norm, ok := schema.Normalize[key]; ok {
				v, err := norm(value)
				if err != nil {
					problems[key] = err.Error()
					continue
				}
				value = v
			}
			p.Filters[key] = value
		}
	}

	if len(problems) > 0 {
		return Params{}, apperrors.InvalidFields("invalid query parameters", problems)
	}
	sort.Strings(p.Relations)
	sort.Strings(p.Counts)
	return p, nil
}

// ParseSearch is Parse for search endpoints: it additionally accepts the
// search text parameter and returns it separately.
func ParseSearch(values url.Values, schema Schema) (Params, string, error) {
	rest := make(url.Values, len(values))
	for k, v := range values {
		if k != ParamSearch {
			rest[k] = v
		}
	}
	p, err := Parse(rest, schema)
	if err != nil {
		return Params{}, "", err
	}
	return p, values.Get(ParamSearch), nil
}

func (p *Params) addRelation(rel string) error {
	if base, ok := strings.CutSuffix(rel, countSuffix); ok {
		if !p.schema.Counts[base] {
			return fmt.Errorf("unknown count relation %q", rel)
		}
		if !contains(p.Counts, base) {
			p.Counts = append(p.Counts, base)
		}
		return nil
	}
	if _, ok := p.schema.Relations[rel]; !ok {
		return fmt.Errorf("unknown relation %q", rel)
	}
	if !contains(p.Relations, rel) {
		p.Relations = append(p.Relations, rel)
	}
	return nil
}

// ScopeApplications restricts embedded applications to those matched by
// scope. Without it every application of a preloaded job is attached.
func (p Params) ScopeApplications(scope func(*gorm.DB) *gorm.DB) Params {
	p.applications = scope
	return p
}

// WantsCount reports whether the aggregate for relation was requested.
func (p Params) WantsCount(relation string) bool {
	return contains(p.Counts, relation)
}

// Apply adds filters, preloads and paging to db. Ordering is left to the caller.
func (p Params) Apply(db *gorm.DB) *gorm.DB {
	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		db = db.Where(fmt.Sprintf("%s.%s = ?", p.schema.Table, p.schema.Fields[k]), p.Filters[k])
	}

	for _, rel := range p.Relations {
		path := p.schema.Relations[rel]
		if strings.HasPrefix(path, "Applications") {
			scopes := []interface{}{NewestFirst}
			if p.applications != nil {
				scopes = append(scopes, p.applications)
			}
			db = db.Preload("Applications", scopes...)
			if path == "Applications" {
				continue
			}
		}
		db = db.Preload(path)
	}

	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	return db
}

// NewestFirst orders by creation time, newest first, with the primary key
// as a deterministic tie-break.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

// Search matches q case-insensitively as a substring of a job's title or
// description. A blank q leaves db unfiltered.
func Search(db *gorm.DB, q string) *gorm.DB {
	q = strings.TrimSpace(q)
	if q == "" {
		return db
	}
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	return db.Where(
		`(LOWER(jobs.title) LIKE ? ESCAPE '\' OR LOWER(jobs.description) LIKE ? ESCAPE '\')`,
		pattern, pattern,
	)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
