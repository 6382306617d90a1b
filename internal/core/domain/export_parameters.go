package domain

import (
	"math"
	"strings"
)

const (
	DefaultExportFields = "id,firstName,lastName,email,department,position,salary,hireDate"
	DefaultSortBy       = "id"
	DefaultSortDir      = "asc"
	DefaultPage         = 1
	DefaultSize         = 1000

	// MaxPage bounds the 1-based page number a request may ask for.
	MaxPage = 1000000
)

// ExportParameters is the filter, sort and projection request for an export.
type ExportParameters struct {
	Department string   `json:"department,omitempty"`
	Position   string   `json:"position,omitempty"`
	Email      string   `json:"email,omitempty" validate:"omitempty,email"`
	Name       string   `json:"name,omitempty"`
	MinSalary  *float64 `json:"minSalary,omitempty" validate:"omitempty,gte=0"`
	MaxSalary  *float64 `json:"maxSalary,omitempty" validate:"omitempty,gte=0"`
	Fields     string   `json:"fields"`
	SortBy     string   `json:"sortBy"`
	SortDir    string   `json:"sortDir" validate:"oneof=asc desc"`
	Page       int      `json:"page" validate:"gte=1,lte=1000000"`
	Size       int      `json:"size" validate:"gte=1"`
	ExportType string   `json:"exportType" validate:"oneof=CSV"`
}

// WithDefaults fills unset options and normalizes case-insensitive ones.
func (p ExportParameters) WithDefaults() ExportParameters {
	if strings.TrimSpace(p.Fields) == "" {
		p.Fields = DefaultExportFields
	}
	if strings.TrimSpace(p.SortBy) == "" {
		p.SortBy = DefaultSortBy
	}
	if p.SortDir == "" {
		p.SortDir = DefaultSortDir
	}
	p.SortDir = strings.ToLower(p.SortDir)
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Size == 0 {
		p.Size = DefaultSize
	}
	if p.ExportType == "" {
		p.ExportType = string(ExportTypeCSV)
	}
	p.ExportType = strings.ToUpper(p.ExportType)
	return p
}

// FieldList splits the comma-separated projection, dropping blanks.
func (p ExportParameters) FieldList() []string {
	fields := p.Fields
	if strings.TrimSpace(fields) == "" {
		fields = DefaultExportFields
	}

	var out []string
	for _, f := range strings.Split(fields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// HasSalaryBound reports whether either salary bound is set.
func (p ExportParameters) HasSalaryBound() bool {
	return p.MinSalary != nil || p.MaxSalary != nil
}

// PageOffset returns the number of records before the 0-based page.
// ok is false when the page lies beyond any addressable offset.
func PageOffset(page, size int) (offset int, ok bool) {
	if page < 0 || size <= 0 || page > (math.MaxInt-size)/size {
		return 0, false
	}
	return page * size, true
}
