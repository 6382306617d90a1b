package usecases

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"employee-export/internal/core/domain"
)

const TimestampLayout = "2006-01-02 15:04:05"

// Encoder serializes projected records into an artifact.
type Encoder interface {
	ContentType() string
	FileExtension() string
	Encode(records []domain.Employee, fields []string) ([]byte, error)
}

// EncoderRegistry maps export types to their encoders.
type EncoderRegistry map[domain.ExportType]Encoder

func NewEncoderRegistry() EncoderRegistry {
	return EncoderRegistry{
		domain.ExportTypeCSV: NewDelimitedTextEncoder(),
	}
}

func (r EncoderRegistry) Lookup(exportType domain.ExportType) (Encoder, error) {
	enc, ok := r[exportType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, exportType)
	}
	return enc, nil
}

var headerLabels = map[string]string{
	"id":          "ID",
	"firstname":   "First Name",
	"lastname":    "Last Name",
	"email":       "Email",
	"phonenumber": "Phone Number",
	"dateofbirth": "Date of Birth",
	"hiredate":    "Hire Date",
	"salary":      "Salary",
	"position":    "Position",
	"department":  "Department",
	"createdat":   "Created At",
	"updatedat":   "Updated At",
}

// HeaderLabel returns the display label for a field, or the field itself
// when it is not a known column.
func HeaderLabel(field string) string {
	if label, ok := headerLabels[strings.ToLower(field)]; ok {
		return label
	}
	return field
}

// CellValue renders one field of a record. Unknown fields and missing
// values render as the empty string.
func CellValue(e domain.Employee, field string) string {
	switch strings.ToLower(field) {
	case "id":
		return strconv.FormatInt(e.ID, 10)
	case "firstname":
		return e.FirstName
	case "lastname":
		return e.LastName
	case "email":
		return e.Email
	case "phonenumber":
		return e.PhoneNumber
	case "dateofbirth":
		if e.DateOfBirth == nil {
			return ""
		}
		return e.DateOfBirth.Format(domain.DateLayout)
	case "hiredate":
		if e.HireDate == nil {
			return ""
		}
		return e.HireDate.Format(domain.DateLayout)
	case "salary":
		if e.Salary == nil {
			return ""
		}
		return strconv.FormatFloat(*e.Salary, 'f', 2, 64)
	case "position":
		return e.Position
	case "department":
		return e.Department
	case "createdat":
		if e.CreatedAt == nil {
			return ""
		}
		return e.CreatedAt.Format(TimestampLayout)
	case "updatedat":
		if e.UpdatedAt == nil {
			return ""
		}
		return e.UpdatedAt.Format(TimestampLayout)
	default:
		return ""
	}
}

// DelimitedTextEncoder writes comma-separated text. The header row holds
// plain labels; every data cell is quoted with embedded quotes doubled.
type DelimitedTextEncoder struct {
	delimiter string
}

func NewDelimitedTextEncoder() *DelimitedTextEncoder {
	return &DelimitedTextEncoder{delimiter: ","}
}

func (e *DelimitedTextEncoder) ContentType() string {
	return "text/csv"
}

func (e *DelimitedTextEncoder) FileExtension() string {
	return "csv"
}

func (e *DelimitedTextEncoder) Encode(records []domain.Employee, fields []string) ([]byte, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields selected for export")
	}

	var buf bytes.Buffer

	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = headerLabel(HeaderLabel(f))
	}
	buf.WriteString(strings.Join(labels, e.delimiter))
	buf.WriteByte('\n')

	for _, record := range records {
		for i, f := range fields {
			if i > 0 {
				buf.WriteString(e.delimiter)
			}
			buf.WriteString(quote(CellValue(record, f)))
		}
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// headerLabel quotes a label only when it could not be read back unquoted.
func headerLabel(label string) string {
	if strings.ContainsAny(label, "\",\r\n") {
		return quote(label)
	}
	return label
}

func quote(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
