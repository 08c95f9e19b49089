package processor

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ParsedContact is one validated spreadsheet row
type ParsedContact struct {
	Name          string  `json:"name"`
	Phone         string  `json:"phone"`
	Email         string  `json:"email,omitempty"`
	Company       string  `json:"company,omitempty"`
	Value         float64 `json:"value,omitempty"`
	DueDate       string  `json:"dueDate,omitempty"`
	InvoiceNumber string  `json:"invoiceNumber,omitempty"`
	Description   string  `json:"description,omitempty"`
}

// ParseResult summarizes one parsed file. Rows are validated
// independently; a bad row lands in Errors without affecting the rest.
type ParseResult struct {
	Total     int             `json:"total"`
	Processed int             `json:"processed"`
	Errors    []string        `json:"errors"`
	Contacts  []ParsedContact `json:"contacts"`
}

// headerCandidates maps each logical field to the substrings probed
// against the lowercased header row. First matching column wins.
var headerCandidates = map[string][]string{
	"name":        {"nome", "name", "cliente"},
	"phone":       {"telefone", "phone", "celular", "whatsapp"},
	"email":       {"email", "e-mail"},
	"company":     {"empresa", "company"},
	"value":       {"valor", "value", "preco", "price"},
	"dueDate":     {"vencimento", "due", "data"},
	"invoice":     {"documento", "doc", "numero"},
	"description": {"descricao", "description", "obs"},
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var nonDigits = regexp.MustCompile(`\D`)

var nonNumeric = regexp.MustCompile(`[^\d,.-]`)

// dateLayouts are tried in order when normalizing due dates
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"02/01/06",
}

// ParseSpreadsheet decodes CSV or XLSX file bytes into contacts.
// The first row is the header; every other row is validated on its own.
func ParseSpreadsheet(data []byte, filename string) (ParseResult, error) {
	var rows [][]string
	var err error

	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") || strings.HasSuffix(strings.ToLower(filename), ".xls") {
		rows, err = readExcelRows(data)
	} else {
		rows, err = readCSVRows(data)
	}
	if err != nil {
		return ParseResult{}, err
	}

	if len(rows) < 2 {
		return ParseResult{}, fmt.Errorf("file must contain a header row and at least one data row")
	}

	columns := probeHeader(rows[0])
	if columns["name"] < 0 || columns["phone"] < 0 {
		return ParseResult{}, fmt.Errorf("file must contain name and phone columns")
	}

	dataRows := rows[1:]
	result := ParseResult{
		Total:    len(dataRows),
		Errors:   []string{},
		Contacts: []ParsedContact{},
	}

	for i, row := range dataRows {
		// Row numbering matches what the user sees in a spreadsheet app
		rowNum := i + 2
		contact, rowErr := parseRow(row, columns)
		if rowErr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Linha %d: %s", rowNum, rowErr.Error()))
			continue
		}
		result.Contacts = append(result.Contacts, contact)
		result.Processed++
	}

	return result, nil
}

func readCSVRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

// sniffDelimiter picks ';' when the header line leans that way.
// Brazilian spreadsheet exports commonly use semicolons.
func sniffDelimiter(data []byte) rune {
	firstLine := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		firstLine = data[:idx]
	}
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		return ';'
	}
	return ','
}

func readExcelRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet rows: %w", err)
	}
	return rows, nil
}

// probeHeader maps each logical field to its column index, -1 if absent
func probeHeader(header []string) map[string]int {
	lowered := make([]string, len(header))
	for i, h := range header {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	columns := make(map[string]int, len(headerCandidates))
	for field, candidates := range headerCandidates {
		columns[field] = -1
		for i, cell := range lowered {
			if columns[field] >= 0 {
				break
			}
			for _, candidate := range candidates {
				if strings.Contains(cell, candidate) {
					columns[field] = i
					break
				}
			}
		}
	}
	return columns
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseRow(row []string, columns map[string]int) (ParsedContact, error) {
	name := cellAt(row, columns["name"])
	if name == "" {
		return ParsedContact{}, fmt.Errorf("nome é obrigatório")
	}

	rawPhone := cellAt(row, columns["phone"])
	digits := nonDigits.ReplaceAllString(rawPhone, "")
	if len(digits) < 10 || len(digits) > 11 {
		return ParsedContact{}, fmt.Errorf("telefone inválido: %s", rawPhone)
	}

	contact := ParsedContact{
		Name:        name,
		Phone:       FormatPhone(digits),
		Company:     cellAt(row, columns["company"]),
		Description: cellAt(row, columns["description"]),
	}

	if email := cellAt(row, columns["email"]); email != "" {
		if !emailPattern.MatchString(email) {
			return ParsedContact{}, fmt.Errorf("email inválido: %s", email)
		}
		contact.Email = email
	}

	if rawValue := cellAt(row, columns["value"]); rawValue != "" {
		value, err := parseValue(rawValue)
		if err != nil {
			return ParsedContact{}, fmt.Errorf("valor inválido: %s", rawValue)
		}
		contact.Value = value
	}

	// Unparseable dates are dropped silently, unlike bad values
	if rawDate := cellAt(row, columns["dueDate"]); rawDate != "" {
		if normalized, ok := normalizeDate(rawDate); ok {
			contact.DueDate = normalized
		}
	}

	if invoice := cellAt(row, columns["invoice"]); invoice != "" {
		contact.InvoiceNumber = invoice
	}

	return contact, nil
}

// parseValue converts a currency cell to a float. When a decimal comma
// is present, dots are thousands separators and are stripped.
func parseValue(raw string) (float64, error) {
	cleaned := nonNumeric.ReplaceAllString(raw, "")
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	return strconv.ParseFloat(cleaned, 64)
}

// normalizeDate converts a due date cell to YYYY-MM-DD
func normalizeDate(raw string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// FormatPhone renders a digits-only phone in Brazilian display format
func FormatPhone(digits string) string {
	switch len(digits) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", digits[:2], digits[2:7], digits[7:])
	case 10:
		return fmt.Sprintf("(%s) %s-%s", digits[:2], digits[2:6], digits[6:])
	default:
		return digits
	}
}

// NormalizePhone strips a phone down to its digits. Applying it to an
// already normalized phone is a no-op.
func NormalizePhone(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}
