package crm

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"ploomesterm/internal/models"
)

// fullPhoneLength is the longest input still treated as a partial phone search.
const fullPhoneLength = 11

// BuildFilter turns the sparse search record into an OData filter expression.
// Clauses follow field declaration order and are joined with " and ".
// An empty record yields an empty string.
func BuildFilter(fields models.SearchFields) string {
	var clauses []string

	for _, field := range models.Fields {
		value := fields.Get(field)
		if value == "" {
			continue
		}
		clauses = append(clauses, filterClause(field, value))
	}

	return strings.Join(clauses, " and ")
}

func filterClause(field models.Field, value string) string {
	encoded := encodeComponent(value)

	switch field {
	case models.FieldName, models.FieldEmail:
		return "contains(" + field.String() + ",'" + encoded + "')"
	case models.FieldOwner:
		return "Owner/Name eq '" + encoded + "'"
	case models.FieldPhone:
		if utf8.RuneCountInString(value) > fullPhoneLength {
			return "Phones/any(p: p.PhoneNumber eq '" + encoded + "')"
		}
		return "Phones/any(p: p.SearchPhoneNumber eq '" + encoded + "')"
	}

	return ""
}

// encodeComponent percent-encodes a value the way browsers encode URI components,
// except that single quotes stay encoded so they cannot close the OData literal.
func encodeComponent(s string) string {
	escaped := url.QueryEscape(s)
	return componentReplacer.Replace(escaped)
}

var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%2A", "*",
	"%28", "(",
	"%29", ")",
)

// ListQuery renders the raw query string for a Contacts page read. Filter values are already
// percent-encoded, so only the structural spaces of the expression get escaped here.
func ListQuery(opts ListOptions) string {
	var params []string

	if filter := BuildFilter(opts.Filter); filter != "" {
		params = append(params, "$filter="+strings.ReplaceAll(filter, " ", "%20"))
	}
	if len(opts.Expand) > 0 {
		params = append(params, "$expand="+strings.Join(opts.Expand, ","))
	}
	if opts.Top > 0 {
		params = append(params, "$top="+strconv.Itoa(opts.Top))
		params = append(params, "$skip="+strconv.Itoa(opts.Skip))
	}

	return strings.Join(params, "&")
}

// PageOptions builds the list options for a 1-based page number.
func PageOptions(filter models.SearchFields, page int, expandOwner bool) ListOptions {
	if page < 1 {
		page = 1
	}

	expand := []string{ExpandPhones}
	if expandOwner {
		expand = append(expand, ExpandOwner)
	}

	return ListOptions{
		Filter: filter,
		Expand: expand,
		Top:    PageSize,
		Skip:   (page - 1) * PageSize,
	}
}
