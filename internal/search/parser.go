// Package search parses the lead search box into structured terms.
package search

import (
	"strconv"
	"strings"
)

// Query represents a parsed search string.
type Query struct {
	TextTerms     []string // bare words and quoted phrases, matched against any text column
	NameTerms     []string // name: filters
	EmailTerms    []string // email: filters
	CompanyTerms  []string // company: filters
	PhoneTerms    []string // phone: filters
	CampaignTerms []string // campaign: filters
	Sources       []string // source: filters
	HasEmail      *bool    // has:email
	HasPhone      *bool    // has:phone
	MinValueCents *int64   // min: deal value
	MaxValueCents *int64   // max: deal value
}

// IsEmpty returns true if the query has no search criteria.
func (q *Query) IsEmpty() bool {
	return len(q.TextTerms) == 0 &&
		len(q.NameTerms) == 0 &&
		len(q.EmailTerms) == 0 &&
		len(q.CompanyTerms) == 0 &&
		len(q.PhoneTerms) == 0 &&
		len(q.CampaignTerms) == 0 &&
		len(q.Sources) == 0 &&
		q.HasEmail == nil &&
		q.HasPhone == nil &&
		q.MinValueCents == nil &&
		q.MaxValueCents == nil
}

// operatorFn applies a parsed operator:value pair to the query.
type operatorFn func(q *Query, value string)

var operators = map[string]operatorFn{
	"name": func(q *Query, v string) {
		q.NameTerms = append(q.NameTerms, v)
	},
	"email": func(q *Query, v string) {
		q.EmailTerms = append(q.EmailTerms, strings.ToLower(v))
	},
	"company": func(q *Query, v string) {
		q.CompanyTerms = append(q.CompanyTerms, v)
	},
	"co": func(q *Query, v string) {
		q.CompanyTerms = append(q.CompanyTerms, v)
	},
	"phone": func(q *Query, v string) {
		q.PhoneTerms = append(q.PhoneTerms, v)
	},
	"campaign": func(q *Query, v string) {
		q.CampaignTerms = append(q.CampaignTerms, v)
	},
	"source": func(q *Query, v string) {
		q.Sources = append(q.Sources, strings.ToLower(v))
	},
	"has": func(q *Query, v string) {
		b := true
		switch strings.ToLower(v) {
		case "email":
			q.HasEmail = &b
		case "phone":
			q.HasPhone = &b
		}
	},
	"min": func(q *Query, v string) {
		if amt := parseAmount(v); amt != nil {
			q.MinValueCents = amt
		}
	},
	"max": func(q *Query, v string) {
		if amt := parseAmount(v); amt != nil {
			q.MaxValueCents = amt
		}
	},
}

// Parse parses a search string into a Query.
//
// Supported operators:
//   - name:, email:, company: (or co:), phone:, campaign:, source:
//   - has:email, has:phone
//   - min:, max: deal value in whole currency units (e.g., 500, 5k, 1.5m)
//   - Bare words and "quoted phrases" match any text column
//
// Unknown operators are kept verbatim as text terms.
func Parse(queryStr string) *Query {
	q := &Query{}
	for _, token := range tokenize(queryStr) {
		if isQuotedPhrase(token) {
			q.TextTerms = append(q.TextTerms, unquote(token))
			continue
		}

		if idx := strings.Index(token, ":"); idx > 0 {
			op := strings.ToLower(token[:idx])
			value := unquote(token[idx+1:])

			if handler, ok := operators[op]; ok && value != "" {
				handler(q, value)
			} else {
				q.TextTerms = append(q.TextTerms, token)
			}
			continue
		}

		q.TextTerms = append(q.TextTerms, token)
	}
	return q
}

// unquote removes surrounding double quotes from a string if present.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// isQuotedPhrase returns true if the token is a double-quoted phrase.
func isQuotedPhrase(token string) bool {
	return len(token) > 2 && token[0] == '"' && token[len(token)-1] == '"'
}

// tokenize splits a query string, preserving quoted phrases and operator:value pairs.
// Handles cases like company:"Acme Corp" where the operator and quoted value stay together.
func tokenize(queryStr string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)
	afterColon := false
	opQuoted := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, char := range queryStr {
		switch {
		case (char == '"' || char == '\'') && !inQuotes:
			inQuotes = true
			quoteChar = char
			opQuoted = afterColon
			if afterColon {
				current.WriteRune('"')
			} else {
				flush()
			}
			afterColon = false
		case char == quoteChar && inQuotes:
			inQuotes = false
			if opQuoted {
				current.WriteRune('"')
				flush()
			} else if current.Len() > 0 {
				tokens = append(tokens, "\""+current.String()+"\"")
				current.Reset()
			}
			quoteChar = 0
			opQuoted = false
		case (char == ' ' || char == '\t') && !inQuotes:
			flush()
			afterColon = false
		default:
			current.WriteRune(char)
			afterColon = char == ':'
		}
	}
	flush()

	return tokens
}

// parseAmount parses whole-unit amounts like 500, 5k, 1.5m into cents.
func parseAmount(value string) *int64 {
	value = strings.TrimSpace(strings.ToLower(value))
	value = strings.TrimPrefix(value, "$")
	mult := 1.0
	switch {
	case strings.HasSuffix(value, "k"):
		mult = 1_000
		value = strings.TrimSuffix(value, "k")
	case strings.HasSuffix(value, "m"):
		mult = 1_000_000
		value = strings.TrimSuffix(value, "m")
	}
	num, err := strconv.ParseFloat(value, 64)
	if err != nil || num < 0 {
		return nil
	}
	cents := int64(num * mult * 100)
	return &cents
}
