package crmtest

import (
	"fmt"
	"regexp"
	"strings"

	"ploomesterm/internal/models"
)

type predicate func(contact models.Contact, users map[int64]string) bool

var (
	containsClause = regexp.MustCompile(`^contains\((Name|Email),'(.*)'\)$`)
	ownerClause    = regexp.MustCompile(`^Owner/Name eq '(.*)'$`)
	phoneClause    = regexp.MustCompile(`^Phones/any\(p: p\.(PhoneNumber|SearchPhoneNumber) eq '(.*)'\)$`)
)

// parseFilter understands the subset of OData the client emits. The query value arrives
// already decoded once by net/url.
func parseFilter(filter string) (predicate, error) {
	if filter == "" {
		return func(models.Contact, map[int64]string) bool { return true }, nil
	}

	var preds []predicate
	for _, clause := range strings.Split(filter, " and ") {
		pred, err := parseClause(clause)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}

	return func(c models.Contact, users map[int64]string) bool {
		for _, p := range preds {
			if !p(c, users) {
				return false
			}
		}
		return true
	}, nil
}

func parseClause(clause string) (predicate, error) {
	if m := containsClause.FindStringSubmatch(clause); m != nil {
		field, value := m[1], strings.ToLower(m[2])
		return func(c models.Contact, _ map[int64]string) bool {
			target := c.Name
			if field == "Email" {
				target = c.Email
			}
			return strings.Contains(strings.ToLower(target), value)
		}, nil
	}

	if m := ownerClause.FindStringSubmatch(clause); m != nil {
		name := m[1]
		return func(c models.Contact, users map[int64]string) bool {
			return c.OwnerID != nil && users[*c.OwnerID] == name
		}, nil
	}

	if m := phoneClause.FindStringSubmatch(clause); m != nil {
		field, value := m[1], m[2]
		return func(c models.Contact, _ map[int64]string) bool {
			for _, p := range c.Phones {
				number := p.PhoneNumber
				if field == "SearchPhoneNumber" {
					number = digits(number)
				}
				if number == value {
					return true
				}
			}
			return false
		}, nil
	}

	return nil, fmt.Errorf("unsupported filter clause %q", clause)
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
