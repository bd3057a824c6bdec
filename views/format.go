package views

import (
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/algenord/portal/gateway"
)

// Work types.
const (
	WorkPaving     = "PAVING_CLEANING"
	WorkWoodenDeck = "WOODEN_DECK_CLEANING"
	WorkRoof       = "ROOF_CLEANING"
	WorkFacade     = "FACADE_CLEANING"
)

// Customer types.
const (
	CustomerPrivate  = "PRIVATE_CUSTOMER"
	CustomerBusiness = "BUSINESS_CUSTOMER"
)

// Option is a value with its display label.
type Option struct {
	Value string
	Label string
}

// WorkTypes lists the work types in display order.
var WorkTypes = []Option{
	{WorkPaving, "Fliserens"},
	{WorkWoodenDeck, "Rens af træterrasse"},
	{WorkRoof, "Tagrens"},
	{WorkFacade, "Facaderens"},
}

// CustomerTypes lists the customer types in display order.
var CustomerTypes = []Option{
	{CustomerPrivate, "Privat kunde"},
	{CustomerBusiness, "Erhvervskunde"},
}

var danishTitle = cases.Title(language.Danish)

// Label returns the display label of an enum value. Values without a
// label are shown title-cased with underscores as spaces.
func Label(value string) string {
	for _, opts := range [][]Option{WorkTypes, CustomerTypes} {
		for _, o := range opts {
			if o.Value == value {
				return o.Label
			}
		}
	}
	return danishTitle.String(strings.ReplaceAll(value, "_", " "))
}

func valid(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

var danishMonths = [...]string{
	"januar", "februar", "marts", "april", "maj", "juni",
	"juli", "august", "september", "oktober", "november", "december",
}

var dateLayouts = []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04:05.999999999"}

// DanishDate formats a backend date as "2. januar 2024". Unparseable input
// is returned unchanged.
func DanishDate(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return fmt.Sprintf("%d. %s %d", t.Day(), danishMonths[t.Month()-1], t.Year())
		}
	}
	return raw
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(n int, s string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

var funcs = template.FuncMap{
	"label":         Label,
	"date":          DanishDate,
	"truncate":      truncate,
	"workTypes":     func() []Option { return WorkTypes },
	"customerTypes": func() []Option { return CustomerTypes },
	"withData":      func(p pageData, data any) pageData { p.Data = data; return p },
	"emptyProject":  func() *gateway.Project { return &gateway.Project{} },
	"emptyUser":     func() *gateway.User { return &gateway.User{} },
}
