package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded /static assets.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

var printer = message.NewPrinter(language.English)

// Money renders an amount in pesos with thousands separators.
func Money(v float64) string {
	return printer.Sprintf("₱%.2f", v)
}

// CompactMoney renders large amounts with a magnitude suffix, e.g. ₱5.28T.
func CompactMoney(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e12:
		return printer.Sprintf("₱%.2fT", v/1e12)
	case abs >= 1e9:
		return printer.Sprintf("₱%.2fB", v/1e9)
	case abs >= 1e6:
		return printer.Sprintf("₱%.2fM", v/1e6)
	default:
		return Money(v)
	}
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "—"
	}
	return t.Format("Jan 2, 2006")
}

func inputDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func percent(part, whole float64) string {
	if whole <= 0 {
		return "0%"
	}
	return printer.Sprintf("%.1f%%", part/whole*100)
}

func toJSON(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

func statusClass(status any) string {
	switch strings.ToLower(strings.TrimSpace(toString(status))) {
	case "completed":
		return "badge-success"
	case "ongoing":
		return "badge-primary"
	default:
		return "badge-secondary"
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case interface{ String() string }:
		return s.String()
	default:
		b, _ := json.Marshal(v)
		return strings.Trim(string(b), `"`)
	}
}

// dict builds a map from alternating keys and values for passing several
// values into a nested template.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

// LoadTemplates parses the embedded page templates. imageURL turns a stored
// image key into a public URL.
func LoadTemplates(imageURL func(string) string) (*template.Template, error) {
	funcs := template.FuncMap{
		"money":        Money,
		"compactMoney": CompactMoney,
		"date":         formatDate,
		"inputDate":    inputDate,
		"percent":      percent,
		"json":         toJSON,
		"statusClass":  statusClass,
		"imageURL":     imageURL,
		"year":         func() int { return time.Now().Year() },
		"same":         func(a, b any) bool { return toString(a) == toString(b) },
		"dict":         dict,
	}
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}
