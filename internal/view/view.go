// Package view renders server-side templates with shared funcs, a layout,
// and a parse cache (bypassed when DEV=1 for live editing).
package view

import (
	"bytes"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"autonomo/internal/i18n"
	"autonomo/internal/middleware"
)

var (
	baseDir  string
	once     sync.Once
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
)

func detectBase() {
	// Detect templates directory whether running from repo root or a subdir
	// (e.g. cmd/server, or a package dir under go test).
	candidates := []string{"templates", "../templates", "../../templates", "../../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// Funcs returns the standard func map including i18n and money helpers.
func Funcs(r *http.Request) template.FuncMap {
	lang := middleware.LangFrom(r)
	theme := middleware.ThemeFrom(r)
	return template.FuncMap{
		"t":     func(code string) string { return i18n.T(lang, code) },
		"lang":  func() string { return lang },
		"theme": func() string { return theme },
		"year":  func() int { return time.Now().Year() },
		"money": func(v any, currency string) string {
			switch c := v.(type) {
			case int64:
				return Money(c, currency)
			case *int64:
				if c == nil {
					return ""
				}
				return Money(*c, currency)
			case int:
				return Money(int64(c), currency)
			}
			return ""
		},
		"date": func(v any) string {
			switch t := v.(type) {
			case time.Time:
				return t.Format("02/01/2006")
			case *time.Time:
				if t == nil {
					return ""
				}
				return t.Format("02/01/2006")
			}
			return ""
		},
	}
}

// Money formats integer cents for display: "1.234,56 €" for EUR (Spanish
// convention) and "$1,234.56" for USD.
func Money(cents int64, currency string) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100
	var out string
	if currency == "USD" {
		out = "$" + group(whole, ',') + "." + twoDigits(frac)
	} else {
		out = group(whole, '.') + "," + twoDigits(frac) + " €"
	}
	if neg {
		out = "-" + out
	}
	return out
}

func group(n int64, sep byte) string {
	var tail []byte
	for n >= 1000 {
		rem := n % 1000
		n /= 1000
		tail = append([]byte{sep, byte('0' + rem/100), byte('0' + (rem/10)%10), byte('0' + rem%10)}, tail...)
	}
	var head []byte
	for {
		head = append([]byte{byte('0' + n%10)}, head...)
		n /= 10
		if n == 0 {
			break
		}
	}
	return string(append(head, tail...))
}

func twoDigits(n int64) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}

// Render parses and executes a template file with the shared layout and funcs.
// name should be the filename (e.g. "dashboard.html").
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	once.Do(detectBase)
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	key := name
	devMode := os.Getenv("DEV") == "1"
	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[key]
		tplCache.RUnlock()
		if ok && t != nil {
			return t.Execute(w, data)
		}
	}

	mainPath := filepath.Join(baseDir, name)
	layoutPath := filepath.Join(baseDir, "layout.html")
	funcMap := Funcs(r)

	var t *template.Template
	contentBytes, err := os.ReadFile(mainPath)
	if err != nil {
		return err
	}
	useLayout := !bytes.Contains(bytes.ToLower(contentBytes), []byte("<!doctype"))
	if useLayout {
		if fi, serr := os.Stat(layoutPath); serr == nil && !fi.IsDir() {
			parsed, perr := template.New("layout.html").Funcs(funcMap).ParseFiles(layoutPath, mainPath)
			if perr != nil {
				return perr
			}
			t = parsed
		} else {
			useLayout = false
		}
	}
	if !useLayout {
		parsed, perr := template.New(name).Funcs(funcMap).ParseFiles(mainPath)
		if perr != nil {
			return perr
		}
		t = parsed
	}
	if !devMode {
		tplCache.Lock()
		tplCache.m[key] = t
		tplCache.Unlock()
	}
	return t.Execute(w, data)
}
