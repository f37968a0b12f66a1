// Package dashboard renders the Grafana dashboard for the GreptimeDB tick
// and event tables.
package dashboard

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

var funcMap = template.FuncMap{
	"env": func(key string) (string, error) {
		v := os.Getenv(key)
		if v == "" {
			return "", fmt.Errorf("environment variable %s not set", key)
		}
		return v, nil
	},
	"envOr": func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	},
}

// Render executes every embedded template and writes the dashboards to
// outDir. GREPTIMEDB_DATASOURCE_UID must be set; table names follow
// GREPTIMEDB_TICK_TABLE and GREPTIMEDB_EVENT_TABLE when present.
func Render(outDir string) error {
	t, err := template.New("dashboards").Funcs(funcMap).ParseFS(templates, "templates/*.json.tmpl")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, tpl := range t.Templates() {
		name := tpl.Name()
		if !strings.HasSuffix(name, ".tmpl") {
			continue
		}
		var b strings.Builder
		if err := tpl.Execute(&b, nil); err != nil {
			return err
		}
		if !json.Valid([]byte(b.String())) {
			return fmt.Errorf("%s: rendered dashboard is not valid JSON", name)
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
			return err
		}
	}
	return nil
}
