package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alharis/haris/internal/haris/domain"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "categories.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadFile(t *testing.T) {
	p := writeCatalog(t, `
categories:
  - name: adult
    classification: mandatory
    sources:
      - id: porn-hosts
        url: https://lists.example/porn-hosts
        format: hosts
      - id: porn-local
        url: file:///var/lib/haris/porn.txt
        format: domains
  - name: chat
    classification: optional
    sources:
      - id: chat
        url: https://lists.example/chat
        format: adblock
`)
	r, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !r.IsMandatory("adult") || !r.IsOptional("chat") {
		t.Fatalf("unexpected partition: %+v", r.List())
	}
	s, _ := r.Sources("adult")
	if len(s) != 2 || s[0].Format != domain.SourceFormatHosts || s[1].Format != domain.SourceFormatPlain {
		t.Errorf("unexpected adult sources: %+v", s)
	}
	c, _ := r.Sources("chat")
	if c[0].Format != domain.SourceFormatAdblock {
		t.Errorf("unexpected chat format: %v", c[0].Format)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no categories", "categories: []\n", "validation failed"},
		{"bad classification", `
categories:
  - name: adult
    classification: sometimes
    sources:
      - {id: a, url: "https://x.example/a", format: plain}
`, "validation failed"},
		{"bad name", `
categories:
  - name: "Adult Stuff"
    classification: mandatory
    sources:
      - {id: a, url: "https://x.example/a", format: plain}
`, "validation failed"},
		{"missing sources", `
categories:
  - name: adult
    classification: mandatory
`, "validation failed"},
		{"bad format", `
categories:
  - name: adult
    classification: mandatory
    sources:
      - {id: a, url: "https://x.example/a", format: csv}
`, "validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeCatalog(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("LoadFile error = %v, want containing %q", err, tt.want)
			}
		})
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
