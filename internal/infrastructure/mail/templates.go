// Package mail renders email templates and submits messages over SMTP.
package mail

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"NewsDigest/internal/ports"
)

// Template names.
const (
	TemplateDigest        = "digest"
	TemplateVerify        = "verify"
	TemplateResetPassword = "resetPassword"
)

//go:embed templates/*.html
var embedded embed.FS

// Templates is a read-through cache of raw template files. Entries are loaded
// on first use and kept for the life of the process.
type Templates struct {
	source fs.FS

	mu    sync.Mutex
	cache map[string]string
}

var _ ports.TemplateRenderer = (*Templates)(nil)

// NewTemplates reads from dir when set, otherwise from the built-in templates.
func NewTemplates(dir string) *Templates {
	if strings.TrimSpace(dir) != "" {
		return NewTemplatesFS(os.DirFS(dir))
	}
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(fmt.Sprintf("mail: embedded templates: %v", err))
	}
	return NewTemplatesFS(sub)
}

// NewTemplatesFS serves templates named <name>.html from source.
func NewTemplatesFS(source fs.FS) *Templates {
	return &Templates{source: source, cache: make(map[string]string)}
}

// Load returns the raw template text.
func (t *Templates) Load(name string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tpl, ok := t.cache[name]; ok {
		return tpl, nil
	}
	raw, err := fs.ReadFile(t.source, name+".html")
	if err != nil {
		return "", fmt.Errorf("load template %s: %w", name, err)
	}
	t.cache[name] = string(raw)
	return t.cache[name], nil
}

// Render loads the template and substitutes every {{KEY}} in vars.
func (t *Templates) Render(name string, vars map[string]string) (string, error) {
	tpl, err := t.Load(name)
	if err != nil {
		return "", err
	}
	return Substitute(tpl, vars), nil
}

// Substitute replaces {{KEY}} tokens. Values are inserted verbatim; callers
// escape anything user supplied. Unknown tokens are left as is.
func Substitute(tpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
