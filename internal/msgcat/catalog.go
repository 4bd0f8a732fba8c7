package msgcat

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var defaultFiles embed.FS

// Catalog holds toast/HUD string templates: embedded defaults plus an
// optional override directory. Keys are flattened dot paths, values are
// text/template sources.
type Catalog struct {
	mu   sync.RWMutex
	data map[string]string
}

// New loads the embedded defaults, then applies *.yaml overrides from dir
// when dir is non-empty.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{data: make(map[string]string)}
	raw, err := fs.ReadFile(defaultFiles, "messages.en.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded messages: %w", err)
	}
	if err := c.applyYAML(raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := c.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read message dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	seen := make(map[string]string)
	for _, name := range files {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		flat, err := flattenYAML(raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for key := range flat {
			if prev, dup := seen[key]; dup {
				return fmt.Errorf("duplicate override key %q in %s and %s", key, prev, name)
			}
			seen[key] = name
		}
		c.mu.Lock()
		for key, tpl := range flat {
			c.data[key] = tpl
		}
		c.mu.Unlock()
	}
	return nil
}

func (c *Catalog) applyYAML(raw []byte) error {
	flat, err := flattenYAML(raw)
	if err != nil {
		return err
	}
	c.mu.Lock()
	for key, tpl := range flat {
		c.data[key] = tpl
	}
	c.mu.Unlock()
	return nil
}

func flattenYAML(raw []byte) (map[string]string, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	flat := make(map[string]string)
	if err := flatten(tree, "", flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func flatten(src any, prefix string, out map[string]string) error {
	switch v := src.(type) {
	case map[string]any:
		for k, child := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flatten(child, key, out); err != nil {
				return err
			}
		}
		return nil
	case string:
		if prefix == "" {
			return errors.New("string value without key prefix")
		}
		out[prefix] = v
		return nil
	case nil:
		return nil
	default:
		// Only string leaves are allowed.
		return fmt.Errorf("unsupported value at %s: %T", prefix, v)
	}
}

// Render executes the template stored under key. Missing keys and missing
// template fields are errors.
func (c *Catalog) Render(key string, data any) (string, error) {
	c.mu.RLock()
	tpl, ok := c.data[strings.TrimSpace(key)]
	c.mu.RUnlock()
	if !ok || strings.TrimSpace(tpl) == "" {
		return "", fmt.Errorf("message not found: %s", key)
	}
	t, err := template.New(key).Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Line renders a message and falls back to the bare key if anything goes
// wrong, so a catalog gap never drops a toast entirely.
func (c *Catalog) Line(key string, data any) string {
	s, err := c.Render(key, data)
	if err != nil {
		return key
	}
	return s
}
