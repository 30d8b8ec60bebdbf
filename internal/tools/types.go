// Package tools holds the allow-listed tool catalog and the dispatcher that
// validates a classified tool request and runs it against the remote tool
// service.
package tools

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Spec describes one callable remote tool. Header, when set, replaces the
// generic result header; {param} placeholders are filled from the request.
type Spec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Required    []string `yaml:"required"`
	Header      string   `yaml:"header"`
}

// Catalog is the single allow-list consumed by both the intent prompt and
// dispatch validation. It is read-only after construction.
type Catalog struct {
	specs  []Spec
	byName map[string]Spec
}

func NewCatalog(specs []Spec) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return nil, fmt.Errorf("tool catalog: entry without a name")
		}
		if _, dup := c.byName[s.Name]; dup {
			return nil, fmt.Errorf("tool catalog: duplicate tool %q", s.Name)
		}
		c.specs = append(c.specs, s)
		c.byName[s.Name] = s
	}
	return c, nil
}

// DefaultCatalog is the task-management tool set.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog([]Spec{
		{
			Name:        "list-tasks",
			Description: "List every task",
		},
		{
			Name:        "get-tasks-by-user",
			Description: "Tasks assigned to a user",
			Required:    []string{"email"},
			Header:      "here are tasks for {email}",
		},
		{
			Name:        "get-tasks-due-today",
			Description: "Tasks due today",
			Header:      "here are tasks due today",
		},
		{
			Name:        "get-tasks-by-date",
			Description: "Tasks due on a given date (YYYY-MM-DD)",
			Required:    []string{"date"},
			Header:      "here are tasks due on {date}",
		},
		{
			Name:        "create-task",
			Description: "Create a new task",
			Required:    []string{"title", "due_date"},
		},
		{
			Name:        "update-task-status",
			Description: "Change the status of an existing task",
			Required:    []string{"task_id", "status"},
		},
	})
	return c
}

type catalogFile struct {
	Tools []Spec `yaml:"tools"`
}

// LoadCatalog reads a YAML file of the form:
//
//	tools:
//	  - name: create-task
//	    description: Create a new task
//	    required: [title, due_date]
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tool catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse tool catalog: %w", err)
	}
	if len(f.Tools) == 0 {
		return nil, fmt.Errorf("tool catalog %s has no tools", path)
	}
	return NewCatalog(f.Tools)
}

// Specs returns the tools in declaration order.
func (c *Catalog) Specs() []Spec {
	out := make([]Spec, len(c.specs))
	copy(out, c.specs)
	return out
}

func (c *Catalog) Lookup(name string) (Spec, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// Missing returns the required parameters of the named tool absent from
// params, in declaration order.
func (c *Catalog) Missing(name string, params map[string]string) []string {
	s, ok := c.byName[name]
	if !ok {
		return nil
	}
	var missing []string
	for _, p := range s.Required {
		if _, ok := params[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

const genericHeader = "here are the results"

// HeaderFor renders the result header for a call with params.
func (s Spec) HeaderFor(params map[string]string) string {
	h := s.Header
	if h == "" {
		h = genericHeader
	}
	for k, v := range params {
		h = strings.ReplaceAll(h, "{"+k+"}", v)
	}
	return "According to the database, " + h
}
