package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"diligence-tracker/internal/model"
)

// TemplateService loads request templates from YAML files in a directory.
// A template named "financial" lives in financial.yaml.
type TemplateService struct {
	dir      string
	requests *RequestService
}

func NewTemplateService(dir string, requests *RequestService) *TemplateService {
	return &TemplateService{dir: dir, requests: requests}
}

// Names lists the available templates.
func (s *TemplateService) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read templates: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *TemplateService) Load(name string) (model.RequestTemplate, error) {
	var tpl model.RequestTemplate
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return tpl, invalid("bad template name %q", name)
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, name+".yaml"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return tpl, fmt.Errorf("template %q: %w", name, ErrNotFound)
		}
		return tpl, fmt.Errorf("read template %q: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, &tpl); err != nil {
		return tpl, invalid("parse template %q: %v", name, err)
	}
	if tpl.Name == "" {
		tpl.Name = name
	}
	return tpl, nil
}

// Apply creates the named template's requests for a deal.
func (s *TemplateService) Apply(ctx context.Context, dealID uint, name string, actor uint) ([]model.Request, error) {
	tpl, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	return s.requests.ApplyTemplate(ctx, dealID, tpl, actor)
}
