package model

// RequestTemplate is a named checklist that can be applied to a deal.
type RequestTemplate struct {
	Name     string         `yaml:"name" json:"name"`
	Requests []RequestDraft `yaml:"requests" json:"requests"`
}

// RequestDraft describes one request created when a template is applied.
// Categories and subcategories are referenced by name.
type RequestDraft struct {
	Category    string `yaml:"category" json:"category"`
	Subcategory string `yaml:"subcategory,omitempty" json:"subcategory,omitempty"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Priority    string `yaml:"priority,omitempty" json:"priority,omitempty"`
}
