package forms

import "time"

const (
	FieldText     = "text"
	FieldNumber   = "number"
	FieldBool     = "bool"
	FieldSelect   = "select"
	FieldDate     = "date"
	FieldTextarea = "textarea"
)

type Field struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type Template struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"organizationId"`
	Name      string    `json:"name"`
	Fields    []Field   `json:"fields"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type Submission struct {
	ID         string         `json:"id"`
	OrgID      string         `json:"organizationId"`
	TemplateID string         `json:"templateId"`
	ProfileID  string         `json:"profileId"`
	Answers    map[string]any `json:"answers"`
	CreatedAt  time.Time      `json:"createdAt"`
}
