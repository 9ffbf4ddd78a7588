package forms

import (
	"fmt"
	"time"
)

// ValidateTemplate checks a field schema for empty or duplicate keys and
// unknown field types.
func ValidateTemplate(fields []Field) map[string]string {
	problems := map[string]string{}
	seen := map[string]bool{}
	for i, field := range fields {
		pos := fmt.Sprintf("fields[%d]", i)
		if field.Key == "" {
			problems[pos] = "key is required"
			continue
		}
		if seen[field.Key] {
			problems[pos] = fmt.Sprintf("duplicate key %q", field.Key)
			continue
		}
		seen[field.Key] = true

		switch field.Type {
		case FieldText, FieldTextarea, FieldNumber, FieldBool, FieldDate:
		case FieldSelect:
			if len(field.Options) == 0 {
				problems[pos] = "select field needs options"
			}
		default:
			problems[pos] = fmt.Sprintf("unknown field type %q", field.Type)
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// ValidateAnswers checks a submission against the template schema and
// returns per-field problems keyed by field key.
func ValidateAnswers(template Template, answers map[string]any) map[string]string {
	problems := map[string]string{}
	known := map[string]Field{}
	for _, field := range template.Fields {
		known[field.Key] = field
	}

	for key := range answers {
		if _, ok := known[key]; !ok {
			problems[key] = "unknown field"
		}
	}

	for _, field := range template.Fields {
		value, ok := answers[field.Key]
		if !ok || value == nil || value == "" {
			if field.Required {
				problems[field.Key] = "this field is required"
			}
			continue
		}
		if msg := checkFieldValue(field, value); msg != "" {
			problems[field.Key] = msg
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

func checkFieldValue(field Field, value any) string {
	switch field.Type {
	case FieldText, FieldTextarea:
		if _, ok := value.(string); !ok {
			return "must be text"
		}
	case FieldNumber:
		switch value.(type) {
		case float64, int:
		default:
			return "must be a number"
		}
	case FieldBool:
		if _, ok := value.(bool); !ok {
			return "must be true or false"
		}
	case FieldDate:
		s, ok := value.(string)
		if !ok {
			return "must be a date in YYYY-MM-DD form"
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return "must be a date in YYYY-MM-DD form"
		}
	case FieldSelect:
		s, ok := value.(string)
		if !ok {
			return "must be one of the listed options"
		}
		for _, option := range field.Options {
			if option == s {
				return ""
			}
		}
		return "must be one of the listed options"
	}
	return ""
}
