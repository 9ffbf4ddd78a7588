package forms

import "testing"

func incidentTemplate() Template {
	return Template{
		ID:       "incident",
		Name:     "Incident report",
		IsActive: true,
		Fields: []Field{
			{Key: "summary", Type: FieldText, Required: true},
			{Key: "severity", Type: FieldSelect, Required: true, Options: []string{"low", "medium", "high"}},
			{Key: "injuries", Type: FieldBool},
			{Key: "headcount", Type: FieldNumber},
			{Key: "occurred_on", Type: FieldDate},
		},
	}
}

func TestValidateTemplate(t *testing.T) {
	t.Run("valid schema", func(t *testing.T) {
		if problems := ValidateTemplate(incidentTemplate().Fields); problems != nil {
			t.Fatalf("expected no problems, got %v", problems)
		}
	})

	t.Run("duplicate key", func(t *testing.T) {
		fields := []Field{
			{Key: "summary", Type: FieldText},
			{Key: "summary", Type: FieldText},
		}
		problems := ValidateTemplate(fields)
		if problems["fields[1]"] == "" {
			t.Fatalf("expected duplicate key problem, got %v", problems)
		}
	})

	t.Run("select without options", func(t *testing.T) {
		problems := ValidateTemplate([]Field{{Key: "severity", Type: FieldSelect}})
		if problems["fields[0]"] == "" {
			t.Fatalf("expected options problem, got %v", problems)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		problems := ValidateTemplate([]Field{{Key: "x", Type: "slider"}})
		if problems["fields[0]"] == "" {
			t.Fatalf("expected unknown type problem, got %v", problems)
		}
	})
}

func TestValidateAnswers(t *testing.T) {
	template := incidentTemplate()

	t.Run("valid submission", func(t *testing.T) {
		answers := map[string]any{
			"summary":     "Slip near the entrance",
			"severity":    "medium",
			"injuries":    false,
			"headcount":   float64(2),
			"occurred_on": "2026-03-09",
		}
		if problems := ValidateAnswers(template, answers); problems != nil {
			t.Fatalf("expected no problems, got %v", problems)
		}
	})

	t.Run("missing required", func(t *testing.T) {
		problems := ValidateAnswers(template, map[string]any{"severity": "low"})
		if problems["summary"] != "this field is required" {
			t.Fatalf("expected required problem, got %v", problems)
		}
	})

	t.Run("bad option", func(t *testing.T) {
		problems := ValidateAnswers(template, map[string]any{"summary": "x", "severity": "critical"})
		if problems["severity"] == "" {
			t.Fatalf("expected option problem, got %v", problems)
		}
	})

	t.Run("wrong types", func(t *testing.T) {
		answers := map[string]any{
			"summary":     "x",
			"severity":    "low",
			"injuries":    "yes",
			"headcount":   "two",
			"occurred_on": "March 9th",
		}
		problems := ValidateAnswers(template, answers)
		for _, key := range []string{"injuries", "headcount", "occurred_on"} {
			if problems[key] == "" {
				t.Errorf("expected problem for %q, got %v", key, problems)
			}
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		problems := ValidateAnswers(template, map[string]any{"summary": "x", "severity": "low", "extra": 1})
		if problems["extra"] != "unknown field" {
			t.Fatalf("expected unknown field problem, got %v", problems)
		}
	})

	t.Run("optional field may be absent", func(t *testing.T) {
		if problems := ValidateAnswers(template, map[string]any{"summary": "x", "severity": "low"}); problems != nil {
			t.Fatalf("expected no problems, got %v", problems)
		}
	})
}
