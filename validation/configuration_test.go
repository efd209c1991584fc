package validation

import (
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

// configDoc decodes a JSON literal into the generic document shape the
// engine receives from its collaborators.
func configDoc(t *testing.T, raw string) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return doc
}

const validConfigJSON = `{
	"admin_name": "ada",
	"survey_name": "languages",
	"title": "Programming languages",
	"description": "Which ones do you use?",
	"start": 1000,
	"end": 2000,
	"mode": 1,
	"fields": [
		{
			"type": "email",
			"title": "Your email",
			"description": "",
			"regex": "^[^@]+@example\\.com$",
			"hint": "name@example.com"
		},
		{
			"type": "option",
			"title": "I accept the terms",
			"description": "",
			"mandatory": true
		},
		{
			"type": "radio",
			"title": "Favorite",
			"description": "",
			"fields": [
				{"type": "option", "title": "Go", "description": "", "mandatory": false},
				{"type": "option", "title": "Python", "description": "", "mandatory": false}
			]
		}
	]
}`

func hasError(errs Errors, path, code string) bool {
	for _, e := range errs {
		if e.Path == path && e.Code == code {
			return true
		}
	}
	return false
}

func TestValidateConfiguration_Valid(t *testing.T) {
	doc := configDoc(t, validConfigJSON)
	if errs := ValidateConfiguration(doc); errs != nil {
		t.Fatalf("expected acceptance, got %v", errs)
	}
}

func TestParseConfiguration_Decodes(t *testing.T) {
	cfg, errs := ParseConfiguration(configDoc(t, validConfigJSON))
	if errs != nil {
		t.Fatalf("expected acceptance, got %v", errs)
	}
	if cfg.AdminName != "ada" || cfg.SurveyName != "languages" {
		t.Errorf("bad names: %q %q", cfg.AdminName, cfg.SurveyName)
	}
	if cfg.Start != 1000 || cfg.End != 2000 || cfg.Mode != 1 {
		t.Errorf("bad numbers: %d %d %d", cfg.Start, cfg.End, cfg.Mode)
	}
	if len(cfg.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(cfg.Fields))
	}
}

func TestValidateConfiguration_NotAnObject(t *testing.T) {
	errs := ValidateConfiguration([]any{"nope"})
	if !hasError(errs, "", CodeStructuralMismatch) {
		t.Errorf("expected structural mismatch, got %v", errs)
	}
}

func TestValidateConfiguration_KeySet(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		doc := configDoc(t, validConfigJSON)
		delete(doc, "mode")
		errs := ValidateConfiguration(doc)
		if !hasError(errs, "mode", CodeMissingField) {
			t.Errorf("expected missing_field at mode, got %v", errs)
		}
	})
	t.Run("extra key", func(t *testing.T) {
		doc := configDoc(t, validConfigJSON)
		doc["color"] = "green"
		errs := ValidateConfiguration(doc)
		if !hasError(errs, "color", CodeUnknownField) {
			t.Errorf("expected unknown_field at color, got %v", errs)
		}
	})
}

func TestValidateConfiguration_FieldKeySets(t *testing.T) {
	t.Run("extra key on option", func(t *testing.T) {
		doc := configDoc(t, validConfigJSON)
		field := doc["fields"].([]any)[1].(map[string]any)
		field["color"] = "red"
		errs := ValidateConfiguration(doc)
		if !hasError(errs, "fields[1].color", CodeUnknownField) {
			t.Errorf("expected unknown_field, got %v", errs)
		}
	})
	t.Run("missing key on email", func(t *testing.T) {
		doc := configDoc(t, validConfigJSON)
		field := doc["fields"].([]any)[0].(map[string]any)
		delete(field, "hint")
		errs := ValidateConfiguration(doc)
		if !hasError(errs, "fields[0].hint", CodeMissingField) {
			t.Errorf("expected missing_field, got %v", errs)
		}
	})
	t.Run("foreign kind attribute", func(t *testing.T) {
		// an option carrying a text attribute has a superset key set
		doc := configDoc(t, validConfigJSON)
		field := doc["fields"].([]any)[1].(map[string]any)
		field["min_chars"] = 1
		errs := ValidateConfiguration(doc)
		if !hasError(errs, "fields[1].min_chars", CodeUnknownField) {
			t.Errorf("expected unknown_field, got %v", errs)
		}
	})
}

func TestValidateConfiguration_KindRestrictions(t *testing.T) {
	tests := []struct {
		name  string
		field string
	}{
		{"text at top level", `{
			"type": "text", "title": "T", "description": "",
			"min_chars": 0, "max_chars": 10
		}`},
		{"selection at top level", `{
			"type": "selection", "title": "T", "description": "",
			"min_select": 0, "max_select": 1, "fields": []
		}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := configDoc(t, validConfigJSON)
			doc["fields"] = append(doc["fields"].([]any), configDoc(t, tt.field))
			errs := ValidateConfiguration(doc)
			if !hasError(errs, "fields[3]", CodeStructuralMismatch) {
				t.Errorf("expected structural mismatch at fields[3], got %v", errs)
			}
		})
	}

	t.Run("radio nested in radio", func(t *testing.T) {
		doc := configDoc(t, validConfigJSON)
		radio := doc["fields"].([]any)[2].(map[string]any)
		radio["fields"] = append(radio["fields"].([]any), configDoc(t, `{
			"type": "radio", "title": "inner", "description": "", "fields": []
		}`))
		errs := ValidateConfiguration(doc)
		if !hasError(errs, "fields[2].fields[2]", CodeStructuralMismatch) {
			t.Errorf("expected structural mismatch, got %v", errs)
		}
	})

	t.Run("text nested in radio", func(t *testing.T) {
		doc := configDoc(t, validConfigJSON)
		radio := doc["fields"].([]any)[2].(map[string]any)
		radio["fields"] = append(radio["fields"].([]any), configDoc(t, `{
			"type": "text", "title": "inner", "description": "",
			"min_chars": 0, "max_chars": 10
		}`))
		if errs := ValidateConfiguration(doc); errs != nil {
			t.Errorf("expected acceptance, got %v", errs)
		}
	})

	t.Run("non-option nested in selection", func(t *testing.T) {
		doc := configDoc(t, validConfigJSON)
		radio := doc["fields"].([]any)[2].(map[string]any)
		radio["fields"] = append(radio["fields"].([]any), configDoc(t, `{
			"type": "selection", "title": "inner", "description": "",
			"min_select": 0, "max_select": 1,
			"fields": [{
				"type": "text", "title": "T", "description": "",
				"min_chars": 0, "max_chars": 10
			}]
		}`))
		errs := ValidateConfiguration(doc)
		if !hasError(errs, "fields[2].fields[2].fields[0]", CodeStructuralMismatch) {
			t.Errorf("expected structural mismatch, got %v", errs)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		doc := configDoc(t, validConfigJSON)
		doc["fields"] = append(doc["fields"].([]any), configDoc(t, `{
			"type": "slider", "title": "T", "description": ""
		}`))
		errs := ValidateConfiguration(doc)
		if !hasError(errs, "fields[3]", CodeStructuralMismatch) {
			t.Errorf("expected structural mismatch, got %v", errs)
		}
	})
}

func TestValidateConfiguration_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc map[string]any)
		path   string
		code   string
	}{
		{
			"empty admin_name",
			func(doc map[string]any) { doc["admin_name"] = "" },
			"admin_name", CodeRangeViolation,
		},
		{
			"overlong survey_name",
			func(doc map[string]any) { doc["survey_name"] = strings.Repeat("x", 21) },
			"survey_name", CodeRangeViolation,
		},
		{
			"overlong title",
			func(doc map[string]any) { doc["title"] = strings.Repeat("x", 101) },
			"title", CodeRangeViolation,
		},
		{
			"overlong description",
			func(doc map[string]any) { doc["description"] = strings.Repeat("x", 1001) },
			"description", CodeRangeViolation,
		},
		{
			"negative start",
			func(doc map[string]any) { doc["start"] = -1 },
			"start", CodeRangeViolation,
		},
		{
			"mode out of set",
			func(doc map[string]any) { doc["mode"] = 3 },
			"mode", CodeRangeViolation,
		},
		{
			"non-integer end",
			func(doc map[string]any) { doc["end"] = "soon" },
			"end", CodeStructuralMismatch,
		},
		{
			"fractional start",
			func(doc map[string]any) { doc["start"] = 1.5 },
			"start", CodeStructuralMismatch,
		},
		{
			"non-string title",
			func(doc map[string]any) { doc["title"] = 42 },
			"title", CodeStructuralMismatch,
		},
		{
			"non-list fields",
			func(doc map[string]any) { doc["fields"] = "none" },
			"fields", CodeStructuralMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := configDoc(t, validConfigJSON)
			tt.mutate(doc)
			errs := ValidateConfiguration(doc)
			if !hasError(errs, tt.path, tt.code) {
				t.Errorf("expected %s at %q, got %v", tt.code, tt.path, errs)
			}
		})
	}
}

func TestValidateConfiguration_TitleLengthCountsRunes(t *testing.T) {
	doc := configDoc(t, validConfigJSON)
	doc["title"] = strings.Repeat("ä", 100) // 200 bytes, 100 characters
	if errs := ValidateConfiguration(doc); errs != nil {
		t.Errorf("expected acceptance, got %v", errs)
	}
}

func TestValidateConfiguration_InvalidRegex(t *testing.T) {
	doc := configDoc(t, validConfigJSON)
	email := doc["fields"].([]any)[0].(map[string]any)
	email["regex"] = "(unclosed"
	errs := ValidateConfiguration(doc)
	if !hasError(errs, "fields[0].regex", CodePatternViolation) {
		t.Errorf("expected pattern violation at configuration time, got %v", errs)
	}
}

func TestValidateConfiguration_NestedOptionPath(t *testing.T) {
	doc := configDoc(t, validConfigJSON)
	radio := doc["fields"].([]any)[2].(map[string]any)
	option := radio["fields"].([]any)[0].(map[string]any)
	option["mandatory"] = "yes"
	errs := ValidateConfiguration(doc)
	if !hasError(errs, "fields[2].fields[0].mandatory", CodeStructuralMismatch) {
		t.Errorf("expected path-qualified error, got %v", errs)
	}
}

func TestValidateConfiguration_EmptyFieldsAllowed(t *testing.T) {
	doc := configDoc(t, validConfigJSON)
	doc["fields"] = []any{}
	if errs := ValidateConfiguration(doc); errs != nil {
		t.Errorf("expected acceptance, got %v", errs)
	}
}

// Relational bounds are knowingly not cross-validated: min over max and
// start after end pass. Do not "fix" these without changing the meta-schema
// contract.
func TestValidateConfiguration_RelationalGaps(t *testing.T) {
	doc := configDoc(t, validConfigJSON)
	doc["start"] = 2000
	doc["end"] = 1000
	radio := doc["fields"].([]any)[2].(map[string]any)
	radio["fields"] = append(radio["fields"].([]any), configDoc(t, `{
		"type": "text", "title": "T", "description": "",
		"min_chars": 100, "max_chars": 2
	}`), configDoc(t, `{
		"type": "selection", "title": "S", "description": "",
		"min_select": 5, "max_select": 1,
		"fields": [{"type": "option", "title": "A", "description": "", "mandatory": false}]
	}`))
	if errs := ValidateConfiguration(doc); errs != nil {
		t.Errorf("expected acceptance despite inverted bounds, got %v", errs)
	}
}

func TestValidateConfiguration_AccumulatesErrors(t *testing.T) {
	doc := configDoc(t, validConfigJSON)
	doc["admin_name"] = ""
	doc["mode"] = 7
	email := doc["fields"].([]any)[0].(map[string]any)
	email["regex"] = "(unclosed"
	errs := ValidateConfiguration(doc)
	if len(errs) < 3 {
		t.Errorf("expected all errors collected, got %v", errs)
	}
}

func TestValidateConfiguration_Deterministic(t *testing.T) {
	doc := configDoc(t, validConfigJSON)
	doc["mode"] = 9
	first := ValidateConfiguration(doc)
	second := ValidateConfiguration(doc)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("verdicts differ: %v vs %v", first, second)
	}
}
