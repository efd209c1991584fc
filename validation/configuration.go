package validation

import (
	"fmt"
	"regexp"
	"sort"
	"unicode/utf8"

	"github.com/pollwise/backend/model"
)

// Character limits of the configuration meta-schema, all inclusive.
// TODO finetune title/description/hint limits with the frontend.
const (
	NameMinLength        = 1
	NameMaxLength        = 20
	TitleMaxLength       = 100
	DescriptionMaxLength = 1000
	RegexMaxLength       = 100
	HintMaxLength        = 100
	CharsBoundMax        = 10000
)

var configurationKeys = []string{
	"admin_name", "survey_name", "title", "description",
	"start", "end", "mode", "fields",
}

var fieldKeys = map[model.FieldKind][]string{
	model.KindEmail:     {"type", "title", "description", "regex", "hint"},
	model.KindOption:    {"type", "title", "description", "mandatory"},
	model.KindRadio:     {"type", "title", "description", "fields"},
	model.KindSelection: {"type", "title", "description", "min_select", "max_select", "fields"},
	model.KindText:      {"type", "title", "description", "min_chars", "max_chars"},
}

// Field kinds legal at each nesting level. The asymmetry is a grammar
// rule carried over from the submission frontend: radio groups may embed
// the non-grouping kinds plus selection, selections embed plain options,
// and radio groups never nest.
var (
	topLevelKinds    = kindSet(model.KindEmail, model.KindOption, model.KindRadio)
	radioNestedKinds = kindSet(model.KindOption, model.KindText, model.KindSelection)
	selectionKinds   = kindSet(model.KindOption)
)

func kindSet(kinds ...model.FieldKind) map[model.FieldKind]bool {
	s := make(map[model.FieldKind]bool, len(kinds))
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

// ValidateConfiguration checks a generic document against the survey
// configuration meta-schema. A nil result means the document is a
// well-formed configuration. Errors are accumulated over the whole
// document, never fail-fast.
func ValidateConfiguration(doc any) Errors {
	_, errs := ParseConfiguration(doc)
	return errs
}

// ParseConfiguration validates doc and decodes it into the typed model in
// one pass. On any validation error the configuration is nil.
func ParseConfiguration(doc any) (*model.Configuration, Errors) {
	var errs Errors

	obj, ok := doc.(map[string]any)
	if !ok {
		errs.add("", CodeStructuralMismatch, "configuration must be an object")
		return nil, errs
	}
	checkKeys("", obj, configurationKeys, &errs)

	cfg := &model.Configuration{
		AdminName:   boundedString(obj, "admin_name", NameMinLength, NameMaxLength, &errs),
		SurveyName:  boundedString(obj, "survey_name", NameMinLength, NameMaxLength, &errs),
		Title:       boundedString(obj, "title", 0, TitleMaxLength, &errs),
		Description: boundedString(obj, "description", 0, DescriptionMaxLength, &errs),
		Start:       nonNegativeInt(obj, "start", &errs),
		End:         nonNegativeInt(obj, "end", &errs),
		Mode:        allowedInt(obj, "mode", []int{0, 1, 2}, &errs),
	}

	if rawFields, present := obj["fields"]; present {
		list, ok := rawFields.([]any)
		if !ok {
			errs.add("fields", CodeStructuralMismatch, "must be a list")
		} else {
			for i, raw := range list {
				path := fmt.Sprintf("fields[%d]", i)
				if f := parseField(path, raw, topLevelKinds, &errs); f != nil {
					cfg.Fields = append(cfg.Fields, f)
				}
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return cfg, nil
}

// parseField validates one field document against its kind's schema,
// recursing into grouping kinds. It returns nil whenever the field
// contributed at least one error.
func parseField(path string, raw any, allowed map[model.FieldKind]bool, errs *Errors) model.Field {
	obj, ok := raw.(map[string]any)
	if !ok {
		errs.add(path, CodeStructuralMismatch, "must be an object")
		return nil
	}

	discriminant, ok := obj["type"].(string)
	if !ok {
		errs.add(path, CodeStructuralMismatch, "missing or malformed type discriminant")
		return nil
	}
	kind := model.FieldKind(discriminant)
	if _, known := fieldKeys[kind]; !known {
		errs.add(path, CodeStructuralMismatch, "unknown field type %q", discriminant)
		return nil
	}
	if !allowed[kind] {
		errs.add(path, CodeStructuralMismatch, "field type %q is not allowed here", discriminant)
		return nil
	}

	before := len(*errs)
	checkKeys(path, obj, fieldKeys[kind], errs)

	var field model.Field
	switch kind {
	case model.KindEmail:
		f := model.EmailField{
			Title:       boundedStringAt(path, obj, "title", 0, TitleMaxLength, errs),
			Description: boundedStringAt(path, obj, "description", 0, DescriptionMaxLength, errs),
			Regex:       boundedStringAt(path, obj, "regex", 0, RegexMaxLength, errs),
			Hint:        boundedStringAt(path, obj, "hint", 0, HintMaxLength, errs),
		}
		if _, err := regexp.Compile(f.Regex); err != nil {
			errs.add(join(path, "regex"), CodePatternViolation, "must be a valid pattern")
		}
		field = f

	case model.KindOption:
		field = model.OptionField{
			Title:       boundedStringAt(path, obj, "title", 0, TitleMaxLength, errs),
			Description: boundedStringAt(path, obj, "description", 0, DescriptionMaxLength, errs),
			Mandatory:   boolAt(path, obj, "mandatory", errs),
		}

	case model.KindRadio:
		field = model.RadioField{
			Title:       boundedStringAt(path, obj, "title", 0, TitleMaxLength, errs),
			Description: boundedStringAt(path, obj, "description", 0, DescriptionMaxLength, errs),
			Fields:      parseSubfields(path, obj, radioNestedKinds, errs),
		}

	case model.KindSelection:
		field = model.SelectionField{
			Title:       boundedStringAt(path, obj, "title", 0, TitleMaxLength, errs),
			Description: boundedStringAt(path, obj, "description", 0, DescriptionMaxLength, errs),
			MinSelect:   boundedIntAt(path, obj, "min_select", 0, -1, errs),
			MaxSelect:   boundedIntAt(path, obj, "max_select", 0, -1, errs),
			Fields:      parseSubfields(path, obj, selectionKinds, errs),
		}

	case model.KindText:
		field = model.TextField{
			Title:       boundedStringAt(path, obj, "title", 0, TitleMaxLength, errs),
			Description: boundedStringAt(path, obj, "description", 0, DescriptionMaxLength, errs),
			MinChars:    boundedIntAt(path, obj, "min_chars", 0, CharsBoundMax, errs),
			MaxChars:    boundedIntAt(path, obj, "max_chars", 0, CharsBoundMax, errs),
		}
	}

	if len(*errs) > before {
		return nil
	}
	return field
}

func parseSubfields(path string, obj map[string]any, allowed map[model.FieldKind]bool, errs *Errors) []model.Field {
	raw, present := obj["fields"]
	if !present {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		errs.add(join(path, "fields"), CodeStructuralMismatch, "must be a list")
		return nil
	}
	var fields []model.Field
	for i, elem := range list {
		if f := parseField(fmt.Sprintf("%s.fields[%d]", path, i), elem, allowed, errs); f != nil {
			fields = append(fields, f)
		}
	}
	return fields
}

// checkKeys enforces that the document's key set equals the required set
// exactly: all present, none extra, order-insensitive.
func checkKeys(path string, obj map[string]any, required []string, errs *Errors) {
	for _, key := range required {
		if _, present := obj[key]; !present {
			errs.add(join(path, key), CodeMissingField, "required field is missing")
		}
	}
	var extra []string
	for key := range obj {
		if !containsKey(required, key) {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		errs.add(join(path, key), CodeUnknownField, "unknown field")
	}
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func boundedString(obj map[string]any, key string, min, max int, errs *Errors) string {
	return boundedStringAt("", obj, key, min, max, errs)
}

func boundedStringAt(path string, obj map[string]any, key string, min, max int, errs *Errors) string {
	raw, present := obj[key]
	if !present {
		return "" // missing key already reported by checkKeys
	}
	s, ok := raw.(string)
	if !ok {
		errs.add(join(path, key), CodeStructuralMismatch, "must be a string")
		return ""
	}
	length := utf8.RuneCountInString(s)
	if length < min {
		errs.add(join(path, key), CodeRangeViolation, "must be at least %d characters long", min)
	}
	if length > max {
		errs.add(join(path, key), CodeRangeViolation, "must be at most %d characters long", max)
	}
	return s
}

func nonNegativeInt(obj map[string]any, key string, errs *Errors) int {
	return boundedIntAt("", obj, key, 0, -1, errs)
}

// boundedIntAt checks an integer leaf against [min, max]; max < 0 means
// unbounded above.
func boundedIntAt(path string, obj map[string]any, key string, min, max int, errs *Errors) int {
	raw, present := obj[key]
	if !present {
		return 0
	}
	n, ok := intValue(raw)
	if !ok {
		errs.add(join(path, key), CodeStructuralMismatch, "must be an integer")
		return 0
	}
	if n < min {
		errs.add(join(path, key), CodeRangeViolation, "must be at least %d", min)
	}
	if max >= 0 && n > max {
		errs.add(join(path, key), CodeRangeViolation, "must be at most %d", max)
	}
	return n
}

func allowedInt(obj map[string]any, key string, allowed []int, errs *Errors) int {
	raw, present := obj[key]
	if !present {
		return 0
	}
	n, ok := intValue(raw)
	if !ok {
		errs.add(key, CodeStructuralMismatch, "must be an integer")
		return 0
	}
	for _, a := range allowed {
		if n == a {
			return n
		}
	}
	errs.add(key, CodeRangeViolation, "must be one of %v", allowed)
	return 0
}

func boolAt(path string, obj map[string]any, key string, errs *Errors) bool {
	raw, present := obj[key]
	if !present {
		return false
	}
	b, ok := raw.(bool)
	if !ok {
		errs.add(join(path, key), CodeStructuralMismatch, "must be a boolean")
	}
	return b
}

// intValue accepts the integer representations produced by the common
// decoders: native ints from in-process callers, float64 from JSON.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
