package validation

import (
	"sort"
	"unicode/utf8"

	"github.com/pollwise/backend/model"
)

// ValidateSubmission checks a respondent's answer document against a
// compiled submission schema. A nil result means the submission is
// acceptable. Like configuration validation, errors accumulate over the
// whole document; the submission as a whole is accepted or rejected,
// never partially.
func ValidateSubmission(doc any, schema SubmissionSchema) Errors {
	var errs Errors
	obj, ok := doc.(map[string]any)
	if !ok {
		errs.add("", CodeStructuralMismatch, "submission must be an object")
		return errs
	}
	validateAnswerSet("", obj, schema, &errs)
	return errs
}

// validateAnswerSet enforces the require-all contract on one keyed level
// of the submission tree and dispatches every present answer to its
// field's rules.
func validateAnswerSet(path string, obj map[string]any, schema SubmissionSchema, errs *Errors) {
	keys := make([]string, 0, len(schema))
	for key := range schema {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value, present := obj[key]
		if !present {
			errs.add(join(path, key), CodeMissingField, "answer is missing")
			continue
		}
		validateAnswer(join(path, key), value, schema[key], errs)
	}

	var extra []string
	for key := range obj {
		if _, declared := schema[key]; !declared {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		errs.add(join(path, key), CodeUnknownField, "answer does not match any field")
	}
}

func validateAnswer(path string, value any, fs *FieldSchema, errs *Errors) {
	switch fs.Kind {
	case model.KindEmail:
		s, ok := value.(string)
		if !ok {
			errs.add(path, CodeStructuralMismatch, "must be a string")
			return
		}
		if fs.Pattern != nil && !fs.Pattern.MatchString(s) {
			errs.add(path, CodePatternViolation, "does not match the expected pattern")
		}
		checkMandatory(path, value, fs, errs)

	case model.KindText:
		s, ok := value.(string)
		if !ok {
			errs.add(path, CodeStructuralMismatch, "must be a string")
			return
		}
		length := utf8.RuneCountInString(s)
		if fs.MinChars != nil && length < *fs.MinChars {
			errs.add(path, CodeRangeViolation, "must be at least %d characters long", *fs.MinChars)
		}
		if fs.MaxChars != nil && length > *fs.MaxChars {
			errs.add(path, CodeRangeViolation, "must be at most %d characters long", *fs.MaxChars)
		}
		checkMandatory(path, value, fs, errs)

	case model.KindOption:
		if _, ok := value.(bool); !ok {
			errs.add(path, CodeStructuralMismatch, "must be a boolean")
			return
		}
		checkMandatory(path, value, fs, errs)

	case model.KindRadio:
		selections, ok := selectionSet(value)
		if !ok {
			errs.add(path, CodeStructuralMismatch, "must be an object of booleans")
			return
		}
		if countSelections(selections) != 1 {
			errs.add(path, CodeCardinalityViolation, "must select exactly 1 option")
		}
		validateAnswerSet(path, selections, fs.Fields, errs)

	case model.KindSelection:
		selections, ok := selectionSet(value)
		if !ok {
			errs.add(path, CodeStructuralMismatch, "must be an object of booleans")
			return
		}
		count := countSelections(selections)
		if fs.MinSelect != nil && count < *fs.MinSelect {
			errs.add(path, CodeCardinalityViolation, "must select at least %d options", *fs.MinSelect)
		}
		if fs.MaxSelect != nil && count > *fs.MaxSelect {
			errs.add(path, CodeCardinalityViolation, "must select at most %d options", *fs.MaxSelect)
		}
		validateAnswerSet(path, selections, fs.Fields, errs)
	}
}

// checkMandatory rejects empty answers on fields marked mandatory. The
// rule is generic over boolean and string leaves so every kind that
// carries the flag shares one behavior.
func checkMandatory(path string, value any, fs *FieldSchema, errs *Errors) {
	if fs.Mandatory == nil || !*fs.Mandatory {
		return
	}
	switch v := value.(type) {
	case bool:
		if !v {
			errs.add(path, CodeMandatoryViolation, "this field is mandatory")
		}
	case string:
		if v == "" {
			errs.add(path, CodeMandatoryViolation, "this field is mandatory")
		}
	}
}

// selectionSet type-checks a radio/selection answer: an object whose
// values are all booleans. A single non-boolean entry fails the whole
// structural check.
func selectionSet(value any) (map[string]any, bool) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, v := range obj {
		if _, ok := v.(bool); !ok {
			return nil, false
		}
	}
	return obj, true
}

func countSelections(selections map[string]any) int {
	count := 0
	for _, v := range selections {
		if v == true {
			count++
		}
	}
	return count
}
