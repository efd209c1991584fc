package validation

import (
	"regexp"
	"strconv"

	"github.com/pollwise/backend/model"
)

// FieldSchema carries the compiled submission rules for one field. Only
// rule-relevant attributes survive compilation; titles, descriptions and
// hints never show up in submissions, so they are dropped. Optional rules
// are pointers so that absence is distinguishable from a zero bound.
type FieldSchema struct {
	Kind      model.FieldKind  `json:"type"`
	MinChars  *int             `json:"min_chars,omitempty"`
	MaxChars  *int             `json:"max_chars,omitempty"`
	MinSelect *int             `json:"min_select,omitempty"`
	MaxSelect *int             `json:"max_select,omitempty"`
	Mandatory *bool            `json:"mandatory,omitempty"`
	Regex     string           `json:"regex,omitempty"`
	Pattern   *regexp.Regexp   `json:"-"`
	Fields    SubmissionSchema `json:"schema,omitempty"`
}

// SubmissionSchema maps 1-based positional string keys to per-field rules.
// A compiled schema is immutable: it is 1:1 with one configuration version
// and shared read-only between concurrent submission validations. Any
// configuration change compiles a fresh schema, never patches one.
type SubmissionSchema map[string]*FieldSchema

// Compile derives the submission schema of a validated configuration.
// It is total: the configuration has passed ValidateConfiguration, so no
// defensive re-validation happens here and no error can be produced. In
// particular every regex compiled below was already proven well-formed.
func Compile(cfg *model.Configuration) SubmissionSchema {
	return compileFields(cfg.Fields)
}

func compileFields(fields []model.Field) SubmissionSchema {
	schema := make(SubmissionSchema, len(fields))
	for i, field := range fields {
		schema[strconv.Itoa(i+1)] = compileField(field)
	}
	return schema
}

func compileField(field model.Field) *FieldSchema {
	fs := &FieldSchema{Kind: field.Kind()}
	switch f := field.(type) {
	case model.EmailField:
		fs.Regex = f.Regex
		fs.Pattern = regexp.MustCompile(f.Regex)
	case model.OptionField:
		fs.Mandatory = &f.Mandatory
	case model.RadioField:
		fs.Fields = compileFields(f.Fields)
	case model.SelectionField:
		fs.MinSelect = &f.MinSelect
		fs.MaxSelect = &f.MaxSelect
		fs.Fields = compileFields(f.Fields)
	case model.TextField:
		fs.MinChars = &f.MinChars
		fs.MaxChars = &f.MaxChars
	}
	return fs
}
