package model

// FieldKind discriminates the closed set of survey field kinds.
type FieldKind string

const (
	KindEmail     FieldKind = "email"
	KindOption    FieldKind = "option"
	KindRadio     FieldKind = "radio"
	KindSelection FieldKind = "selection"
	KindText      FieldKind = "text"
)

// Field is the sum type over all field kinds. Exactly the five structs
// below implement it; dispatch is done by exhaustive type switch.
type Field interface {
	Kind() FieldKind
}

type EmailField struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Regex       string `json:"regex"`
	Hint        string `json:"hint"`
}

type OptionField struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Mandatory   bool   `json:"mandatory"`
}

type RadioField struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Fields      []Field `json:"fields"`
}

type SelectionField struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	MinSelect   int     `json:"min_select"`
	MaxSelect   int     `json:"max_select"`
	Fields      []Field `json:"fields"`
}

type TextField struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	MinChars    int    `json:"min_chars"`
	MaxChars    int    `json:"max_chars"`
}

func (EmailField) Kind() FieldKind     { return KindEmail }
func (OptionField) Kind() FieldKind    { return KindOption }
func (RadioField) Kind() FieldKind     { return KindRadio }
func (SelectionField) Kind() FieldKind { return KindSelection }
func (TextField) Kind() FieldKind      { return KindText }

// Configuration is one authored survey definition. Instances are only
// produced by validation.ParseConfiguration, so holders may assume all
// structural invariants of the field grammar.
type Configuration struct {
	AdminName   string  `json:"admin_name"`
	SurveyName  string  `json:"survey_name"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
	Mode        int     `json:"mode"`
	Fields      []Field `json:"fields"`
}

// Submission is one respondent's raw answer document, keyed by the
// positional keys of the compiled submission schema. It stays a generic
// alias because its valid shape depends entirely on the survey it
// answers.
type Submission = map[string]any
