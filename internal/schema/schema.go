// Package schema validates uploaded trial documents against a JSON Schema
// that is compiled once and shared read-only afterwards.
package schema

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"trialapi/internal/logger"
	. "trialapi/internal/models"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaURL = "https://trialapi.local/schemas/trial-record.schema.json"

//go:embed trial_record.schema.json
var defaultSchema []byte

// keywordLabels names the violated constraint in the error list.
var keywordLabels = map[string]string{
	"type":                 "wrong type",
	"required":             "required property missing",
	"minimum":              "value below minimum",
	"maximum":              "value above maximum",
	"minLength":            "value too short",
	"maxLength":            "value too long",
	"enum":                 "value not allowed",
	"format":               "invalid format",
	"additionalProperties": "property not allowed",
}

type Validator struct {
	schema  *jsonschema.Schema
	source  []byte
	printer *message.Printer
	log     logger.Logger
}

// Load compiles the schema at path, or the built-in schema when path is empty.
func Load(path string) (*Validator, error) {
	log := logger.New("schema").Function("Load")

	if path == "" {
		return New(defaultSchema)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, log.Err("failed to read schema file", err, "path", path)
	}

	log.Info("Loaded schema from file", "path", path)
	return New(raw)
}

func Default() (*Validator, error) {
	return New(defaultSchema)
}

func New(raw []byte) (*Validator, error) {
	log := logger.New("schema").Function("New")

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, log.Err("failed to parse schema document", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, log.Err("failed to add schema resource", err)
	}

	compiled, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, log.Err("failed to compile schema", err)
	}

	return &Validator{
		schema:  compiled,
		source:  slices.Clone(raw),
		printer: message.NewPrinter(language.English),
		log:     logger.New("schema"),
	}, nil
}

// Source returns the schema document the validator was compiled from.
func (v *Validator) Source() []byte {
	return slices.Clone(v.source)
}

// Validate checks raw against the schema and decodes it. Empty or non-JSON
// input fails with ErrMalformedInput; schema violations fail with a
// *ValidationError listing every violation.
func (v *Validator) Validate(raw []byte) (TrialDocument, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return TrialDocument{}, fmt.Errorf("%w: document is empty", ErrMalformedInput)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return TrialDocument{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	if err := v.schema.Validate(instance); err != nil {
		validationErr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return TrialDocument{}, v.log.Function("Validate").Err("schema evaluation failed", err)
		}
		return TrialDocument{}, NewValidationError(v.messages(validationErr)...)
	}

	return decodeDocument(raw)
}

// trialDocumentWire receives participantCount as a number literal because
// JSON Schema treats integral floats such as 3.0 as integers.
type trialDocumentWire struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	StartDate        Date        `json:"startDate"`
	EndDate          *Date       `json:"endDate"`
	ParticipantCount json.Number `json:"participantCount"`
	Status           Status      `json:"status"`
}

func decodeDocument(raw []byte) (TrialDocument, error) {
	var wire trialDocumentWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return TrialDocument{}, NewValidationError(fmt.Sprintf("invalid document at '/': %v", err))
	}

	count, err := integral(wire.ParticipantCount)
	if err != nil {
		return TrialDocument{}, NewValidationError(fmt.Sprintf(
			"wrong type at '/participantCount': %s is not an integer", wire.ParticipantCount,
		))
	}

	return TrialDocument{
		ID:               wire.ID,
		Title:            wire.Title,
		StartDate:        wire.StartDate,
		EndDate:          wire.EndDate,
		ParticipantCount: count,
		Status:           wire.Status,
	}, nil
}

func integral(n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}

	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}

	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%s is not an integer", n)
	}

	return int(f), nil
}

type violation struct {
	path    string
	keyword string
	message string
}

func (v *Validator) messages(root *jsonschema.ValidationError) []string {
	var leaves []violation
	collectLeaves(root, func(leaf *jsonschema.ValidationError) {
		keyword := ""
		if path := leaf.ErrorKind.KeywordPath(); len(path) > 0 {
			keyword = path[0]
		}

		label, ok := keywordLabels[keyword]
		if !ok {
			label = "constraint violated"
		}

		location := "/" + strings.Join(leaf.InstanceLocation, "/")
		leaves = append(leaves, violation{
			path:    location,
			keyword: keyword,
			message: fmt.Sprintf(
				"%s at '%s': %s",
				label,
				location,
				leaf.ErrorKind.LocalizedString(v.printer),
			),
		})
	})

	slices.SortFunc(leaves, func(a, b violation) int {
		if c := strings.Compare(a.path, b.path); c != 0 {
			return c
		}
		if c := strings.Compare(a.keyword, b.keyword); c != 0 {
			return c
		}
		return strings.Compare(a.message, b.message)
	})

	messages := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		if len(messages) > 0 && messages[len(messages)-1] == leaf.message {
			continue
		}
		messages = append(messages, leaf.message)
	}
	return messages
}

func collectLeaves(err *jsonschema.ValidationError, visit func(*jsonschema.ValidationError)) {
	if len(err.Causes) == 0 {
		visit(err)
		return
	}
	for _, cause := range err.Causes {
		collectLeaves(cause, visit)
	}
}
