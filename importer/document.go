package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// documentSchema describes a JSON or YAML import document: an array of
// student objects. Field contents are checked later by the validator.
const documentSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name", "age", "grade"],
    "additionalProperties": false,
    "properties": {
      "id":    {"type": "string"},
      "name":  {"type": "string"},
      "age":   {"type": "integer"},
      "grade": {"type": "number"}
    }
  }
}`

var compiledSchema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	if err != nil {
		panic(fmt.Sprintf("importer: bad document schema: %v", err))
	}
	return s
}()

type documentEntry struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Age   float64 `json:"age"` // schema guarantees an integral value
	Grade float64 `json:"grade"`
}

// LoadJSON reads a JSON array of students.
func LoadJSON(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return decodeDocument(data)
}

// LoadYAML reads a YAML sequence of students. It is converted to JSON and
// checked against the same schema as LoadJSON.
func LoadYAML(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: yaml decode: %v", ErrMalformed, err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: yaml to json: %v", ErrMalformed, err)
	}
	return decodeDocument(asJSON)
}

func decodeDocument(data []byte) ([]Row, error) {
	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return nil, fmt.Errorf("%w: schema validation failed:\n- %s",
			ErrMalformed, strings.Join(errs, "\n- "))
	}

	var entries []documentEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: json decode: %v", ErrMalformed, err)
	}
	rows := make([]Row, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, Row{
			Line:  i + 1,
			ID:    e.ID,
			Name:  e.Name,
			Age:   strconv.FormatFloat(e.Age, 'f', -1, 64),
			Grade: strconv.FormatFloat(e.Grade, 'f', -1, 64),
		})
	}
	return rows, nil
}
