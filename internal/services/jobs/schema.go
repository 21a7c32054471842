package jobs

import (
	"bytes"
	_ "embed"
	"errors"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/apperr"
)

//go:embed job.schema.json
var jobSchemaJSON []byte

var jobSchema = compileJobSchema()

func compileJobSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.AssertFormat = true
	if err := c.AddResource("job.schema.json", bytes.NewReader(jobSchemaJSON)); err != nil {
		panic(err)
	}
	return c.MustCompile("job.schema.json")
}

// validateDocument checks a merged job document and reports failures per
// top-level field.
func validateDocument(doc map[string]any) error {
	err := jobSchema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return apperr.Internal("validate job document", err)
	}
	fields := apperr.FieldErrors{}
	collectSchemaErrors(ve, fields)
	if len(fields) == 0 {
		fields.Add("job", ve.Message)
	}
	return apperr.Invalid(fields)
}

func collectSchemaErrors(ve *jsonschema.ValidationError, fields apperr.FieldErrors) {
	if len(ve.Causes) == 0 {
		field := strings.SplitN(strings.TrimPrefix(ve.InstanceLocation, "/"), "/", 2)[0]
		if field == "" {
			field = "job"
		}
		if _, seen := fields[field]; !seen {
			fields.Add(field, "Invalid "+field)
		}
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, fields)
	}
}
