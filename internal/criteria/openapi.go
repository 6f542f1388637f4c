package criteria

import "github.com/JaimeStill/verne/pkg/openapi"

type spec struct {
	Get     *openapi.Operation
	Update  *openapi.Operation
	Schemas map[string]*openapi.Schema
}

// Spec documents the criteria endpoints.
var Spec = spec{
	Get: &openapi.Operation{
		Summary: "Get classification cut-offs",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Current cut-offs", "Criteria"),
		},
	},
	Update: &openapi.Operation{
		Summary:     "Update classification cut-offs",
		Description: "Merges the provided cut-offs over the stored ones. The result must satisfy 0 < A < B < 1 and 0 < X < Y.",
		RequestBody: openapi.RequestBodyJSON("CriteriaPatch", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Persisted cut-offs", "Criteria"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"Criteria": {
			Type:     "object",
			Required: []string{"a_cut", "b_cut", "x_cut", "y_cut"},
			Properties: cutSchemas(),
		},
		"CriteriaPatch": {
			Type:       "object",
			Properties: cutSchemas(),
		},
	},
}

func cutSchemas() map[string]*openapi.Schema {
	share := func(desc string, ex float64) *openapi.Schema {
		s := openapi.Between(openapi.Bound(0), openapi.Bound(1), desc)
		s.Example = ex
		return s
	}
	cv := func(desc string, ex float64) *openapi.Schema {
		s := openapi.Between(openapi.Bound(0), nil, desc)
		s.Example = ex
		return s
	}
	return map[string]*openapi.Schema{
		"a_cut": share("Cumulative share closing band A", 0.8),
		"b_cut": share("Cumulative share closing band B", 0.95),
		"x_cut": cv("Coefficient of variation closing band X", 0.5),
		"y_cut": cv("Coefficient of variation closing band Y", 0.9),
	}
}
