package analysis

import "github.com/JaimeStill/verne/pkg/openapi"

type spec struct {
	Run      *openapi.Operation
	Import   *openapi.Operation
	Precheck *openapi.Operation
	Template *openapi.Operation
	Status   *openapi.Operation
	Latest   *openapi.Operation
	Last     *openapi.Operation
	List     *openapi.Operation
	Find     *openapi.Operation
	Export   *openapi.Operation
	Delete   *openapi.Operation
	Schemas  map[string]*openapi.Schema
}

const (
	csvType  = "text/csv"
	xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	sourceParam = openapi.EnumParam("source", "Restrict to runs from one source; db and excel are accepted aliases", nil, "database", "import", "db", "excel")
	formatParam = openapi.EnumParam("format", "Spreadsheet format", "csv", "csv", "xlsx")
)

// Spec documents the analysis endpoints.
var Spec = spec{
	Run: &openapi.Operation{
		Summary:     "Classify the sales database",
		Description: "Loads monthly sales over the analysis window, classifies them with the stored criteria and persists the run.",
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Completed run", "Run"),
			400: openapi.ResponseRef("BadRequest"),
			409: openapi.ResponseRef("Conflict"),
			503: openapi.ResponseRef("Unavailable"),
		},
	},
	Import: &openapi.Operation{
		Summary:     "Classify an uploaded spreadsheet",
		Description: "Accepts a CSV or XLSX file in long layout (producto, periodo, cantidad, ingreso).",
		RequestBody: openapi.RequestBodyMultipart("file", "CSV or XLSX sales spreadsheet"),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Completed run", "Run"),
			400: openapi.ResponseRef("BadRequest"),
			409: openapi.ResponseRef("Conflict"),
			413: openapi.ResponseRef("TooLarge"),
		},
	},
	Precheck: &openapi.Operation{
		Summary: "Check sales data readiness",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Readiness report", "Precheck"),
			503: openapi.ResponseRef("Unavailable"),
		},
	},
	Template: &openapi.Operation{
		Summary:    "Download the import template",
		Parameters: []*openapi.Parameter{formatParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseFile("Template spreadsheet", csvType, xlsxType),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Status: &openapi.Operation{
		Summary: "Current run state",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Run state", "RunStatus"),
		},
	},
	Latest: &openapi.Operation{
		Summary:    "Most recent run",
		Parameters: []*openapi.Parameter{sourceParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Latest run", "Run"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Last: &openapi.Operation{
		Summary:     "Most recent run for a source",
		Description: "Alias of /latest kept for clients that request /last?source=db|excel.",
		Parameters:  []*openapi.Parameter{sourceParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Latest run", "Run"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	List: &openapi.Operation{
		Summary: "List runs",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Search imported filenames", false),
			openapi.QueryParam("sort", "string", "Sort fields, prefix - for descending", false),
			sourceParam,
			openapi.EnumParam("basis", "Classification basis", nil, "revenue", "quantity"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Page of run summaries", "RunPage"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Find run by ID",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Run UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Run", "Run"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Export: &openapi.Operation{
		Summary: "Export run rows",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Run UUID"),
			formatParam,
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseFile("Classified rows", csvType, xlsxType),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete run",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Run UUID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Run deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"ClassifiedProduct": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id_producto":   {Type: "integer"},
				"producto":      {Type: "string"},
				"marca":         {Type: "string"},
				"ABC":           {Type: "string", Enum: []any{"A", "B", "C"}},
				"XYZ":           {Type: "string", Enum: []any{"X", "Y", "Z"}},
				"ABCXYZ":        {Type: "string", Example: "AX"},
				"total_qty":     {Type: "number"},
				"total_revenue": {Type: "number"},
				"cv":            {Type: "number"},
			},
		},
		"Result": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"months": {Type: "array", Items: &openapi.Schema{Type: "string", Example: "2025-01"}},
				"rows":   {Type: "array", Items: openapi.SchemaRef("ClassifiedProduct")},
				"matrix": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"grid":    {Type: "object", Description: "Product counts keyed by ABC then XYZ band"},
						"percent": {Type: "object", Description: "Share of products keyed by ABC then XYZ band"},
					},
				},
				"totals": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"revenue":  {Type: "number"},
						"quantity": {Type: "number"},
						"products": {Type: "integer"},
						"basis":    {Type: "string", Enum: []any{"revenue", "quantity"}},
					},
				},
				"top_series": {
					Type: "array",
					Items: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"id_producto": {Type: "integer"},
							"name":        {Type: "string"},
							"qty":         {Type: "array", Items: &openapi.Schema{Type: "number"}},
							"revenue":     {Type: "array", Items: &openapi.Schema{Type: "number"}},
						},
					},
				},
			},
		},
		"Issue": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"row":    {Type: "integer"},
				"field":  {Type: "string"},
				"reason": {Type: "string"},
			},
		},
		"RunSummary": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"source":       {Type: "string", Enum: []any{"database", "import"}},
				"filename":     {Type: "string"},
				"storage_key":  {Type: "string"},
				"criteria":     openapi.SchemaRef("Criteria"),
				"basis":        {Type: "string", Enum: []any{"revenue", "quantity"}},
				"products":     {Type: "integer"},
				"period_start": {Type: "string", Example: "2025-01"},
				"period_end":   {Type: "string", Example: "2025-12"},
				"issue_count":  {Type: "integer"},
				"created_at":   {Type: "string", Format: "date-time"},
			},
		},
		"Run": {
			Type:        "object",
			Description: "RunSummary fields, the Result fields at the top level and ingestion issues",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "string", Format: "uuid"},
				"source":     {Type: "string", Enum: []any{"database", "import"}},
				"criteria":   openapi.SchemaRef("Criteria"),
				"months":     {Type: "array", Items: &openapi.Schema{Type: "string", Example: "2025-01"}},
				"rows":       {Type: "array", Items: openapi.SchemaRef("ClassifiedProduct")},
				"matrix":     {Type: "object", Description: "See Result.matrix"},
				"totals":     {Type: "object", Description: "See Result.totals"},
				"top_series": {Type: "array", Items: &openapi.Schema{Type: "object"}},
				"issues":     {Type: "array", Items: openapi.SchemaRef("Issue")},
			},
		},
		"RunPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("RunSummary")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
		"RunStatus": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"stage": {Type: "string", Enum: []any{
					"idle", "loading", "classifying_abc", "classifying_xyz",
					"aggregating", "ready", "failed",
				}},
				"reason":      {Type: "string"},
				"started_at":  {Type: "string", Format: "date-time"},
				"finished_at": {Type: "string", Format: "date-time"},
				"products":    {Type: "integer"},
			},
		},
		"Precheck": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"ok":       {Type: "boolean"},
				"reasons":  {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"window":   {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"months":   {Type: "integer"},
				"products": {Type: "integer"},
				"sales":    {Type: "integer"},
				"config":   openapi.SchemaRef("Criteria"),
			},
		},
	},
}
