package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ruediste/diy-dc-converter/internal/api/handlers"
	"github.com/ruediste/diy-dc-converter/internal/processing"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, processingSvc processing.ProcessingService) {
	// Initialize handlers
	unitsHandler := handlers.NewUnitsHandler()
	toolHandler := handlers.NewToolHandler(processingSvc)

	// Register engine routes
	huma.Register(api, huma.Operation{
		OperationID: "listUnits",
		Method:      http.MethodGet,
		Path:        "/api/units",
		Summary:     "List unit tables",
		Description: "Returns every quantity kind with its units",
		Tags:        []string{"Units"},
	}, unitsHandler.ListUnits)

	huma.Register(api, huma.Operation{
		OperationID: "convertUnit",
		Method:      http.MethodPost,
		Path:        "/api/units/convert",
		Summary:     "Change the unit of a quantity",
		Description: "Re-expresses a quantity in another unit of its kind, keeping its base value",
		Tags:        []string{"Units"},
	}, unitsHandler.ConvertUnit)

	huma.Register(api, huma.Operation{
		OperationID: "formatValue",
		Method:      http.MethodPost,
		Path:        "/api/units/format",
		Summary:     "Format a value",
		Description: "Chooses the display unit for a base unit magnitude",
		Tags:        []string{"Units"},
	}, unitsHandler.FormatValue)

	huma.Register(api, huma.Operation{
		OperationID: "assessRange",
		Method:      http.MethodPost,
		Path:        "/api/range/assess",
		Summary:     "Assess a value against a range",
		Description: "Returns the normalized position of a value on a linear or logarithmic scale",
		Tags:        []string{"Units"},
	}, unitsHandler.AssessRange)

	// Register tool routes
	huma.Register(api, huma.Operation{
		OperationID: "listTools",
		Method:      http.MethodGet,
		Path:        "/api/tools",
		Summary:     "List tools",
		Tags:        []string{"Tools"},
	}, toolHandler.ListTools)

	huma.Register(api, huma.Operation{
		OperationID: "getToolState",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session}/tools/{tool}/state",
		Summary:     "Get tool state",
		Description: "Returns the stored input state, or the defaults if none is stored",
		Tags:        []string{"Tools"},
	}, toolHandler.GetState)

	huma.Register(api, huma.Operation{
		OperationID: "putToolState",
		Method:      http.MethodPut,
		Path:        "/api/sessions/{session}/tools/{tool}/state",
		Summary:     "Save tool state",
		Description: "Validates and stores the input state; omitted fields take their defaults",
		Tags:        []string{"Tools"},
	}, toolHandler.PutState)

	huma.Register(api, huma.Operation{
		OperationID:   "deleteToolState",
		Method:        http.MethodDelete,
		Path:          "/api/sessions/{session}/tools/{tool}/state",
		Summary:       "Delete tool state",
		Description:   "Forgets the stored input state; later requests use the defaults",
		Tags:          []string{"Tools"},
		DefaultStatus: http.StatusNoContent,
	}, toolHandler.DeleteState)

	huma.Register(api, huma.Operation{
		OperationID: "resetToolState",
		Method:      http.MethodPost,
		Path:        "/api/sessions/{session}/tools/{tool}/reset",
		Summary:     "Reset tool state",
		Tags:        []string{"Tools"},
	}, toolHandler.ResetState)

	huma.Register(api, huma.Operation{
		OperationID: "getToolReport",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session}/tools/{tool}/report",
		Summary:     "Calculate",
		Description: "Returns the computed readings with range indicators",
		Tags:        []string{"Tools"},
	}, toolHandler.GetReport)

	huma.Register(api, huma.Operation{
		OperationID: "getToolGraphs",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session}/tools/{tool}/graphs",
		Summary:     "Evaluate sweeps",
		Description: "Returns the plot data of every graph of the tool",
		Tags:        []string{"Charts"},
	}, toolHandler.GetGraphs)

	huma.Register(api, huma.Operation{
		OperationID: "getChart",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session}/tools/{tool}/graphs/{graph}/chart",
		Summary:     "Render a chart",
		Description: "Renders one graph as PNG image or interactive HTML page",
		Tags:        []string{"Charts"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Rendered chart",
				Content: map[string]*huma.MediaType{
					"image/png": {},
					"text/html": {},
				},
			},
		},
	}, toolHandler.GetChart)

	huma.Register(api, huma.Operation{
		OperationID:   "exportChart",
		Method:        http.MethodPost,
		Path:          "/api/sessions/{session}/tools/{tool}/graphs/{graph}/export",
		Summary:       "Export a chart",
		Description:   "Renders a chart, stores it in object storage and returns a download URL",
		Tags:          []string{"Charts"},
		DefaultStatus: http.StatusCreated,
	}, toolHandler.ExportChart)

	huma.Register(api, huma.Operation{
		OperationID: "listExports",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session}/exports",
		Summary:     "List exported charts",
		Tags:        []string{"Charts"},
	}, toolHandler.ListExports)

	huma.Register(api, huma.Operation{
		OperationID: "getExport",
		Method:      http.MethodGet,
		Path:        "/api/exports/{id}",
		Summary:     "Get an exported chart",
		Tags:        []string{"Charts"},
	}, toolHandler.GetExport)

	huma.Register(api, huma.Operation{
		OperationID: "getExportContent",
		Method:      http.MethodGet,
		Path:        "/api/exports/{id}/content",
		Summary:     "Download an exported chart",
		Description: "Returns the stored chart bytes for clients that cannot use the pre-signed URL",
		Tags:        []string{"Charts"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Stored chart",
				Content: map[string]*huma.MediaType{
					"image/png": {},
					"text/html": {},
				},
			},
		},
	}, toolHandler.GetExportContent)
}
