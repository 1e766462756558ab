package models

// ToolInfo describes a registered calculator
type ToolInfo struct {
	Key       string `json:"key" example:"cot" doc:"Tool key"`
	Title     string `json:"title" example:"Constant On-Time Converter" doc:"Display title"`
	HasGraphs bool   `json:"has_graphs" doc:"Whether the tool produces sweep graphs"`
}

// ListToolsResponse lists all tools
type ListToolsResponse struct {
	Body struct {
		Tools []ToolInfo `json:"tools" doc:"Registered tools"`
	}
}

// ToolRequest addresses the state of one tool in a session
type ToolRequest struct {
	Session string `path:"session" format:"uuid" doc:"Client session identifier"`
	Tool    string `path:"tool" example:"firstConverter" doc:"Tool key"`
}

// PutStateRequest replaces the state of a tool
type PutStateRequest struct {
	Session string         `path:"session" format:"uuid" doc:"Client session identifier"`
	Tool    string         `path:"tool" example:"firstConverter" doc:"Tool key"`
	Body    map[string]any `doc:"Tool state; missing fields keep their defaults"`
}

// StateResponseBody is the current tool state
type StateResponseBody struct {
	Tool  string `json:"tool" doc:"Tool key"`
	State any    `json:"state" doc:"Tool state"`
}

// StateResponse wraps StateResponseBody
type StateResponse struct {
	Body StateResponseBody
}

// Reading is one computed output of a tool
type Reading struct {
	Key       string     `json:"key" doc:"Reading key"`
	Name      string     `json:"name" doc:"Display name"`
	Value     float64    `json:"value" doc:"Value in the base unit"`
	Kind      string     `json:"kind,omitempty" doc:"Quantity kind, empty for plain numbers"`
	Display   string     `json:"display" doc:"Formatted value"`
	Indicator *Indicator `json:"indicator,omitempty" doc:"Range check of the value"`
}

// Indicator is a range check shown next to a reading
type Indicator struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Log      bool    `json:"log,omitempty"`
	Position float64 `json:"position" doc:"0 at min, 1 at max, unclamped"`
	BelowMin bool    `json:"below_min"`
	AboveMax bool    `json:"above_max"`
	Percent  float64 `json:"percent" minimum:"0" maximum:"100" doc:"Bar fill"`
	MinLabel string  `json:"min_label" doc:"Formatted lower bound"`
	MaxLabel string  `json:"max_label" doc:"Formatted upper bound"`
	Warning  string  `json:"warning,omitempty" doc:"Advice when out of range"`
}

// ReportResponseBody is the result of a calculation
type ReportResponseBody struct {
	Tool     string    `json:"tool" doc:"Tool key"`
	Reset    bool      `json:"reset" doc:"Stored state failed and was reset to defaults"`
	Readings []Reading `json:"readings" doc:"Computed outputs"`
}

// ReportResponse wraps ReportResponseBody
type ReportResponse struct {
	Body ReportResponseBody
}

// Point is one defined sample of a series, in base units
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is one line of a graph, split where samples are undefined
type Series struct {
	Name     string    `json:"name" example:"5 V" doc:"Legend entry"`
	Segments [][]Point `json:"segments" doc:"Contiguous runs of defined samples"`
}

// Axis describes one graph axis and its display unit
type Axis struct {
	Title  string  `json:"title" example:"Output Voltage [V]" doc:"Axis title with unit"`
	Unit   string  `json:"unit,omitempty" example:"V" doc:"Display unit label"`
	Factor float64 `json:"factor" example:"1" doc:"Divide base values by this for display"`
}

// Graph is a sweep result ready for plotting
type Graph struct {
	Key    string   `json:"key" example:"maxOutputCurrent" doc:"Graph key"`
	Title  string   `json:"title" doc:"Graph title"`
	Legend string   `json:"legend,omitempty" example:"Input Voltages" doc:"Series parameter label"`
	X      Axis     `json:"x"`
	Y      Axis     `json:"y"`
	Series []Series `json:"series"`
}

// GraphsResponseBody lists the graphs of a tool
type GraphsResponseBody struct {
	Tool   string  `json:"tool" doc:"Tool key"`
	Reset  bool    `json:"reset" doc:"Stored state failed and was reset to defaults"`
	Graphs []Graph `json:"graphs"`
}

// GraphsResponse wraps GraphsResponseBody
type GraphsResponse struct {
	Body GraphsResponseBody
}

// ChartRequest selects one graph and an output format
type ChartRequest struct {
	Session string `path:"session" format:"uuid" doc:"Client session identifier"`
	Tool    string `path:"tool" example:"cot" doc:"Tool key"`
	Graph   string `path:"graph" example:"maxOutputCurrent" doc:"Graph key"`
	Format  string `query:"format" enum:"png,html" default:"png" doc:"Chart format"`
}

// ChartResponse is a rendered chart
type ChartResponse struct {
	ContentType string `header:"Content-Type"`
	Reset       bool   `header:"X-State-Reset"`
	Body        []byte
}

// ExportResponseBody describes a stored chart and where to download it
type ExportResponseBody struct {
	Export      ChartExport `json:"export"`
	DownloadURL string      `json:"download_url" doc:"Pre-signed download URL"`
	Reset       bool        `json:"reset,omitempty" doc:"Stored state failed and was reset to defaults"`
}

// ExportResponse wraps ExportResponseBody
type ExportResponse struct {
	Body ExportResponseBody
}

// ListExportsRequest lists the exports of a session
type ListExportsRequest struct {
	Session string `path:"session" format:"uuid" doc:"Client session identifier"`
}

// ListExportsResponse lists exports, newest first
type ListExportsResponse struct {
	Body struct {
		Exports []ExportResponseBody `json:"exports"`
	}
}

// GetExportRequest addresses one export
type GetExportRequest struct {
	ID string `path:"id" format:"uuid" doc:"Export ID"`
}
