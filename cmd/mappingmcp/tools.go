package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/reference"
)

// registerTools wires r's query handlers into mcpServer via
// mcp.AddTool(server, &mcp.Tool{Name, Description}, handler).
func (r *runner) registerTools(mcpServer *mcp.Server) {
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "lookup-mappings",
		Description: "List every processed mapping whose subject or object is the given CURIE",
	}, r.handleLookupMappings)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "lookup-canonical",
		Description: "Return the priority-list canonical reference a CURIE resolves to, if any",
	}, r.handleLookupCanonical)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "run-summary",
		Description: "Report the processed and priority mapping counts for this run",
	}, r.handleRunSummary)
}

// MappingView is the JSON shape a mapping takes in a query response: a
// flattened triple plus its aggregated confidence, omitting the internal
// evidence representation tool callers don't need.
type MappingView struct {
	Subject    string  `json:"subject"`
	Predicate  string  `json:"predicate"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`
}

func toView(idx *mapping.Index, m *mapping.Mapping) MappingView {
	view := MappingView{Subject: m.Subject.Curie(), Predicate: m.Predicate.Curie(), Object: m.Object.Curie()}
	if c, ok := idx.AggregateConfidence(m.Triple()); ok {
		view.Confidence = c
	}
	return view
}

type LookupMappingsRequest struct {
	Curie string `json:"curie"`
}

type LookupMappingsResponse struct {
	Mappings []MappingView `json:"mappings"`
}

func (r *runner) handleLookupMappings(ctx context.Context, req *mcp.CallToolRequest, input LookupMappingsRequest) (*mcp.CallToolResult, *LookupMappingsResponse, error) {
	ref, err := reference.Parse(input.Curie)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid curie %q: %w", input.Curie, err)
	}

	var views []MappingView
	for _, m := range r.processed.BySubject(ref) {
		views = append(views, toView(r.processed, m))
	}
	for _, m := range r.processed.ByObject(ref) {
		views = append(views, toView(r.processed, m))
	}

	response := &LookupMappingsResponse{Mappings: views}
	return &mcp.CallToolResult{Content: toJSONContent(response)}, response, nil
}

type LookupCanonicalRequest struct {
	Curie string `json:"curie"`
}

type LookupCanonicalResponse struct {
	Canonical  string  `json:"canonical,omitempty"`
	Found      bool    `json:"found"`
	Confidence float64 `json:"confidence,omitempty"`
}

func (r *runner) handleLookupCanonical(ctx context.Context, req *mcp.CallToolRequest, input LookupCanonicalRequest) (*mcp.CallToolResult, *LookupCanonicalResponse, error) {
	ref, err := reference.Parse(input.Curie)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid curie %q: %w", input.Curie, err)
	}

	response := &LookupCanonicalResponse{}
	if stars := r.priority.BySubject(ref); len(stars) > 0 {
		star := stars[0]
		response.Found = true
		response.Canonical = star.Object.Curie()
		if c, ok := r.priority.AggregateConfidence(star.Triple()); ok {
			response.Confidence = c
		}
	}

	return &mcp.CallToolResult{Content: toJSONContent(response)}, response, nil
}

type RunSummaryResponse struct {
	RunID             string `json:"run_id"`
	ProcessedMappings int    `json:"processed_mappings"`
	PriorityMappings  int    `json:"priority_mappings"`
}

// EmptyRequest is the input type for tools that take no arguments.
type EmptyRequest struct{}

func (r *runner) handleRunSummary(ctx context.Context, req *mcp.CallToolRequest, input EmptyRequest) (*mcp.CallToolResult, *RunSummaryResponse, error) {
	response := &RunSummaryResponse{
		RunID:             r.runID,
		ProcessedMappings: r.processed.Len(),
		PriorityMappings:  r.priority.Len(),
	}
	return &mcp.CallToolResult{Content: toJSONContent(response)}, response, nil
}

// toJSONContent converts data to the single-TextContent form the MCP
// client expects a tool's structured result wrapped in (the retrieval
// pack's server/formatters.go pattern, minus its response-size formatter).
func toJSONContent(data any) []mcp.Content {
	jsonData, err := json.Marshal(data)
	if err != nil {
		jsonData, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return []mcp.Content{&mcp.TextContent{Text: string(jsonData)}}
}
