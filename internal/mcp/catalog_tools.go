// ABOUTME: MCP tool implementations for the beer catalog.
// ABOUTME: Registers list_beers, search_beers, add_beer, delete_beer, render_label, print_label.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/kultpiva/internal/catalog"
	"github.com/2389-research/kultpiva/internal/models"
	"github.com/2389-research/kultpiva/internal/storage"
)

func (s *Server) registerCatalogTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_beers",
		Description: "List every beer in the catalog in file order. Each entry carries an id usable with the other tools.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleListBeers)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "search_beers",
		Description: "Find beers whose name or type contains the query, ignoring case. Set fuzzy to rank approximate matches instead.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Text to look for in name or type"},
				"fuzzy": {"type": "boolean", "description": "Use fuzzy matching ranked by score (default false)"}
			},
			"required": ["query"]
		}`),
	}, s.handleSearchBeers)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "add_beer",
		Description: "Add a beer to the catalog and save it. All four fields are required.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "description": "Beer name", "minLength": 1},
				"type": {"type": "string", "description": "Beer style, e.g. Лагер", "minLength": 1},
				"price": {"type": "string", "description": "Price as printed, without currency", "minLength": 1},
				"greeting": {"type": "string", "description": "Greeting line printed at the bottom", "minLength": 1}
			},
			"required": ["name", "type", "price", "greeting"]
		}`),
	}, s.handleAddBeer)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "delete_beer",
		Description: "Delete one beer by id, id prefix, or exact name, and save the catalog.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Beer id, id prefix, or exact name"}
			},
			"required": ["id"]
		}`),
	}, s.handleDeleteBeer)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "render_label",
		Description: "Render the 580x400 label for a beer and return it as a PNG image.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Beer id, id prefix, or exact name"}
			},
			"required": ["id"]
		}`),
	}, s.handleRenderLabel)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "print_label",
		Description: "Print the label for a beer on the configured label printer.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Beer id, id prefix, or exact name"}
			},
			"required": ["id"]
		}`),
	}, s.handlePrintLabel)
}

// beerView is the JSON shape returned to agents.
type beerView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Price    string `json:"price"`
	Greeting string `json:"greeting"`
}

func toView(r *models.BeerRecord) beerView {
	return beerView{ID: r.ID.String(), Name: r.Name, Type: r.Type, Price: r.Price, Greeting: r.Greeting}
}

func beersResult(records []*models.BeerRecord) *gomcp.CallToolResult {
	views := make([]beerView, 0, len(records))
	for _, r := range records {
		views = append(views, toView(r))
	}
	data, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return toolError("failed to encode beers: %v", err)
	}
	return textResult(string(data))
}

// refresh picks up edits made by other processes since the last call.
func (s *Server) refresh() error {
	_, err := s.catalog.Reload()
	return err
}

// resolve refreshes the catalog and returns the state selecting ref.
func (s *Server) resolve(ref string) (catalog.State, *models.BeerRecord, *gomcp.CallToolResult) {
	if strings.TrimSpace(ref) == "" {
		return catalog.State{}, nil, toolError("id is required")
	}
	if err := s.refresh(); err != nil {
		return catalog.State{}, nil, toolError("failed to load catalog: %v", err)
	}
	rec, err := s.catalog.Resolve(ref)
	if err != nil {
		return catalog.State{}, nil, toolError("%v", err)
	}
	return catalog.State{Selected: rec.ID}, rec, nil
}

func (s *Server) handleListBeers(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return toolError("failed to load catalog: %v", err), nil
	}
	return beersResult(s.catalog.Records()), nil
}

func (s *Server) handleSearchBeers(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Query string `json:"query"`
		Fuzzy bool   `json:"fuzzy"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return toolError("failed to load catalog: %v", err), nil
	}
	if args.Fuzzy {
		return beersResult(storage.FuzzyFilter(s.catalog.Records(), args.Query)), nil
	}
	return beersResult(s.catalog.Visible(catalog.State{Query: strings.TrimSpace(args.Query)})), nil
}

func (s *Server) handleAddBeer(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Price    string `json:"price"`
		Greeting string `json:"greeting"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return toolError("failed to load catalog: %v", err), nil
	}

	in := models.BeerInput{Name: args.Name, Type: args.Type, Price: args.Price, Greeting: args.Greeting}
	_, rec, err := s.catalog.Add(catalog.State{}, in)
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return toolError("%v", err), nil
	case err != nil:
		s.logger.Warn("add_beer save failed", "error", err)
		return toolError("beer added but not saved: %v", err), nil
	}

	return textResult(fmt.Sprintf("Added %s (ID: %s)", rec.Name, rec.ShortID())), nil
}

func (s *Server) handleDeleteBeer(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, rec, errResult := s.resolve(args.ID)
	if errResult != nil {
		return errResult, nil
	}
	if _, err := s.catalog.Delete(st); err != nil {
		s.logger.Warn("delete_beer save failed", "error", err)
		return toolError("beer removed but not saved: %v", err), nil
	}

	return textResult(fmt.Sprintf("Deleted %s (ID: %s)", rec.Name, rec.ShortID())), nil
}

func (s *Server) handleRenderLabel(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, _, errResult := s.resolve(args.ID)
	if errResult != nil {
		return errResult, nil
	}
	data, _, err := s.catalog.LabelPNG(st)
	if err != nil {
		return toolError("failed to render label: %v", err), nil
	}

	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.ImageContent{
			Data:     data,
			MIMEType: "image/png",
		}},
	}, nil
}

func (s *Server) handlePrintLabel(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, rec, errResult := s.resolve(args.ID)
	if errResult != nil {
		return errResult, nil
	}
	if err := s.catalog.Print(ctx, st); err != nil {
		return toolError("%v", err), nil
	}

	return textResult(fmt.Sprintf("Printed label for %s on %s", rec.Name, s.catalog.PrinterName())), nil
}

func textResult(text string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
