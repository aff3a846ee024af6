package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/devinsight/internal/analysis"
	"github.com/blackwell-systems/devinsight/internal/detect"
	"github.com/blackwell-systems/devinsight/internal/scanner"
	"github.com/blackwell-systems/devinsight/internal/source"
	"github.com/blackwell-systems/devinsight/internal/store"
)

// AnalyzeResult is the analyze_repository payload.
type AnalyzeResult struct {
	ID      string          `json:"id,omitempty"`
	Partial bool            `json:"partial"`
	Result  analysis.Result `json:"result"`
}

// ClassifyResult is the classify_project payload.
type ClassifyResult struct {
	Path           string                       `json:"path"`
	Language       string                       `json:"language"`
	Framework      string                       `json:"framework"`
	Classification detect.ProjectClassification `json:"classification"`
}

// ListResult is the list_analyses payload.
type ListResult struct {
	Analyses []store.Record `json:"analyses"`
}

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

var errNoArchive = errors.New("analysis archive is disabled")

var (
	analyzeSchema  = json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"Local directory to analyze"},"budget_ms":{"type":"integer","description":"Wall-clock budget in milliseconds (default from config)"}},"required":["path"],"additionalProperties":false}`)
	classifySchema = json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"Local directory to classify"}},"required":["path"],"additionalProperties":false}`)
	listSchema     = json.RawMessage(`{"type":"object","properties":{"limit":{"type":"integer","description":"Number of analyses to return (default 10)"}},"additionalProperties":false}`)
	getSchema      = json.RawMessage(`{"type":"object","properties":{"id":{"type":"string","description":"Archived analysis ID"}},"required":["id"],"additionalProperties":false}`)
)

func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "analyze_repository",
		Description: "Analyze a local source tree: project type, framework, architecture, routes, controllers, models, frontend and ML structure, plus a narrative explanation.",
		InputSchema: analyzeSchema,
		Handler:     s.handleAnalyze,
	})
	s.registerTool(toolDef{
		Name:        "classify_project",
		Description: "Quickly classify a local source tree as backend, frontend, fullstack, ML or monorepo and list its roots.",
		InputSchema: classifySchema,
		Handler:     s.handleClassify,
	})
	s.registerTool(toolDef{
		Name:        "list_analyses",
		Description: "List recently archived analyses, newest first.",
		InputSchema: listSchema,
		Handler:     s.handleList,
	})
	s.registerTool(toolDef{
		Name:        "get_analysis",
		Description: "Fetch one archived analysis by ID.",
		InputSchema: getSchema,
		Handler:     s.handleGet,
	})
}

func (s *Server) handleAnalyze(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Path     string `json:"path"`
		BudgetMS int    `json:"budget_ms"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if params.Path == "" {
		return nil, errors.New("path is required")
	}

	budget := s.opts.Budget
	if params.BudgetMS > 0 {
		budget = time.Duration(params.BudgetMS) * time.Millisecond
	}
	opts := s.opts.Analysis
	opts.Source = source.Resolve(params.Path).ID
	opts.Logger = s.log

	res, partial, err := analysis.Analyze(ctx, params.Path, budget, opts)
	if err != nil {
		return nil, err
	}
	out := AnalyzeResult{Partial: partial, Result: res}
	if s.opts.Archive != nil {
		id, err := s.opts.Archive.InsertAnalysis(res)
		if err != nil {
			s.log.WithError(err).Warn("archiving analysis failed")
		} else {
			out.ID = id
		}
	}
	return out, nil
}

func (s *Server) handleClassify(_ context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if !scanner.IsDir(params.Path, ".") {
		return nil, fmt.Errorf("%s: %w", params.Path, analysis.ErrNotDirectory)
	}
	return ClassifyResult{
		Path:           params.Path,
		Language:       scanner.DetectLanguage(params.Path),
		Framework:      detect.DetectFramework(params.Path),
		Classification: detect.DetectProjectType(params.Path),
	}, nil
}

func (s *Server) handleList(_ context.Context, args json.RawMessage) (any, error) {
	if s.opts.Archive == nil {
		return nil, errNoArchive
	}
	limit := defaultListLimit
	if len(args) > 0 && string(args) != "null" {
		var params struct {
			Limit *int `json:"limit"`
		}
		if err := json.Unmarshal(args, &params); err == nil && params.Limit != nil {
			limit = *params.Limit
		}
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	records, err := s.opts.Archive.ListAnalyses(limit)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []store.Record{}
	}
	return ListResult{Analyses: records}, nil
}

func (s *Server) handleGet(_ context.Context, args json.RawMessage) (any, error) {
	if s.opts.Archive == nil {
		return nil, errNoArchive
	}
	var params struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	rec, err := s.opts.Archive.GetAnalysis(params.ID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("no analysis with id %q", params.ID)
	}
	return rec, nil
}
