// Package services contains the business logic for codebook ingestion,
// analysis, and lifecycle management.
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/gradeline-systems/codebook-engine/pkg/llm"
	"github.com/gradeline-systems/codebook-engine/pkg/models"
	"github.com/gradeline-systems/codebook-engine/pkg/prompts"
)

// analysisBatchSize caps the number of rows sent to the model per request.
const analysisBatchSize = 100

// analysisTemperature keeps classification output stable across runs.
const analysisTemperature = 0.2

// ModelItem is one classified entry returned by the analysis model. Fields
// the model omits stay zero-valued; reconciliation fills them back in from
// the original rows.
type ModelItem struct {
	OriginalLabel string         `json:"original_label"`
	Code          string         `json:"code"`
	Description   string         `json:"description"`
	CSIDivision   string         `json:"csi_division"`
	CSISection    string         `json:"csi_section"`
	Application   string         `json:"application"`
	Metadata      map[string]any `json:"metadata"`
}

// AnalysisResult is the combined output of one analyze call, covering all
// batches.
type AnalysisResult struct {
	Items           []ModelItem
	AnalysisSummary string
	AnalysisDetails map[string]any
}

// AnalysisService classifies normalized rows against the CSI taxonomy via
// the configured model.
type AnalysisService interface {
	Analyze(ctx context.Context, rows []models.RowRecord, codebookType models.CodebookType, rules map[string]any) (*AnalysisResult, error)
}

type analysisService struct {
	client llm.LLMClient
	logger *zap.Logger
}

var _ AnalysisService = (*analysisService)(nil)

// NewAnalysisService creates an AnalysisService backed by the given client.
func NewAnalysisService(client llm.LLMClient, logger *zap.Logger) AnalysisService {
	return &analysisService{
		client: client,
		logger: logger.Named("analysis-service"),
	}
}

// analysisResponse is the JSON shape expected from the model. A response
// with no items key decodes to a nil slice and is treated as empty rather
// than rejected; the model's output shape is not contractually guaranteed.
type analysisResponse struct {
	Items           []ModelItem    `json:"items"`
	AnalysisSummary string         `json:"analysis_summary"`
	AnalysisDetails map[string]any `json:"analysis_details"`
}

// Analyze classifies rows in batches of at most analysisBatchSize. A single
// batch returns the model's own summary; multiple batches get a rolled-up
// summary computed here, since each batch only describes its own rows. Any
// batch failure aborts the whole call.
func (s *analysisService) Analyze(ctx context.Context, rows []models.RowRecord, codebookType models.CodebookType, rules map[string]any) (*AnalysisResult, error) {
	rulesJSON := ""
	if len(rules) > 0 {
		encoded, err := json.Marshal(rules)
		if err != nil {
			return nil, fmt.Errorf("marshal coding rules: %w", err)
		}
		rulesJSON = string(encoded)
	}

	if len(rows) <= analysisBatchSize {
		resp, err := s.analyzeBatch(ctx, rows, codebookType, rulesJSON)
		if err != nil {
			return nil, err
		}
		return &AnalysisResult{
			Items:           resp.Items,
			AnalysisSummary: resp.AnalysisSummary,
			AnalysisDetails: resp.AnalysisDetails,
		}, nil
	}

	batchCount := (len(rows) + analysisBatchSize - 1) / analysisBatchSize
	s.logger.Info("Analyzing rows in batches",
		zap.Int("rows", len(rows)),
		zap.Int("batches", batchCount))

	var allItems []ModelItem
	var recommendations []string
	for start := 0; start < len(rows); start += analysisBatchSize {
		end := start + analysisBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		resp, err := s.analyzeBatch(ctx, rows[start:end], codebookType, rulesJSON)
		if err != nil {
			return nil, fmt.Errorf("batch %d of %d: %w", start/analysisBatchSize+1, batchCount, err)
		}
		allItems = append(allItems, resp.Items...)
		recommendations = append(recommendations, batchRecommendations(resp.AnalysisDetails)...)
	}

	summary, details := rollupSummary(allItems, codebookType, recommendations)
	return &AnalysisResult{
		Items:           allItems,
		AnalysisSummary: summary,
		AnalysisDetails: details,
	}, nil
}

func (s *analysisService) analyzeBatch(ctx context.Context, rows []models.RowRecord, codebookType models.CodebookType, rulesJSON string) (*analysisResponse, error) {
	// RowRecord's JSON form is already the minimal payload: omitempty drops
	// absent description/application/metadata.
	itemsJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal rows: %w", err)
	}

	prompt := prompts.BuildAnalysisPrompt(string(codebookType), string(itemsJSON), rulesJSON)

	result, err := s.client.GenerateResponse(ctx, prompt, prompts.AnalysisSystemMessage, analysisTemperature)
	if err != nil {
		return nil, llm.ClassifyError(err)
	}

	resp, err := llm.ParseJSONResponse[analysisResponse](result.Content)
	if err != nil {
		return nil, err
	}
	if resp.Items == nil {
		resp.Items = []ModelItem{}
	}

	s.logger.Debug("Batch analyzed",
		zap.Int("rows_sent", len(rows)),
		zap.Int("items_returned", len(resp.Items)),
		zap.Int("total_tokens", result.TotalTokens))

	return &resp, nil
}

// batchRecommendations pulls the recommendations list out of one batch's
// free-form details, tolerating missing or oddly typed values.
func batchRecommendations(details map[string]any) []string {
	raw, ok := details["recommendations"].([]any)
	if !ok {
		return nil
	}
	var recs []string
	for _, r := range raw {
		if s, ok := r.(string); ok && s != "" {
			recs = append(recs, s)
		}
	}
	return recs
}

// rollupSummary computes summary fields from the full item list instead of
// trusting any one batch's self-reported numbers.
func rollupSummary(items []ModelItem, codebookType models.CodebookType, recommendations []string) (string, map[string]any) {
	divisionSet := make(map[string]bool)
	appCounts := map[string]int{
		string(models.ApplicationWater):         0,
		string(models.ApplicationSanitarySewer): 0,
		string(models.ApplicationStormSewer):    0,
		string(models.ApplicationOther):         0,
	}

	for _, item := range items {
		if item.CSIDivision != "" {
			divisionSet[item.CSIDivision] = true
		}
		app := item.Application
		if app == "" {
			app = string(models.ApplicationOther)
		}
		appCounts[app]++
	}

	divisions := make([]string, 0, len(divisionSet))
	for d := range divisionSet {
		divisions = append(divisions, d)
	}

	if recommendations == nil {
		recommendations = []string{}
	}

	summary := fmt.Sprintf("Analyzed %d %s items across %d CSI divisions.", len(items), codebookType, len(divisions))
	details := map[string]any{
		"total_items":            len(items),
		"divisions_found":        divisions,
		"applications_breakdown": appCounts,
		"recommendations":        recommendations,
	}
	return summary, details
}
