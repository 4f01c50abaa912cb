package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"github.com/yash2163/ComplaintHandling-POC/internal/utils"
	"go.uber.org/zap"
)

// DefaultResolutionBodySize bounds the ops reply sent for parsing
const DefaultResolutionBodySize = 10000

// Extractor implements core.Extractor on top of a text completion client.
// Every response is validated here so the processors only see typed,
// normalized values.
type Extractor struct {
	client            ports.LLMClient
	textProcessor     *utils.TextProcessor
	maxBodySize       int
	maxResolutionSize int
	logger            *zap.Logger
}

// NewExtractor creates a new extractor. maxBodySize bounds the complaint
// body; maxResolutionSize bounds the ops reply (DefaultResolutionBodySize
// when not positive).
func NewExtractor(
	client ports.LLMClient,
	textProcessor *utils.TextProcessor,
	maxBodySize int,
	maxResolutionSize int,
	logger *zap.Logger,
) *Extractor {
	if maxResolutionSize <= 0 {
		maxResolutionSize = DefaultResolutionBodySize
	}
	return &Extractor{
		client:            client,
		textProcessor:     textProcessor,
		maxBodySize:       maxBodySize,
		maxResolutionSize: maxResolutionSize,
		logger:            logger,
	}
}

// ExtractComplaint reads a complaint email into structured fields
func (e *Extractor) ExtractComplaint(ctx context.Context, subject, body string, receivedAt time.Time) (*core.Extraction, error) {
	prompt := fmt.Sprintf(extractionPromptFormat,
		subject,
		e.textProcessor.Prepare(body, e.maxBodySize),
		receivedAt.UTC().Format(time.RFC3339))

	var resp extractionResponse
	if err := e.complete(ctx, "extract_complaint", prompt, &resp); err != nil {
		return nil, err
	}

	ext := &core.Extraction{
		PNR:              strings.ToUpper(cleanValue(resp.PNR)),
		ComplaintSummary: cleanValue(resp.ComplaintSummary),
		FlightNumber:     strings.ToUpper(cleanValue(resp.FlightNumber)),
		Date:             cleanValue(resp.Date),
		IssueType:        core.NormalizeIssueType(resp.IssueType),
		WeatherCondition: cleanValue(resp.WeatherCondition),
		ConfidenceScore:  core.ClampScore(int(resp.ConfidenceScore)),
	}
	if ext.PNR != "" && !pnrPattern.MatchString(ext.PNR) {
		e.logger.Warn("Discarding malformed PNR from extraction", zap.String("pnr", ext.PNR))
		ext.PNR = ""
	}
	if ext.Date != "" && !datePattern.MatchString(ext.Date) {
		e.logger.Debug("Discarding malformed date from extraction", zap.String("date", ext.Date))
		ext.Date = ""
	}
	return ext, nil
}

// ParseResolution reads the ops reply into a resolution grid
func (e *Extractor) ParseResolution(ctx context.Context, body string) (*core.ResolutionGrid, error) {
	prompt := fmt.Sprintf(resolutionPromptFormat, e.textProcessor.Prepare(body, e.maxResolutionSize))

	var resp resolutionResponse
	if err := e.complete(ctx, "parse_resolution", prompt, &resp); err != nil {
		return nil, err
	}
	return &core.ResolutionGrid{
		ActionTaken: cleanValue(resp.ActionTaken),
		Outcome:     cleanValue(resp.Outcome),
	}, nil
}

// EvaluateResolution judges a resolution against the complaint summary
func (e *Extractor) EvaluateResolution(ctx context.Context, complaintSummary string, resolution core.ResolutionGrid) (*core.Evaluation, error) {
	grid, err := json.Marshal(resolution)
	if err != nil {
		return nil, fmt.Errorf("failed to encode resolution grid: %w", err)
	}
	prompt := fmt.Sprintf(evaluationPromptFormat, complaintSummary, grid)

	var resp evaluationResponse
	if err := e.complete(ctx, "evaluate_resolution", prompt, &resp); err != nil {
		return nil, err
	}

	status := core.ResolutionStatus(strings.ToUpper(strings.TrimSpace(resp.Status)))
	if status != core.ResolutionResolved {
		status = core.ResolutionFlagged
	}
	return &core.Evaluation{
		Status:          status,
		ConfidenceScore: core.ClampScore(int(resp.ConfidenceScore)),
		AgentSummary:    strings.TrimSpace(resp.AgentSummary),
		AgentReasoning:  strings.TrimSpace(resp.AgentReasoning),
		DraftResponse:   strings.TrimSpace(resp.DraftResponse),
	}, nil
}

func (e *Extractor) complete(ctx context.Context, call, prompt string, out any) error {
	start := time.Now()
	text, err := e.client.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("%s: %s completion failed: %w", call, e.client.Name(), err)
	}

	raw, err := utils.ExtractJSON(text)
	if err != nil {
		return fmt.Errorf("%s: %w", call, err)
	}
	if err := decodeResponse(raw, out); err != nil {
		return fmt.Errorf("%s: failed to parse LLM response as JSON: %w", call, err)
	}

	e.logger.Debug("LLM call completed",
		zap.String("call", call),
		zap.String("provider", e.client.Name()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
