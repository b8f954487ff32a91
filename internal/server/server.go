// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/config"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/history"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/prompts"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/resources"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/runner"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/semantic"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Name is the MCP server name announced to hosts.
const Name = "cfbench-guide"

// New creates and configures the MCP server with all tools, prompts and
// resources registered.
//
// The returned cleanup function closes the history store and must be
// called on shutdown. It is always non-nil and safe to call even if history
// is disabled or failed to open.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*server.MCPServer, func(), error) {
	if log == nil {
		log = zap.NewNop()
	}

	// --- Optional subsystems ---
	//
	// History and semantic adjudication are independent: if either fails
	// to initialize, validation keeps working without it.

	cleanup := noop
	var store *history.Store
	if cfg.History.Enabled {
		s, err := history.New(cfg.HistoryStoreConfig())
		if err != nil {
			log.Warn("run history disabled", zap.Error(err))
		} else {
			store = s
			cleanup = func() {
				if err := s.Close(); err != nil {
					log.Warn("history store close", zap.Error(err))
				}
			}
		}
	}

	opts := []runner.Option{runner.WithConcurrency(cfg.Concurrency)}
	if store != nil {
		opts = append(opts, runner.WithRecorder(store))
	}
	if cfg.HasGemini() {
		v, err := semantic.NewGeminiVerifier(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			log.Warn("semantic adjudication disabled", zap.Error(err))
		} else {
			opts = append(opts, runner.WithVerifier(v, cfg.AdjudicationOptions()))
		}
	}
	r := runner.New(cfg.ValidationOptions(), log.Named("runner"), opts...)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	validateTool := tools.NewValidateTool(r)
	s.AddTool(validateTool.Definition(), validateTool.Handle)

	parseTool := tools.NewParseTool()
	s.AddTool(parseTool.Definition(), parseTool.Handle)

	checkTool := tools.NewCheckTool()
	s.AddTool(checkTool.Definition(), checkTool.Handle)

	// History tools are registered unconditionally and report when the
	// store is disabled.
	historyTool := tools.NewHistoryTool(store)
	s.AddTool(historyTool.Definition(), historyTool.Handle)

	runTool := tools.NewRunTool(store)
	s.AddTool(runTool.Definition(), runTool.Handle)

	// --- Register prompts ---

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	triagePrompt := prompts.NewTriagePrompt()
	s.AddPrompt(triagePrompt.Definition(), triagePrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.InstructionsResource(), resourceHandler.HandleInstructions)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)

	log.Debug("mcp server ready",
		zap.Bool("history", store != nil),
		zap.Bool("semantic", cfg.HasGemini()),
		zap.String("version", Version))
	return s, cleanup, nil
}

// noop is the cleanup used when history is disabled.
func noop() {}

// serverInstructions tells the AI how to use cfbench.
func serverInstructions() string {
	return `You have access to cfbench-guide, a validator for constraint-following benchmark documents.

A document is a tagged conversation: a system prompt, intermediate user/assistant turns,
a final user query with a turn_metadata cell declaring instructions, the golden assistant
response, its validator cells, and candidate model passes (assistant_<model>_<n>) with
their own validator cells.

## Tools

- cfbench_validate: run all four phases and get a verdict (PASS, NEEDS_REVIEW,
  MINOR_REVISION, MAJOR_REVISION). Start with detail_level=summary for long documents.
- cfbench_parse: show how a document was segmented when a cell is reported missing.
- cfbench_check: check one instruction id against a text, e.g. a rewritten golden response.
- cfbench_history / cfbench_run: find and reopen past runs.

## Rules of thumb

- The golden response must satisfy every mechanical instruction.
- At least 3 of 4 candidates must break the rules (fail rate of 50% or more).
- needs_review means the tool could not decide; never report it as a failure.
- Semantic instructions (stylistic:, linguistic:, situation:) are judged by a model and
  shown as advice; the deterministic verdict never depends on them.
- Read cfbench://instructions for the supported instruction ids and their parameters.`
}
