package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/yavin-ai/yavin/internal/search"
	"github.com/yavin-ai/yavin/internal/sim"
)

const (
	maxEpochs       = 5000
	lossReportEvery = 10
)

// noDelay runs demos without the animation cadence.
var noDelay = sim.Options{Interval: -1}

func (s *Server) handleRunGradientDescent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, err := request.RequireFloat("start")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: start"), nil
	}
	rate := request.GetFloat("learning_rate", sim.DefaultGradientRate)
	steps := request.GetInt("max_steps", sim.GradientMaxIterations)
	if steps <= 0 || steps > sim.GradientMaxIterations {
		steps = sim.GradientMaxIterations
	}

	g := sim.NewGradientDescent(noDelay)
	g.SetX(start)
	g.SetLearningRate(rate)
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if g.Advance() {
			break
		}
	}

	st := g.State()
	var b strings.Builder
	fmt.Fprintf(&b, "# Gradient descent on f(x)=x²\n\n")
	fmt.Fprintf(&b, "Start x=%.4f, learning rate %.4g\n\n", start, rate)
	b.WriteString("| Step | x | f(x) |\n|---|---|---|\n")
	for _, sm := range st.History {
		fmt.Fprintf(&b, "| %d | %.6f | %.6f |\n", sm.Iteration, sm.Param, sm.Value)
	}
	fmt.Fprintf(&b, "\nFinished after %d steps at x=%.6f, f(x)=%.6f, gradient %.6f (%s).\n",
		st.Iteration, st.X, st.FX, st.Gradient, st.Status)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleTrainDecisionBoundary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	epochs := request.GetInt("epochs", sim.DefaultBoundaryEpochs)
	if epochs <= 0 {
		epochs = sim.DefaultBoundaryEpochs
	}
	epochs = min(epochs, maxEpochs)
	rate := request.GetFloat("learning_rate", sim.DefaultBoundaryRate)
	seed := int64(request.GetInt("seed", 0))

	opts := noDelay
	opts.Seed = seed
	d := sim.NewDecisionBoundary(opts)
	d.SetLearningRate(rate)

	var b strings.Builder
	fmt.Fprintf(&b, "# Decision boundary training\n\n")
	fmt.Fprintf(&b, "Initial loss %.4f\n\n| Epoch | Loss |\n|---|---|\n", d.Loss())
	every := max(epochs/lossReportEvery, 1)
	for e := 1; e <= epochs; e++ {
		if err := ctx.Err(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		loss := d.TrainStep()
		if e%every == 0 || e == epochs {
			fmt.Fprintf(&b, "| %d | %.4f |\n", e, loss)
		}
	}

	st := d.State()
	correct := 0
	for _, p := range st.Points {
		pred := 0
		if d.Predict(p.X, p.Y) >= 0.5 {
			pred = 1
		}
		if pred == p.Label {
			correct++
		}
	}
	fmt.Fprintf(&b, "\nWeights w0=%.4f w1=%.4f bias=%.4f\n", st.W0, st.W1, st.Bias)
	if len(st.Points) > 0 {
		fmt.Fprintf(&b, "Training accuracy %d/%d (%.1f%%)\n",
			correct, len(st.Points), 100*float64(correct)/float64(len(st.Points)))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleAttentionWeights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}
	if len(sim.Tokenize(text)) == 0 {
		return mcp.NewToolResultError("text contains no tokens"), nil
	}

	opts := noDelay
	opts.Seed = int64(request.GetInt("seed", 0))
	a := sim.NewAttentionWeights(opts)
	tokens := a.SetTokens(text)
	st := a.State()

	var b strings.Builder
	b.WriteString("# Attention weights\n\nRows attend from, columns attend to. Each row sums to 1.\n\n|  |")
	for _, t := range tokens {
		fmt.Fprintf(&b, " %s |", t)
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---|", len(tokens)))
	b.WriteString("\n")
	for i, row := range st.Weights {
		fmt.Fprintf(&b, "| **%s** |", tokens[i])
		for _, w := range row {
			fmt.Fprintf(&b, " %.3f |", w)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleSearchLessons(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	if s.index == nil {
		return mcp.NewToolResultText("No lessons are indexed."), nil
	}
	limit := request.GetInt("limit", 5)

	results, err := s.index.Search(ctx, query, limit, search.MinSimilarity)
	if errors.Is(err, search.ErrEmptyQuery) {
		return mcp.NewToolResultError("query has no searchable words"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No matching lessons."), nil
	}
	return mcp.NewToolResultText(formatLessonResults(results)), nil
}

func formatLessonResults(results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d lessons:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "### %d. %s (%s)\n", i+1, r.Heading, r.Href)
		fmt.Fprintf(&b, "Similarity: %.2f\n", r.Similarity)
		if r.Summary != "" {
			fmt.Fprintf(&b, "\n%s\n", r.Summary)
		}
		b.WriteString("\n")
	}
	return b.String()
}
