package mcp

import "github.com/mark3labs/mcp-go/mcp"

var runGradientDescentTool = mcp.NewTool("run_gradient_descent",
	mcp.WithDescription("Minimize f(x)=x² with gradient descent and return the trajectory."),
	mcp.WithNumber("start",
		mcp.Required(),
		mcp.Description("Starting value of x"),
	),
	mcp.WithNumber("learning_rate",
		mcp.Description("Step size (default 0.1). Rates above 1 diverge."),
	),
	mcp.WithNumber("max_steps",
		mcp.Description("Maximum number of steps (default and maximum 100)"),
	),
)

var trainDecisionBoundaryTool = mcp.NewTool("train_decision_boundary",
	mcp.WithDescription("Train a two-feature logistic classifier on generated data and report the loss curve and final weights."),
	mcp.WithNumber("epochs",
		mcp.Description("Training epochs (default 100, at most 5000)"),
	),
	mcp.WithNumber("learning_rate",
		mcp.Description("Step size (default 0.5)"),
	),
	mcp.WithNumber("seed",
		mcp.Description("Random seed for the generated points; 0 picks one"),
	),
)

var attentionWeightsTool = mcp.NewTool("attention_weights",
	mcp.WithDescription("Tokenize a sentence and return a row-normalized attention matrix over its tokens."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Sentence to attend over"),
	),
	mcp.WithNumber("seed",
		mcp.Description("Random seed for the weights; 0 picks one"),
	),
)

var searchLessonsTool = mcp.NewTool("search_lessons",
	mcp.WithDescription("Search the course lessons. Tolerates typos and partial words."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
)
