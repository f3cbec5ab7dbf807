package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "adhyayan",
		Subsystem: "ai",
		Name:      "judgment_duration_seconds",
		Help:      "Duration of AI judgment requests",
	}, []string{"model", "dimension"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adhyayan",
		Subsystem: "ai",
		Name:      "judgment_failures_total",
		Help:      "Number of AI judgment failures",
	}, []string{"model", "dimension"})
)

// OpenAIConfig defines configuration options for the OpenAI judge.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// OpenAIJudge implements Judge against the OpenAI chat completion API.
type OpenAIJudge struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIJudge builds a new judge using the provided configuration.
func NewOpenAIJudge(cfg OpenAIConfig) (*OpenAIJudge, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	tracer := otel.Tracer("github.com/adhyayan-oer/adhyayan-go-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIJudge{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Judge sends the judgment request and parses the structured response. It is
// a single synchronous round-trip with a fixed timeout and no retry; callers
// are expected to substitute NeutralJudgment on error.
func (j *OpenAIJudge) Judge(parent context.Context, req JudgmentRequest) (JudgmentResult, error) {
	ctx, span := j.tracer.Start(parent, "openai.judge", trace.WithAttributes(
		attribute.String("model", j.cfg.Model),
		attribute.String("dimension", req.Dimension),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, j.cfg.Timeout)
	defer cancel()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       j.cfg.Model,
		MaxTokens:   j.cfg.MaxTokens,
		Temperature: j.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: judgeSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildJudgmentPrompt(req),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := j.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(j.cfg.Model, req.Dimension).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(j.cfg.Model, req.Dimension).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return JudgmentResult{}, fmt.Errorf("openai judge: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(j.cfg.Model, req.Dimension).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return JudgmentResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, ok := parseJudgment(content, req)
	if !ok {
		err := fmt.Errorf("unparseable judgment response")
		aiFailures.WithLabelValues(j.cfg.Model, req.Dimension).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		j.logger.Warn().Str("dimension", req.Dimension).Str("raw", truncate(content, 300)).Msg("judgment response was not valid json")
		return JudgmentResult{}, err
	}

	return result, nil
}

func judgeSystemPrompt() string {
	return "You are an automated reviewer of educational content. Respond with a JSON object only, using exactly the keys r" +
		"equested. The main dimension key is scored 1-10 and every sub-score key is scored 0-5. Do not browse the web."
}

func buildJudgmentPrompt(req JudgmentRequest) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("You are evaluating %s of educational content for student level: %s.\n",
		strings.ToUpper(req.Dimension), req.EducationLevel))

	if len(req.Rules) > 0 {
		builder.WriteString("\nImportant rules:\n")
		for _, rule := range req.Rules {
			builder.WriteString("- ")
			builder.WriteString(rule)
			builder.WriteString("\n")
		}
	}

	builder.WriteString("\nReturn JSON ONLY:\n{\n")
	builder.WriteString(fmt.Sprintf("  %q: <1-10>", req.Dimension))
	for _, key := range req.SubScoreKeys {
		builder.WriteString(fmt.Sprintf(",\n  %q: <0-5>", key))
	}
	builder.WriteString("\n}\n")

	if req.ChapterName != "" || req.ChapterDescription != "" {
		builder.WriteString("\nCHAPTER CONTEXT:\n")
		builder.WriteString("- Title: " + req.ChapterName + "\n")
		builder.WriteString("- Description: " + req.ChapterDescription + "\n")
	}

	builder.WriteString("\nContent:\n")
	builder.WriteString(req.ContentText)
	return builder.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
