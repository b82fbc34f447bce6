package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	"tweet-agent/internal/domain"
	"tweet-agent/internal/logging"
)

const (
	defaultGenerateTimeout = 30 * time.Second

	sourceModel    = "model"
	sourceOffline  = "offline"
	sourceFallback = "fallback"
)

// Generator produces text for a prompt. Implementations return whatever
// envelope their backend uses.
type Generator interface {
	Generate(ctx context.Context, prompt string) (domain.GenerationOutput, error)
}

// Dispatcher publishes validated text. *PostService satisfies it.
type Dispatcher interface {
	Execute(ctx context.Context, rawText string) (domain.PublishedPost, error)
}

// GenerationPolicy decides what happens when the generator cannot produce text.
type GenerationPolicy string

const (
	// PolicyFallback substitutes the offline generator and logs a warning.
	PolicyFallback GenerationPolicy = "fallback"
	// PolicyStrict returns ErrorGenerationUnavailable to the caller.
	PolicyStrict GenerationPolicy = "strict"
)

func ParseGenerationPolicy(s string) (GenerationPolicy, error) {
	switch GenerationPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFallback:
		return PolicyFallback, nil
	case PolicyStrict:
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("usecase: unknown generation policy %q", s)
}

type AgentOption func(*AgentService)

// WithGenerator sets the text generator. Without one every non-dry run goes
// through the policy's unavailable path.
func WithGenerator(g Generator) AgentOption {
	return func(s *AgentService) {
		s.generator = g
	}
}

func WithPolicy(p GenerationPolicy) AgentOption {
	return func(s *AgentService) {
		s.policy = p
	}
}

func WithGenerateTimeout(d time.Duration) AgentOption {
	return func(s *AgentService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(l logging.Logger) AgentOption {
	return func(s *AgentService) {
		if l != nil {
			s.logger = l
		}
	}
}

// AgentService builds a prompt, obtains text and optionally publishes it.
type AgentService struct {
	dispatcher Dispatcher
	generator  Generator
	policy     GenerationPolicy
	timeout    time.Duration
	logger     logging.Logger
	breaker    circuitbreaker.CircuitBreaker[domain.GenerationOutput]
}

func NewAgentService(d Dispatcher, opts ...AgentOption) (*AgentService, error) {
	if d == nil {
		return nil, errors.New("usecase: dispatcher must not be nil")
	}
	s := &AgentService{
		dispatcher: d,
		policy:     PolicyFallback,
		timeout:    defaultGenerateTimeout,
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy != PolicyFallback && s.policy != PolicyStrict {
		return nil, fmt.Errorf("usecase: unknown generation policy %q", s.policy)
	}
	s.breaker = newGeneratorBreaker(s.logger)
	return s, nil
}

// newGeneratorBreaker stops calling a failing model for a while; the open
// breaker surfaces as an ordinary generation error.
func newGeneratorBreaker(logger logging.Logger) circuitbreaker.CircuitBreaker[domain.GenerationOutput] {
	return circuitbreaker.NewBuilder[domain.GenerationOutput]().
		HandleIf(func(_ domain.GenerationOutput, err error) bool {
			return isGeneratorFailure(err)
		}).
		WithFailureThresholdRatio(3, 5).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			logger.WithFields(logging.Fields{
				"circuit_breaker": "generator",
				"from_state":      event.OldState,
				"to_state":        event.NewState,
			}).Warn("circuit breaker state change")
		}).
		Build()
}

// isGeneratorFailure reports whether err counts against the model. A caller
// abandoning its own request does not.
func isGeneratorFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// Run executes one generation request. Dry runs never reach the generator or
// the dispatcher. Validation and publish errors from the dispatcher are
// returned as is; nothing is retried.
func (s *AgentService) Run(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return domain.GenerationResult{}, newError(ErrorInvalidInput, ReasonInvalidRequest, err)
	}
	maxChars := req.ResolvedMaxChars()
	prompt := buildPrompt(req, maxChars)

	log := s.logger.WithFields(logging.Fields{"topic": req.Topic, "dry_run": req.DryRun})
	log.WithField("prompt", prompt).Debug("Generating tweet")

	text, source, err := s.generate(ctx, req, prompt, maxChars)
	if err != nil {
		log.WithError(err).Error("Generation unavailable")
		return domain.GenerationResult{}, err
	}
	log.WithFields(logging.Fields{
		"source": source,
		"length": utf8.RuneCountInString(text),
	}).Info("Generated tweet")

	if req.DryRun {
		return domain.GenerationResult{GeneratedText: text}, nil
	}

	post, err := s.dispatcher.Execute(ctx, text)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	return domain.GenerationResult{
		GeneratedText: text,
		Posted:        &domain.PostedRef{ID: post.ID, URL: post.URL},
	}, nil
}

func (s *AgentService) generate(ctx context.Context, req domain.GenerationRequest, prompt string, maxChars int) (string, string, error) {
	if req.DryRun {
		return offlinePost(req.Topic, maxChars), sourceOffline, nil
	}
	if s.generator == nil {
		return s.unavailable(req, maxChars, newError(ErrorGenerationUnavailable, ReasonGeneratorNotConfigured, nil))
	}

	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	out, err := s.callGenerator(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}
		return s.unavailable(req, maxChars, newError(ErrorGenerationUnavailable, ReasonGenerationFailed, err))
	}
	text := strings.TrimSpace(normalizeOutput(out))
	if text == "" {
		return s.unavailable(req, maxChars, newError(ErrorGenerationUnavailable, ReasonEmptyOutput, nil))
	}
	return text, sourceModel, nil
}

func (s *AgentService) callGenerator(ctx context.Context, prompt string) (domain.GenerationOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return failsafe.With[domain.GenerationOutput](s.breaker).WithContext(ctx).Get(func() (domain.GenerationOutput, error) {
		return s.generator.Generate(ctx, prompt)
	})
}

func (s *AgentService) unavailable(req domain.GenerationRequest, maxChars int, cause *Error) (string, string, error) {
	if s.policy == PolicyStrict {
		return "", "", cause
	}
	s.logger.WithError(cause).WithField("topic", req.Topic).Warn("Generator unavailable; using offline text")
	return offlinePost(req.Topic, maxChars), sourceFallback, nil
}
