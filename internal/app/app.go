// Package app assembles the use cases and integrations from Settings. Every
// entry point goes through New.
package app

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"tweet-agent/internal/config"
	"tweet-agent/internal/integrations/agentapi"
	"tweet-agent/internal/integrations/openai"
	"tweet-agent/internal/integrations/paramstore"
	"tweet-agent/internal/integrations/twitter"
	"tweet-agent/internal/logging"
	"tweet-agent/internal/usecase"
)

type App struct {
	Settings  config.Settings
	Profile   config.AgentProfile
	Publisher *twitter.Client
	Poster    *usecase.PostService
	Agent     *usecase.AgentService
}

type Option func(*options)

type options struct {
	getter     paramstore.Getter
	twitterOpt []twitter.Option
}

// WithParamStore overrides the SSM-backed getter built from PARAM_PREFIX.
func WithParamStore(g paramstore.Getter) Option {
	return func(o *options) {
		o.getter = g
	}
}

// WithTwitterOptions appends options to the publishing client.
func WithTwitterOptions(opts ...twitter.Option) Option {
	return func(o *options) {
		o.twitterOpt = append(o.twitterOpt, opts...)
	}
}

func New(ctx context.Context, s config.Settings, logger logging.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	profile, err := config.LoadAgentProfile(s.AgentProfilePath)
	if err != nil {
		return nil, err
	}

	getter := o.getter
	if getter == nil && s.ParamPrefix != "" {
		getter, err = newSSMGetter(ctx)
		if err != nil {
			return nil, err
		}
	}

	if !s.Twitter.Complete() && getter == nil {
		logger.Warn("X credentials incomplete and no parameter store configured; publishing will fail")
	}
	twOpts := []twitter.Option{twitter.WithLogger(logger.WithField("component", "twitter"))}
	if getter != nil {
		twOpts = append(twOpts, twitter.WithParamStore(getter, s.ParamPrefix))
	}
	publisher := twitter.NewClient(twitter.Credentials(s.Twitter), append(twOpts, o.twitterOpt...)...)

	poster, err := usecase.NewPostService(publisher)
	if err != nil {
		return nil, err
	}

	generator, err := NewGenerator(s, profile, getter)
	if err != nil {
		return nil, err
	}
	policy, err := usecase.ParseGenerationPolicy(s.GenerationPolicy)
	if err != nil {
		return nil, err
	}
	if generator == nil {
		logger.WithField("generator", s.Generator).Warn("No text generator configured; non dry runs use the generation policy")
	}

	agent, err := usecase.NewAgentService(poster,
		usecase.WithGenerator(generator),
		usecase.WithPolicy(policy),
		usecase.WithGenerateTimeout(s.GenerationTimeout),
		usecase.WithLogger(logger.WithField("component", "agent")),
	)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logging.Fields{
		"generator":   s.Generator,
		"policy":      policy,
		"profile":     profile.Name,
		"param_store": getter != nil,
	}).Info("Application wired")

	return &App{
		Settings:  s,
		Profile:   profile,
		Publisher: publisher,
		Poster:    poster,
		Agent:     agent,
	}, nil
}

// NewGenerator picks the generator named by GENERATOR. It returns a nil
// Generator when the openai backend has no key source, and for offline.
func NewGenerator(s config.Settings, profile config.AgentProfile, getter paramstore.Getter) (usecase.Generator, error) {
	switch s.Generator {
	case config.GeneratorOffline:
		return nil, nil
	case config.GeneratorAgent:
		c, err := agentapi.NewClient(s.AgentURL, agentapi.WithInstructions(profile.SystemPrompt()))
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.GeneratorOpenAI, "":
		if s.OpenAIAPIKey == "" && getter == nil {
			return nil, nil
		}
		model := s.OpenAIModel
		if model == "" {
			model = profile.Model
		}
		opts := []openai.Option{
			openai.WithAPIKey(s.OpenAIAPIKey),
			openai.WithModel(model),
			openai.WithInstructions(profile.SystemPrompt()),
		}
		if s.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(s.OpenAIBaseURL))
		}
		if getter != nil {
			opts = append(opts, openai.WithParamStore(getter, s.ParamPrefix))
		}
		return openai.NewClient(opts...), nil
	}
	return nil, fmt.Errorf("app: unknown generator %q", s.Generator)
}

func newSSMGetter(ctx context.Context) (*paramstore.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: load aws config: %w", err)
	}
	return paramstore.New(ssm.NewFromConfig(awsCfg))
}
