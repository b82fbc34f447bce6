package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tweet-agent/internal/domain"
	"tweet-agent/internal/integrations/twitter"
	"tweet-agent/internal/logging"
)

const usageHint = `usage: tweet --topic "your topic" [--style informative|casual|tech|marketing] [--hashtags on|off] [--max-chars N] [--post]`

// Runner generates and optionally publishes a post.
type Runner interface {
	Run(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}

// Verifier checks publishing credentials.
type Verifier interface {
	VerifyCredentials(ctx context.Context) (twitter.Account, error)
}

type Deps struct {
	Agent    Runner
	Verifier Verifier
	Logger   logging.Logger
}

// Loader builds Deps once flags are parsed so that --help and flag errors
// never touch configuration.
type Loader func(ctx context.Context) (*Deps, error)

type generateOptions struct {
	topic    string
	style    string
	hashtags string
	dryRun   bool
	post     bool
	maxChars int
}

func NewRootCmd(load Loader) *cobra.Command {
	var opts generateOptions

	rootCmd := &cobra.Command{
		Use:   "tweet",
		Short: "Generate a tweet for a topic and optionally post it",
		Long: "Generate a tweet for a topic with the configured model and print it.\n" +
			"Nothing is posted unless --post is given.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			deps, err := load(cmd.Context())
			if err != nil {
				return err
			}
			return runGenerate(cmd, deps, req)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.topic, "topic", "t", "", "topic to write about (required)")
	flags.StringVarP(&opts.style, "style", "s", "", "tone: informative|casual|tech|marketing")
	flags.StringVar(&opts.hashtags, "hashtags", "off", "include up to two hashtags: on|off")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "print the generated text without posting (default)")
	flags.BoolVar(&opts.post, "post", false, "publish the generated text")
	flags.IntVar(&opts.maxChars, "max-chars", 0, "target length for generated text (default 240)")
	rootCmd.MarkFlagsMutuallyExclusive("dry-run", "post")

	rootCmd.AddCommand(newVerifyCmd(load))
	return rootCmd
}

// request maps flags to a GenerationRequest. Any --hashtags value other
// than "off" enables hashtags.
func (o generateOptions) request() (domain.GenerationRequest, error) {
	topic := strings.TrimSpace(o.topic)
	if topic == "" {
		return domain.GenerationRequest{}, errors.New("missing --topic\n" + usageHint)
	}
	if o.maxChars < 0 {
		return domain.GenerationRequest{}, errors.New("--max-chars must be positive")
	}
	style := domain.Style(strings.ToLower(strings.TrimSpace(o.style)))
	if !style.Valid() {
		return domain.GenerationRequest{}, fmt.Errorf("unknown --style %q\n%s", o.style, usageHint)
	}
	return domain.GenerationRequest{
		Topic:           topic,
		Style:           style,
		IncludeHashtags: strings.ToLower(strings.TrimSpace(o.hashtags)) != "off",
		MaxChars:        o.maxChars,
		DryRun:          !o.post,
	}, nil
}

func runGenerate(cmd *cobra.Command, deps *Deps, req domain.GenerationRequest) error {
	if deps == nil || deps.Agent == nil {
		return errors.New("agent is not configured")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	result, err := deps.Agent.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.Posted == nil {
		logger.WithField("length", len([]rune(result.GeneratedText))).Info("Dry run complete")
		fmt.Fprintln(out, "Generated tweet (not posted):")
		fmt.Fprintln(out, result.GeneratedText)
		return nil
	}

	logger.WithFields(logging.Fields{"id": result.Posted.ID, "url": result.Posted.URL}).Info("Tweet posted")
	ref := result.Posted.URL
	if ref == "" {
		ref = result.Posted.ID
	}
	fmt.Fprintf(out, "Tweet posted: %s\n", ref)
	return nil
}

func newVerifyCmd(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the configured X credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := load(cmd.Context())
			if err != nil {
				return err
			}
			if deps == nil || deps.Verifier == nil {
				return errors.New("publisher is not configured")
			}
			acct, err := deps.Verifier.VerifyCredentials(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authenticated as @%s (%s)\n", acct.ScreenName, acct.ID)
			return nil
		},
	}
}
