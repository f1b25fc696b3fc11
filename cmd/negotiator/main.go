// Command negotiator runs the negotiation engine against a config file and
// a single demand, printing the resulting plan (or the last reached state,
// on failure) to stdout.
//
// Usage:
//
//	negotiator negotiate --config negotiator.yaml --intent "I need a ride to the airport at 6am"
//	negotiator version
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/demandmesh/negotiator/pkg/logger"
	"github.com/demandmesh/negotiator/pkg/negotiation/adapter"
	"github.com/demandmesh/negotiator/pkg/negotiation/builder"
	"github.com/demandmesh/negotiator/pkg/negotiation/config"
	"github.com/demandmesh/negotiator/pkg/negotiation/embed"
	"github.com/demandmesh/negotiator/pkg/negotiation/events"
	"github.com/demandmesh/negotiator/pkg/negotiation/hdc"
	"github.com/demandmesh/negotiator/pkg/negotiation/llmclient"
	"github.com/demandmesh/negotiator/pkg/negotiation/model"
	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// CLI defines the command-line interface.
type CLI struct {
	Negotiate NegotiateCmd `cmd:"" help:"Run a single negotiation end to end."`
	Version   VersionCmd   `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." default:"negotiator.yaml" type:"path"`
	EnvFile   string `help:"Path to a .env file loaded before config expansion." default:".env" type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFormat string `help:"Log format (text or json)." default:"text"`
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	fmt.Printf("negotiator %s\n", version)
	return nil
}

// NegotiateCmd runs one negotiation from the command line, useful for local
// development against a config file of LLM/embedder credentials.
type NegotiateCmd struct {
	Intent string `required:"" help:"The raw user intent to negotiate."`
	UserID string `help:"User id the demand is attributed to." default:"local-user"`
	KStar  int    `help:"Override engine.k_star from the config file."`
}

func (c *NegotiateCmd) Run(cli *CLI) error {
	logger.Init(logger.ParseLevel(cli.LogLevel), cli.LogFormat)
	log := logger.Default()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	cfg, err := config.Load(cli.Config, cli.EnvFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	llmClient, err := buildLLMClient(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("building llm client: %w", err)
	}

	encoder, err := buildEncoder(cfg.Embedder)
	if err != nil {
		return fmt.Errorf("building encoder: %w", err)
	}

	pusher := buildPusher(cfg.Events, log)

	profileAdapter := adapter.NewMemory(llmClient, map[string]map[string]any{
		c.UserID: {"agent_id": c.UserID, "role": "requester"},
	})

	eng, startOpts, err := builder.New().
		WithEncoder(encoder).
		WithPusher(pusher).
		WithLLMClient(llmClient).
		WithAdapter(profileAdapter).
		WithDefaultSkills().
		WithKStar(cfg.Engine.KStar).
		WithOfferTimeout(cfg.Engine.OfferTimeout).
		WithConfirmationTimeout(cfg.Engine.ConfirmationTimeout).
		WithAwaitConfirmation(cfg.Engine.AwaitConfirmation).
		Build()
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	if c.KStar > 0 {
		startOpts.KStar = c.KStar
	}

	session := model.NewSession(c.Intent)
	session.Demand.UserID = c.UserID
	session.MaxCenterRounds = cfg.Engine.MaxCenterRounds

	if err := eng.Start(ctx, session, startOpts); err != nil {
		fmt.Printf("negotiation %s did not complete: %v\nlast state: %s\n", session.NegotiationID, err, session.State)
		return err
	}

	output, _ := json.MarshalIndent(map[string]any{
		"negotiation_id": session.NegotiationID,
		"state":          session.State,
		"plan_output":    session.PlanOutput,
		"center_rounds":  session.CenterRounds,
	}, "", "  ")
	fmt.Println(string(output))
	return nil
}

func buildLLMClient(ctx context.Context, cfg config.ProviderConfig) (protocol.LLMClient, error) {
	switch cfg.Type {
	case "anthropic":
		return llmclient.NewAnthropic(cfg.APIKey, cfg.Model)
	case "openai":
		return llmclient.NewOpenAI(cfg.APIKey, cfg.Model)
	case "gemini":
		return llmclient.NewGemini(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider type %q", cfg.Type)
	}
}

func buildEncoder(cfg config.ProviderConfig) (protocol.Encoder, error) {
	switch cfg.Type {
	case "openai":
		return embed.NewOpenAI(cfg.APIKey, cfg.Model)
	case "mock":
		return hdc.NewMockEncoder(), nil
	default:
		return nil, fmt.Errorf("unknown embedder provider type %q", cfg.Type)
	}
}

func buildPusher(cfg config.ProviderConfig, log *slog.Logger) protocol.EventPusher {
	if cfg.Type == "" {
		return nil
	}
	log.Warn("events provider not wired for this entry point, events will not be pushed", "type", cfg.Type)
	return events.Null{}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("negotiator"),
		kong.Description("Multi-agent demand negotiation engine."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
