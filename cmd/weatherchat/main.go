package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/weather-chat/backend/internal/config"
	"github.com/zhouzirui/weather-chat/backend/internal/logger"
	agentModel "github.com/zhouzirui/weather-chat/backend/internal/model/agent"
	"github.com/zhouzirui/weather-chat/backend/internal/service/agent"
	"github.com/zhouzirui/weather-chat/backend/internal/service/chat"
)

type options struct {
	configFile string
	endpoint   string
	plain      bool
	noGreeting bool
}

func main() {
	var opts options

	root := &cobra.Command{
		Use:   "weatherchat",
		Short: "Chat with the weather agent from the terminal",
		Long:  "Sends each line to the weather agent and streams the reply. Ctrl-C cancels a reply in progress; /quit exits.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
		SilenceUsage: true,
	}

	root.Flags().StringVar(&opts.configFile, "config", os.Getenv("CONFIG_FILE"), "YAML config file")
	root.Flags().StringVar(&opts.endpoint, "endpoint", "", "agent stream endpoint (overrides WEATHER_AGENT_URL)")
	root.Flags().BoolVar(&opts.plain, "plain", false, "ignore structured weather results")
	root.Flags().BoolVar(&opts.noGreeting, "no-greeting", false, "start with an empty transcript")

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	_ = godotenv.Load()

	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		return err
	}
	if opts.endpoint != "" {
		cfg.Agent.Endpoint = opts.endpoint
	}

	// Logs would interleave with the transcript, so they only go to files.
	zl := zap.NewNop()
	if cfg.Log.Dir != "" {
		if zl, err = logger.New(cfg.Log); err != nil {
			return err
		}
		defer zl.Sync()
	}

	store := agentModel.NewMemoryStore(agentModel.Seed(), agentModel.WithStructured(cfg.Agent.Structured && !opts.plain))
	profile, ok := store.FindByID(cfg.Agent.AgentID)
	if !ok {
		return fmt.Errorf("unknown agent %q", cfg.Agent.AgentID)
	}

	client, err := agent.NewClient(agent.ClientConfig{
		Endpoint:      cfg.Agent.Endpoint,
		Timeout:       cfg.Agent.Timeout,
		DevPlayground: cfg.Agent.DevPlayground,
		Logger:        zl,
	})
	if err != nil {
		return err
	}

	session, err := chat.NewSession(chat.SessionConfig{
		ID:        cfg.Agent.ThreadID,
		Profile:   profile,
		Builder:   agent.NewBuilder(profile, cfg.Agent.Options),
		Transport: client,
		Greeting:  !opts.noGreeting,
		Logger:    zl,
	})
	if err != nil {
		return err
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	return newREPL(session, os.Stdout).run(ctx, os.Stdin, interrupts)
}
