package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"devteam/internal/app"
	"devteam/internal/chat"
	"devteam/internal/config"
	"devteam/internal/domain"
	"devteam/internal/repo"
	"devteam/internal/server"
	devteamsdk "devteam/sdk/go"
)

var rootCmd = &cobra.Command{
	Use:   "devteam",
	Short: "Simulated AI development team",
	Long: `devteam runs a scripted, tick-driven simulation of an AI development team.
Core concepts:
- Project: a name and description handed to the team; it moves IDLE -> PLANNING -> ARCHITECTING -> RACE_MODE -> DEPLOYING -> COMPLETED.
- Agents: roles such as Architect or QA who write log lines and artifacts while the project is in their phase.
- Race mode: competing candidate implementations make progress until the evaluator picks a winner.
- Artifacts: documents and code produced along the way (PRD, architecture, winning code).
- Journal: optional SQLite diary of every change, view with 'devteam log tail'.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("DEVTEAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(viper.GetString("log-level"))})))
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", config.Path(""), "path to devteam.yml")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("server", "http://127.0.0.1:8080", "API server URL")
	rootCmd.PersistentFlags().String("base-path", "/v0", "API base path")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("token", "", "bearer token for the API server")
	rootCmd.PersistentFlags().String("access-key", "", "static API key for the API server")
	for _, name := range []string{"config", "json", "server", "base-path", "log-level", "token", "access-key"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(agentsCmd())
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		Long: `Serves the REST and SSE API. Secrets come from the environment only:
DEVTEAM_JWT_SECRET enables bearer auth, DEVTEAM_ACCESS_KEY enables X-Api-Key auth,
DEVTEAM_API_KEY (or API_KEY) is the chat assistant credential.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if viper.IsSet("base-path") {
				cfg.Server.BasePath = viper.GetString("base-path")
			}
			logger := slog.Default()
			a, err := app.New(cmd.Context(), cfg, app.Options{Logger: logger, ChatAPIKey: chatAPIKey()})
			if err != nil {
				return err
			}
			defer a.Close()

			authCfg := server.AuthConfig{
				JWTSecret: os.Getenv("DEVTEAM_JWT_SECRET"),
				APIKey:    os.Getenv("DEVTEAM_ACCESS_KEY"),
				Logger:    logger.With("component", "auth"),
			}
			if authCfg.JWTSecret == "" && authCfg.APIKey == "" {
				logger.Warn("API auth disabled; set DEVTEAM_JWT_SECRET or DEVTEAM_ACCESS_KEY to enable it")
			}
			handler, err := a.Handler(authCfg)
			if err != nil {
				return err
			}
			if hooks := a.Webhooks(); hooks != nil {
				go hooks.Run(cmd.Context())
			}
			srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving devteam API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", cfg.Server.Addr, cfg.Server.BasePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects on a running server"}
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectStartCmd())
	prj.AddCommand(projectArtifactsCmd())
	prj.AddCommand(projectEventsCmd())
	return prj
}

func projectCreateCmd() *cobra.Command {
	var name, desc string
	var start bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name required")
			}
			c := apiClient()
			p, err := c.CreateProject(cmd.Context(), name, desc)
			if err != nil {
				return err
			}
			if start {
				if p, err = c.StartSimulation(cmd.Context(), p.ID); err != nil {
					return err
				}
			}
			if viper.GetBool("json") {
				return printJSON(p)
			}
			fmt.Printf("created %s (%s)\n", p.ID, p.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().BoolVar(&start, "start", false, "start the simulation right away")
	return cmd
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := apiClient().ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			printProjects(items)
			return nil
		},
	}
}

func projectShowCmd() *cobra.Command {
	var logs int
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show project state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := apiClient().GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(p)
			}
			printProject(p, logs)
			return nil
		},
	}
	cmd.Flags().IntVar(&logs, "logs", 10, "number of recent log lines")
	return cmd
}

func projectStartCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "start <id>",
		Short: "Start the simulation of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := apiClient()
			p, err := c.StartSimulation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if watch {
				return streamProject(cmd.Context(), c, p.ID)
			}
			if viper.GetBool("json") {
				return printJSON(p)
			}
			fmt.Println(renderStatus(p))
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "follow the simulation until it finishes")
	return cmd
}

func projectArtifactsCmd() *cobra.Command {
	var name string
	var code bool
	cmd := &cobra.Command{
		Use:   "artifacts <id>",
		Short: "List artifacts, or print one with --name or --code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if code {
				a, err := apiClient().SourceCode(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(a)
				}
				fmt.Println(dimStyle.Render("# " + a.Name))
				fmt.Println(a.Content)
				return nil
			}
			items, err := apiClient().Artifacts(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if name != "" {
				for _, a := range items {
					if a.Name == name || a.ID == name {
						fmt.Println(a.Content)
						return nil
					}
				}
				return fmt.Errorf("artifact %q not found", name)
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			printArtifacts(items)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "artifact name or id to print")
	cmd.Flags().BoolVar(&code, "code", false, "print the project's source code artifact")
	return cmd
}

func projectEventsCmd() *cobra.Command {
	var n int
	var evtType string
	var eventID int64
	cmd := &cobra.Command{
		Use:   "events <id>",
		Short: "List journal events of a project from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if eventID > 0 {
				evt, err := apiClient().Event(cmd.Context(), args[0], eventID)
				if err != nil {
					return err
				}
				return printJSON(evt)
			}
			items, err := apiClient().Events(cmd.Context(), args[0], n, evtType)
			if err != nil {
				return err
			}
			return printJSON(items)
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().Int64Var(&eventID, "id", 0, "print the single event with this id")
	return cmd
}

func agentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the team's agent roles and when they are on duty",
		RunE: func(cmd *cobra.Command, args []string) error {
			if viper.GetBool("json") {
				return printJSON(agentRoster())
			}
			printRoster(os.Stdout, agentRoster())
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <id>",
		Short: "Follow a project's live updates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamProject(cmd.Context(), apiClient(), args[0])
		},
	}
}

func simulateCmd() *cobra.Command {
	var name, desc string
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one simulation in this process and print it as it happens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if interval > 0 {
				cfg.Simulation.TickInterval = config.Duration(interval)
			}
			a, err := app.New(cmd.Context(), cfg, app.Options{Logger: slog.Default()})
			if err != nil {
				return err
			}
			defer a.Close()

			p := a.Store.Create(name, desc)
			// Latest snapshot wins; a slow terminal never drops the final state.
			snapshots := make(chan domain.Project, 1)
			unsubscribe := a.Engine.Subscribe(p.ID, func(p domain.Project) {
				select {
				case <-snapshots:
				default:
				}
				snapshots <- p
			})
			defer unsubscribe()
			a.Engine.Start(p.ID)

			lp := newLogPrinter(os.Stdout)
			if viper.GetBool("json") {
				lp = nil
			}
			for {
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case snap := <-snapshots:
					view := toView(snap, !snap.Status.Terminal())
					if lp != nil {
						lp.print(view)
					}
					if !snap.Status.Terminal() {
						continue
					}
					if viper.GetBool("json") {
						return printJSON(view)
					}
					printCandidates(view.Candidates)
					printArtifacts(view.Artifacts)
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().DurationVar(&interval, "interval", 0, "tick interval (overrides simulation.tick_interval)")
	return cmd
}

func chatCmd() *cobra.Command {
	var direct bool
	cmd := &cobra.Command{
		Use:   "chat <prompt>",
		Short: "Ask the team assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			var reply devteamsdk.ChatReply
			if direct {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				c := chat.New(chatAPIKey())
				c.Endpoint = cfg.Chat.Endpoint
				c.Model = cfg.Chat.Model
				c.ThinkingBudget = cfg.Chat.ThinkingBudget
				c.Timeout = cfg.Chat.Timeout.Std()
				text, err := c.Ask(cmd.Context(), prompt)
				if err != nil {
					reply.Text = chat.UserMessage(err)
					reply.Failure = "unavailable"
					if errors.Is(err, chat.ErrMissingCredential) {
						reply.Failure = "credential"
					}
				} else {
					reply.Text = text
				}
			} else {
				var err error
				if reply, err = apiClient().Chat(cmd.Context(), prompt); err != nil {
					return err
				}
			}
			if viper.GetBool("json") {
				return printJSON(reply)
			}
			fmt.Println(reply.Text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&direct, "direct", false, "call the model from this process instead of the server")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event journal",
		Long:  "The diary of everything the simulations did: status changes, log lines, artifacts and the winner.",
	}
	log.AddCommand(logTailCmd())
	log.AddCommand(logStatsCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var f repo.EventFilters
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.LatestEvents(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				printEvents(items)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&f.Limit, "n", 20, "number of events")
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&f.Type, "type", "", "event type filter")
	cmd.Flags().StringVar(&f.EntityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&f.EntityID, "entity-id", "", "entity id")
	return cmd
}

func logStatsCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count events by type",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				counts, err := r.CountEventsByType(ctx, projectID)
				if err != nil {
					return err
				}
				return printJSON(counts)
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage devteam.yml",
		Long:  "devteam.yml holds the server address, tick interval, chat model, journal and webhooks. Secrets stay in the environment.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default devteam.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("config")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cfg)
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate devteam.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load(viper.GetString("config"))
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
}

// --- helpers ---

func loadConfig() (*config.Config, error) {
	return config.LoadOptional(viper.GetString("config"))
}

func chatAPIKey() string {
	if v := os.Getenv("DEVTEAM_API_KEY"); v != "" {
		return v
	}
	return os.Getenv("API_KEY")
}

func apiClient() *devteamsdk.Client {
	c := devteamsdk.New(viper.GetString("server"))
	c.BasePath = viper.GetString("base-path")
	c.BearerToken = viper.GetString("token")
	c.APIKey = viper.GetString("access-key")
	return c
}

func withJournal(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	r, closeFn, err := app.OpenJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, r)
}

func streamProject(ctx context.Context, c *devteamsdk.Client, id string) error {
	jsonOut := viper.GetBool("json")
	lp := newLogPrinter(os.Stdout)
	var last devteamsdk.Project
	err := c.Stream(ctx, id, func(p devteamsdk.Project) error {
		last = p
		if !jsonOut {
			lp.print(p)
		}
		return nil
	})
	if err != nil {
		if devteamsdk.IsNotFound(err) {
			return fmt.Errorf("project %s not found", id)
		}
		return err
	}
	if jsonOut {
		return printJSON(last)
	}
	printCandidates(last.Candidates)
	return nil
}

func printProject(p devteamsdk.Project, logs int) {
	fmt.Printf("%s  %s\n", p.Name, dimStyle.Render(p.ID))
	if p.Description != "" {
		fmt.Println(p.Description)
	}
	fmt.Println(renderStatus(p))
	start := len(p.Logs) - logs
	if start < 0 {
		start = 0
	}
	for _, l := range p.Logs[start:] {
		fmt.Println(renderLog(l))
	}
	printCandidates(p.Candidates)
	printArtifacts(p.Artifacts)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
