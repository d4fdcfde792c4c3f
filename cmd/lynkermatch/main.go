package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/testing5586/lynker-match/internal/config"
	"github.com/testing5586/lynker-match/internal/database"
	"github.com/testing5586/lynker-match/internal/leaderboard"
	"github.com/testing5586/lynker-match/internal/match"
	"github.com/testing5586/lynker-match/internal/pipeline"
	"github.com/testing5586/lynker-match/internal/server"
	"github.com/testing5586/lynker-match/internal/vision"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "lynkermatch",
	Short:   "Four-pillar chart digitization and matching",
	Long:    "Lynkermatch digitizes four-pillar chart screenshots into structured records, matches charts by tiered homology criteria, and ranks users on a weighted leaderboard.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(digitizeCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(leaderboardCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("lynkermatch", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/lynkermatch/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the vision provider and leaderboard weights.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		weights := cfg.ActiveWeights()
		fmt.Println("Charts:")
		fmt.Printf("  Stored: %d\n", stats.Charts)
		fmt.Println("\nLeaderboard:")
		fmt.Printf("  Users with stats: %d\n", stats.StatUsers)
		fmt.Printf("  Active weight version: %s (match %.2f / verified %.2f)\n",
			weights.ID, weights.MatchWeight, weights.VerifiedWeight)
		fmt.Println("\nVision:")
		fmt.Printf("  Provider: %s\n", cfg.Vision.Provider)
		fmt.Printf("  Model: %s\n", cfg.Vision.Model)
		return nil
	},
}

// --- digitize command ---

var (
	digitizeUser    string
	digitizePattern string
	digitizeRaw     string
)

var digitizeCmd = &cobra.Command{
	Use:   "digitize [image]",
	Short: "Digitize a chart screenshot into a stored record",
	Long: `Digitize runs the full pipeline on a chart screenshot: vision
recognition, pillar parsing, normalization, and export formatting.
The resulting chart is stored in the local database.

Instead of an image, --raw can point to a JSON file holding an
already-recognized extraction (skips the vision provider).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		provider, image, err := resolveInput(args)
		if err != nil {
			return err
		}

		sink := pipeline.SinkFunc(func(e pipeline.Event) {
			if e.Err != "" {
				fmt.Printf("Step %d/%d: %s failed: %s\n", e.Step, e.Total, e.Stage, e.Err)
				return
			}
			fmt.Printf("Step %d/%d: %s\n", e.Step, e.Total, e.Message)
		})

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Vision.TimeoutSecs)*time.Second)
		defer cancel()

		envelope, err := pipeline.New(provider, sink).Run(ctx, image)
		if err != nil {
			return err
		}

		nc := envelope.Normalized
		if digitizePattern != "" {
			nc.Pattern = digitizePattern
		}

		rec := database.ChartRecord{
			ID:    uuid.NewString(),
			Chart: nc,
			Raw:   &envelope.Raw,
		}
		if digitizeUser != "" {
			rec.UserID = &digitizeUser
		}
		if err := db.InsertChart(rec); err != nil {
			return fmt.Errorf("storing chart: %w", err)
		}

		fmt.Printf("\nStored chart %s\n", rec.ID)
		fmt.Println(envelope.MarkdownReport())
		return nil
	},
}

func init() {
	digitizeCmd.Flags().StringVar(&digitizeUser, "user", "", "User ID to attach to the chart")
	digitizeCmd.Flags().StringVar(&digitizePattern, "pattern", "", "Pattern label (e.g. 正官格)")
	digitizeCmd.Flags().StringVar(&digitizeRaw, "raw", "", "Path to a pre-recognized extraction JSON file")
}

// resolveInput builds the vision provider and image bytes for digitize.
// With --raw the provider is static and no image is read.
func resolveInput(args []string) (vision.Provider, []byte, error) {
	if digitizeRaw != "" {
		data, err := os.ReadFile(digitizeRaw)
		if err != nil {
			return nil, nil, fmt.Errorf("reading extraction: %w", err)
		}
		raw, err := vision.DecodeExtraction(string(data), "file")
		if err != nil {
			return nil, nil, fmt.Errorf("decoding extraction: %w", err)
		}
		return &vision.StaticProvider{Extraction: raw}, nil, nil
	}

	if len(args) == 0 {
		return nil, nil, fmt.Errorf("an image path or --raw is required")
	}
	image, err := os.ReadFile(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reading image: %w", err)
	}

	v := cfg.Vision
	provider := vision.CreateProvider(v.Provider, v.Model, v.OllamaURL, v.OpenAIModel, v.APIKeyEnv)
	if provider == nil {
		return nil, nil, fmt.Errorf("no vision provider available")
	}
	return provider, image, nil
}

// --- match command ---

var matchMode string

var matchCmd = &cobra.Command{
	Use:   "match [chart-id]",
	Short: "Match a stored chart against all other charts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		tier := match.NewTierState()
		if matchMode != "" {
			c, ok := match.CriterionFromKey(matchMode)
			if !ok {
				return fmt.Errorf("unknown mode %q", matchMode)
			}
			tier = match.TierStateAt(c)
		}

		rec, err := db.GetChart(args[0])
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Printf("未找到命盘 %s\n", args[0])
			return nil
		}

		records, err := db.GetCandidates(args[0])
		if err != nil {
			return err
		}
		candidates := make([]match.Candidate, len(records))
		for i, c := range records {
			candidates[i] = match.Candidate{ID: c.ID, Chart: c.Chart}
		}

		results := match.Evaluate(rec.Chart, candidates, tier.Active())

		fmt.Printf("匹配条件: %s\n\n", tier.CriteriaText())
		if len(results) == 0 {
			fmt.Println("No matches at this tier.")
			return nil
		}
		for _, r := range results {
			fmt.Printf("  %s  %3d  %s\n", r.CandidateID, r.Score, r.ScoreLabel)
		}
		return nil
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchMode, "mode", "", "Match tier key (e.g. same_day_pillar)")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, activeWeights(), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- leaderboard command ---

var (
	boardEngine string
	boardLimit  int
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Leaderboard queries",
}

var leaderboardTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the top-ranked users",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		engine, ok := leaderboard.ParseEngine(boardEngine)
		if !ok {
			return fmt.Errorf("unknown engine %q", boardEngine)
		}

		stats, err := db.GetMatchStats(string(engine))
		if err != nil {
			return err
		}
		users := make([]leaderboard.UserStats, len(stats))
		for i, s := range stats {
			users[i] = leaderboard.UserStats{
				UserID:        s.UserID,
				MatchCount:    s.MatchCount,
				VerifiedCount: s.VerifiedCount,
			}
		}

		board := leaderboard.Top(users, engine, boardLimit, activeWeights())

		fmt.Printf("Leaderboard (%s, weights %s):\n\n", engine, board.WeightVersionID)
		if len(board.Entries) == 0 {
			fmt.Println("  No stats yet.")
			return nil
		}
		for i, e := range board.Entries {
			fmt.Printf("  %2d. %-20s %.4f  (matches %d, verified %d)\n",
				i+1, e.UserID, e.FinalScore, e.MatchCount, e.VerifiedCount)
		}
		return nil
	},
}

func init() {
	leaderboardTopCmd.Flags().StringVar(&boardEngine, "engine", "bazi", "Ranking engine: bazi or time")
	leaderboardTopCmd.Flags().IntVar(&boardLimit, "limit", 10, "Number of entries to show")
	leaderboardCmd.AddCommand(leaderboardTopCmd)
}

func activeWeights() leaderboard.WeightVersion {
	w := cfg.ActiveWeights()
	return leaderboard.WeightVersion{
		ID:             w.ID,
		MatchWeight:    w.MatchWeight,
		VerifiedWeight: w.VerifiedWeight,
	}
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "lynkermatch.db")
	return database.Open(dbPath)
}
