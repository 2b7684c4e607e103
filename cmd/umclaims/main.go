// umclaims - Utilization Management Claims Analytics
//
// Usage:
//   umclaims generate --num-claims 100000 --seed 42
//   umclaims run-all --output-dir output
//   umclaims ingest-kaggle --input claims.csv
//   umclaims match-policies --rules policies.json
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"umclaims/internal/appeals"
	"umclaims/internal/benchmark"
	"umclaims/internal/detect"
	"umclaims/internal/features"
	"umclaims/internal/gen"
	"umclaims/internal/ingest"
	"umclaims/internal/policy"
	"umclaims/internal/policysim"
	"umclaims/internal/report"
	"umclaims/internal/validate"
	"umclaims/pkg/config"
	"umclaims/pkg/platform"
	"umclaims/pkg/schema"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const claimsFile = "raw_claims.csv"

func main() {
	platform.InitLogger()

	app := &cli.App{
		Name:    "umclaims",
		Usage:   "Utilization Management Claims Analytics - detection, policy impact, appeals, benchmarking",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"UMCLAIMS_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Value:   platform.GetEnv("UMCLAIMS_OUTPUT_DIR", "output"),
				Usage:   "Directory for pipeline artifacts",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "JSON config file overriding defaults",
			},
			&cli.Int64Flag{
				Name:    "seed",
				Value:   platform.GetEnvInt64("UMCLAIMS_SEED", 42),
				Usage:   "Random seed for reproducible generation",
			},
			&cli.IntFlag{
				Name:    "num-claims",
				Value:   platform.GetEnvInt("UMCLAIMS_NUM_CLAIMS", 100_000),
				Usage:   "Number of claims to generate",
			},
		},

		Commands: []*cli.Command{
			generateCommand(),
			validateCommand(),
			processCommand(),
			detectCommand(),
			reportCommand(),
			ingestKaggleCommand(),
			matchPoliciesCommand(),
			policySeedsCommand(),
			runAllCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges the optional config file with CLI flag overrides.
func loadConfig(c *cli.Context) (config.PipelineConfig, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("seed") {
		cfg.Seed = c.Int64("seed")
	}
	if c.IsSet("num-claims") {
		cfg.NumClaims = c.Int("num-claims")
	}
	if c.IsSet("output-dir") {
		cfg.OutputDir = c.String("output-dir")
	}
	return cfg, nil
}

// =============================================================================
// GENERATE COMMAND
// =============================================================================

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate synthetic claims data",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			claims := gen.GenerateClaims(cfg)
			out := filepath.Join(cfg.OutputDir, claimsFile)
			if err := ingest.SaveClaims(claims, out); err != nil {
				return err
			}
			fmt.Printf("Generated %d claims -> %s\n", len(claims), out)
			return nil
		},
	}
}

// =============================================================================
// VALIDATE COMMAND
// =============================================================================

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate claims against schema and business rules",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			claims, err := ingest.LoadClaims(filepath.Join(cfg.OutputDir, claimsFile))
			if err != nil {
				return err
			}

			result := validate.Claims(claims)
			if _, err := ingest.WriteArtifact(cfg.OutputDir, "validation_report.json", "validate", result); err != nil {
				return err
			}

			if !result.Passed {
				fmt.Printf("Validation FAILED (%d critical issues)\n", len(result.CriticalIssues))
				for _, issue := range result.CriticalIssues {
					fmt.Printf("  - %s: %s\n", issue.Rule, issue.Message)
				}
				return cli.Exit("", 1)
			}
			fmt.Printf("Validation passed (%d advisories)\n", len(result.AdvisoryIssues))
			return nil
		},
	}
}

// =============================================================================
// PROCESS COMMAND
// =============================================================================

func processCommand() *cli.Command {
	return &cli.Command{
		Name:  "process",
		Usage: "Compute provider, temporal, and service-category features",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			claims, err := ingest.LoadClaims(filepath.Join(cfg.OutputDir, claimsFile))
			if err != nil {
				return err
			}

			set := features.ComputeAll(claims)
			if _, err := ingest.WriteArtifact(cfg.OutputDir, "features.json", "process", set); err != nil {
				return err
			}
			fmt.Printf("Features computed: %d providers, %d periods, %d categories\n",
				len(set.Provider), len(set.Temporal), len(set.ServiceCategory))
			return nil
		},
	}
}

// =============================================================================
// DETECT COMMAND
// =============================================================================

func detectCommand() *cli.Command {
	return &cli.Command{
		Name:  "detect",
		Usage: "Run detection rules, policy impact, appeals, and benchmarking",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			claims, err := ingest.LoadClaims(filepath.Join(cfg.OutputDir, claimsFile))
			if err != nil {
				return err
			}

			_, err = runAnalysis(cfg, claims)
			return err
		},
	}
}

// analysisResults bundles the detect-stage outputs for reporting.
type analysisResults struct {
	flags     []detect.Flag
	policy    policysim.Report
	appeals   appeals.Report
	benchmark benchmark.Report
	kpis      []policy.KPI
}

func runAnalysis(cfg config.PipelineConfig, claims []schema.Claim) (analysisResults, error) {
	set := features.ComputeProviderFeatures(claims)

	res := analysisResults{
		flags:     detect.RunAll(set, cfg.Detection),
		policy:    policysim.Analyze(claims, cfg.PolicyEvents, cfg.Detection),
		appeals:   appeals.Analyze(claims, cfg.CostPerAppeal, cfg.TopNProviders),
		benchmark: benchmark.Compare(claims, cfg.Benchmarks),
	}

	if _, err := ingest.WriteArtifact(cfg.OutputDir, "flags.json", "detect", res.flags); err != nil {
		return res, err
	}
	if _, err := ingest.WriteArtifact(cfg.OutputDir, "policy_impact.json", "detect", res.policy); err != nil {
		return res, err
	}
	if _, err := ingest.WriteArtifact(cfg.OutputDir, "appeals_report.json", "detect", res.appeals); err != nil {
		return res, err
	}
	if _, err := ingest.WriteArtifact(cfg.OutputDir, "benchmark_report.json", "detect", res.benchmark); err != nil {
		return res, err
	}

	high := 0
	for _, f := range res.flags {
		if f.Severity == detect.SeverityHigh {
			high++
		}
	}
	fmt.Printf("Detection complete: %d flags (%d high)\n", len(res.flags), high)
	return res, nil
}

// =============================================================================
// REPORT COMMAND
// =============================================================================

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Generate the Markdown analytics report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "rank-kpis-by",
				Value: "total_amount",
				Usage: "Policy insights sort key (total_amount, denial_rate)",
			},
			&cli.StringFlag{
				Name:  "rules",
				Usage: "Policy rules JSON for the policy insights section",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			claims, err := ingest.LoadClaims(filepath.Join(cfg.OutputDir, claimsFile))
			if err != nil {
				return err
			}

			res, err := runAnalysis(cfg, claims)
			if err != nil {
				return err
			}

			if rulesPath := c.String("rules"); rulesPath != "" {
				rules, err := policy.LoadRules(rulesPath)
				if err != nil {
					return err
				}
				matches := policy.MatchClaims(claims, rules)
				res.kpis = policy.ComputeKPIs(claims, matches)
			}

			path, err := report.Generate(report.Input{
				Config:    cfg,
				Claims:    claims,
				Flags:     res.flags,
				Policy:    res.policy,
				Appeals:   res.appeals,
				Benchmark: res.benchmark,
				KPIs:      res.kpis,
				RankKPIBy: c.String("rank-kpis-by"),
			}, cfg.OutputDir)
			if err != nil {
				return err
			}
			fmt.Printf("Report -> %s\n", path)
			return nil
		},
	}
}

// =============================================================================
// INGEST-KAGGLE COMMAND
// =============================================================================

func ingestKaggleCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest-kaggle",
		Usage: "Ingest a Kaggle Enhanced Health Insurance Claims CSV into canonical format",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Path to the Kaggle CSV file",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			claims, err := ingest.LoadKaggleClaims(c.String("input"))
			if err != nil {
				return err
			}
			out := filepath.Join(cfg.OutputDir, claimsFile)
			if err := ingest.SaveClaims(claims, out); err != nil {
				return err
			}
			fmt.Printf("Ingested %d claims -> %s\n", len(claims), out)
			return nil
		},
	}
}

// =============================================================================
// POLICY COMMANDS
// =============================================================================

func matchPoliciesCommand() *cli.Command {
	return &cli.Command{
		Name:  "match-policies",
		Usage: "Match claims to policy rules and compute per-policy KPIs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "rules",
				Usage:    "Path to the policy rules JSON file",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			claims, err := ingest.LoadClaims(filepath.Join(cfg.OutputDir, claimsFile))
			if err != nil {
				return err
			}
			rules, err := policy.LoadRules(c.String("rules"))
			if err != nil {
				return err
			}

			matches := policy.MatchClaims(claims, rules)
			kpis := policy.ComputeKPIs(claims, matches)

			if _, err := ingest.WriteArtifact(cfg.OutputDir, "policy_matches.json", "match-policies", matches); err != nil {
				return err
			}
			if _, err := ingest.WriteArtifact(cfg.OutputDir, "policy_kpis.json", "match-policies", kpis); err != nil {
				return err
			}
			fmt.Printf("Matched %d claims against %d rules (%d policy groups)\n",
				len(matches), len(rules), len(kpis))
			return nil
		},
	}
}

func policySeedsCommand() *cli.Command {
	return &cli.Command{
		Name:  "policy-seeds",
		Usage: "Derive policy seed clusters from claims utilization patterns",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "min-claims",
				Value: 25,
				Usage: "Minimum claims per cluster",
			},
			&cli.IntFlag{
				Name:  "top-dx",
				Value: 5,
				Usage: "Top diagnosis codes kept per cluster",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			claims, err := ingest.LoadClaims(filepath.Join(cfg.OutputDir, claimsFile))
			if err != nil {
				return err
			}

			seeds := policy.BuildSeeds(claims, c.Int("min-claims"), c.Int("top-dx"))
			if _, err := ingest.WriteArtifact(cfg.OutputDir, "policy_seeds.json", "policy-seeds", seeds); err != nil {
				return err
			}
			fmt.Printf("Built %d policy seed clusters\n", len(seeds))
			return nil
		},
	}
}

// =============================================================================
// RUN-ALL COMMAND
// =============================================================================

func runAllCommand() *cli.Command {
	return &cli.Command{
		Name:  "run-all",
		Usage: "Execute the full pipeline: generate -> validate -> process -> detect -> report",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			fmt.Println("=== UM Claims Analytics - Full Pipeline ===")

			// Stage 1: Generate
			claims := gen.GenerateClaims(cfg)
			if err := ingest.SaveClaims(claims, filepath.Join(cfg.OutputDir, claimsFile)); err != nil {
				return err
			}
			fmt.Printf("Stage 1: %d claims generated\n", len(claims))

			// Stage 2: Validate
			result := validate.Claims(claims)
			if _, err := ingest.WriteArtifact(cfg.OutputDir, "validation_report.json", "validate", result); err != nil {
				return err
			}
			if !result.Passed {
				for _, issue := range result.CriticalIssues {
					fmt.Printf("  %s: %s\n", issue.Rule, issue.Message)
				}
				return cli.Exit("Stage 2: validation failed", 1)
			}
			fmt.Printf("Stage 2: validation passed (%d advisories)\n", len(result.AdvisoryIssues))

			// Stage 3: Features
			set := features.ComputeAll(claims)
			if _, err := ingest.WriteArtifact(cfg.OutputDir, "features.json", "process", set); err != nil {
				return err
			}
			fmt.Printf("Stage 3: features computed (%d providers)\n", len(set.Provider))

			// Stage 4: Detection & analysis
			res, err := runAnalysis(cfg, claims)
			if err != nil {
				return err
			}

			// Stage 5: Report
			path, err := report.Generate(report.Input{
				Config:    cfg,
				Claims:    claims,
				Flags:     res.flags,
				Policy:    res.policy,
				Appeals:   res.appeals,
				Benchmark: res.benchmark,
			}, cfg.OutputDir)
			if err != nil {
				return err
			}
			fmt.Printf("Stage 5: report -> %s\n", path)

			fmt.Println("=== Pipeline complete ===")
			return nil
		},
	}
}
