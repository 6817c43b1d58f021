// Command geoflow is the project CLI: scaffolding new pipeline
// projects and validating the integrity of labeled datasets.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"geoflow/config"
	"geoflow/dataset"
	"geoflow/db"
	"geoflow/feature"
	"geoflow/generate"
	"geoflow/logging"
	"geoflow/monitor"
	"geoflow/templates"
	"geoflow/validate"
)

func main() {
	root := &cobra.Command{
		Use:           "geoflow",
		Short:         "Geospatial ML labeled dataset pipeline tooling",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newGenerateCmd(),
		newValidateCmd(),
		newDatapathCmd(),
		newCpCmd(),
		newHistoryCmd(),
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newGenerateCmd() *cobra.Command {
	var overwrite bool
	var path string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Scaffold a new pipeline project in the current git repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompter := generate.NewStdinPrompter()

			absPath, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			gitRoot, err := generate.GitRoot(absPath)
			if err != nil {
				return err
			}
			isSubdir := gitRoot != absPath
			project := filepath.Base(absPath)

			if err := generate.CopyTemplateFiles(absPath, overwrite, prompter); err != nil {
				return err
			}
			dp := config.NewDataPaths(filepath.Join(absPath, "data"))
			if err := generate.CreateDataDirs(dp); err != nil {
				return err
			}

			// Workflow substitutions use repo-relative paths.
			relDP := config.NewDataPaths("data")
			if err := generate.CreateGithubActions(gitRoot, isSubdir, project, relDP, overwrite, prompter); err != nil {
				return err
			}

			answer, err := prompter.Ask("Set up DVC data versioning now? [y/n]: ")
			if err != nil {
				return err
			}
			if strings.EqualFold(answer, "y") {
				runner := generate.ShellRunner{Dir: absPath}
				if err := generate.SetupDVC(relDP, prompter, runner); err != nil {
					return err
				}
			}
			fmt.Printf("Project %s generated at %s\n", project, absPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite existing files without asking")
	cmd.Flags().StringVar(&path, "path", ".", "project directory")
	return cmd
}

// checkManifest 集成测试检查清单 (geoflow cp files/integration.yaml .)
type checkManifest struct {
	Checks []string `yaml:"checks"`
}

func newValidateCmd() *cobra.Command {
	var configPath, checksPath, dbPath, serveAddr string
	var watch bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the data-integrity check battery over all datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger := logging.Setup(cfg.Log.Level, cfg.Log.Path)
			defer logger.Sync()

			loader, err := feature.NewLoader(4096)
			if err != nil {
				return err
			}
			dp := config.NewDataPaths(cfg.DataDir)
			suite := &validate.Suite{
				Datasets:    dataset.FromConfig(cfg.Datasets),
				FeaturesDir: dp.Features,
				Loader:      loader,
				Log:         logger,
			}

			if dbPath == "" {
				dbPath = cfg.Report.DBPath
			}
			if dbPath != "" {
				store, err := db.Open(dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				suite.Store = store
			}

			if serveAddr == "" {
				serveAddr = cfg.Monitor.Listen
			}
			if serveAddr != "" {
				hub := monitor.NewHub()
				server := monitor.NewServer(serveAddr, hub)
				go func() {
					if err := server.Start(); err != nil {
						logger.Warnw("monitor server stopped", "error", err)
					}
				}()
				defer server.Stop()
				suite.Publisher = hub
			}

			if watch {
				ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				err := suite.Watch(ctx, 2*time.Second)
				if err == context.Canceled {
					return nil
				}
				return err
			}

			var passed bool
			if checksPath != "" {
				raw, err := os.ReadFile(checksPath)
				if err != nil {
					return err
				}
				var manifest checkManifest
				if err := yaml.Unmarshal(raw, &manifest); err != nil {
					return fmt.Errorf("parse check manifest %s: %v", checksPath, err)
				}
				_, passed, err = suite.RunNamed(manifest.Checks)
				if err != nil {
					return err
				}
			} else {
				_, passed = suite.Run()
			}
			if !passed {
				return fmt.Errorf("data integrity checks failed")
			}
			fmt.Println("all data integrity checks passed")
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "geoflow.yaml", "project config file")
	cmd.Flags().StringVar(&checksPath, "checks", "", "check manifest restricting which checks run")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite report database (overrides config)")
	cmd.Flags().StringVar(&serveAddr, "serve", "", "serve live check events over websocket on this address")
	cmd.Flags().BoolVar(&watch, "watch", false, "watch for changes and re-run the checks")
	return cmd
}

func newDatapathCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "datapath NAME",
		Short: "Print a configured data path (used by generated CI)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := "data"
			if cfg, err := config.Load(configPath); err == nil {
				dataDir = cfg.DataDir
			}
			path, err := config.NewDataPaths(dataDir).Get(args[0])
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "geoflow.yaml", "project config file")
	return cmd
}

func newCpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cp TEMPLATE DEST",
		Short: "Copy an embedded template file out (used by generated CI)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := templates.Read(args[0])
			if err != nil {
				return fmt.Errorf("unknown template %s: %v", args[0], err)
			}
			dest := args[1]
			if info, err := os.Stat(dest); err == nil && info.IsDir() {
				dest = filepath.Join(dest, filepath.Base(args[0]))
			}
			return os.WriteFile(dest, content, 0o644)
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var dbPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent validation runs from the report database",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.History(limit)
			if err != nil {
				return err
			}
			for _, run := range runs {
				status := "passed"
				if !run.Passed {
					status = "FAILED: " + strings.Join(run.Failed, ", ")
				}
				fmt.Printf("%s  run %d  %s\n", run.StartedAt.Format(time.RFC3339), run.ID, status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "geoflow-reports.db", "sqlite report database")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}
