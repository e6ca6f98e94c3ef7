// Package main implements the fsmsctl CLI for operating the FSMS engine
// directly: registering drafts, approving and revising controlled
// documents, auditing the register, and extracting compliance tasks.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AmirShafiqueWR/rice-mill-fsms/internal/config"
	"github.com/AmirShafiqueWR/rice-mill-fsms/internal/logging"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/audit"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/control"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/extract"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/store"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/textsource"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/vault"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fsmsctl",
	Short: "CLI for the rice mill FSMS engine",
	Long: `fsmsctl operates the FSMS document control and compliance
extraction engine: register drafts, approve and revise controlled
documents, audit the master register, and mine compliance tasks out of
controlled procedures.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML)")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(reviseCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(incomingCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(rulesCmd)
}

// engine bundles the wired components a command needs.
type engine struct {
	cfg        *config.Config
	store      store.Store
	vault      *vault.Vault
	controller *control.Controller
	extractor  *extract.Service
	extractCfg extract.Config
	cleanup    func()
}

// newEngine wires the engine from configuration. CLI runs log at warn
// level so command output stays readable.
func newEngine(cmd *cobra.Command) (*engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	logCfg.Level = "warn"
	logCfg.Format = "console"
	logger, err := logging.New(&logCfg)
	if err != nil {
		return nil, err
	}

	st, cleanup, err := openStore(cmd, cfg)
	if err != nil {
		return nil, err
	}

	v, err := vault.New(cfg.Vault, logger)
	if err != nil {
		cleanup()
		return nil, err
	}

	var sink audit.Sink = audit.NopSink{}
	if cfg.Audit.LogPath != "" {
		sink = audit.NewFileSink(cfg.Audit.LogPath, logger)
	}

	extractCfg, err := extract.LoadConfig(cfg.Extractor.ConfigPath)
	if err != nil {
		cleanup()
		return nil, err
	}

	return &engine{
		cfg:   cfg,
		store: st,
		vault: v,
		controller: control.New(st, v, sink, logger,
			control.WithTaskDisposal(control.TaskDisposalPolicy(cfg.Tasks.DisposalPolicy)),
		),
		extractor:  extract.NewService(st, textsource.PlainText{}, sink, logger),
		extractCfg: extractCfg,
		cleanup:    cleanup,
	}, nil
}
