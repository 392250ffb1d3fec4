// Package cli implements the caredata command line tool: checking the record
// files, listing validated records and editing treatments without the HTTP
// server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/caredata/internal/config"
	"github.com/JonMunkholm/caredata/internal/core"
	"github.com/JonMunkholm/caredata/internal/logging"
)

// stderr receives log output.
var stderr io.Writer = os.Stderr

// app carries what every subcommand needs once flags are parsed.
type app struct {
	out     io.Writer
	dataDir string
	asJSON  bool
	cfg     *config.Config
}

// NewRootCommand builds the command tree writing results to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "caredata",
		Short:         "Inspect and edit the hospital, provider, patient and treatment files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Directory holding the record files (overrides DATA_DIR)")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Print results as JSON")

	root.AddCommand(a.checkCmd())
	root.AddCommand(a.listCmd())
	root.AddCommand(a.kindsCmd())
	root.AddCommand(a.treatmentCmd())
	root.AddCommand(a.mirrorCmd())

	return root
}

// configure loads the environment configuration and applies flag overrides.
func (a *app) configure() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.Data.Dir = a.dataDir
	}
	a.cfg = cfg

	// Diagnostics go to stderr so stdout stays parseable.
	slog.SetDefault(logging.New(stderr, cfg.Logging.Level, cfg.Logging.Format))
	return nil
}

func (a *app) paths() core.Paths {
	return core.Paths{
		Hospitals:  a.cfg.Data.HospitalsPath(),
		Providers:  a.cfg.Data.ProvidersPath(),
		Patients:   a.cfg.Data.PatientsPath(),
		Treatments: a.cfg.Data.TreatmentsPath(),
	}
}

func (a *app) service(opts ...core.Option) *core.Service {
	opts = append([]core.Option{core.WithWriteWait(a.cfg.Writer.MaxWait)}, opts...)
	return core.NewService(a.paths(), opts...)
}

// snapshot loads the dataset, wrapping failures with the support code.
func (a *app) snapshot(ctx context.Context) (*core.Dataset, error) {
	ds, err := a.service().Snapshot(ctx)
	if err != nil {
		return nil, userError(err)
	}
	return ds, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// userError keeps the technical error and adds the mapped message.
func userError(err error) error {
	if !core.IsUserFacing(err) {
		return err
	}
	return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
}
