package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/caredata/internal/core"
)

// errRejected is returned by check --strict when any record was dropped.
var errRejected = errors.New("records were rejected")

func (a *app) checkCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load all record files and report dropped records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}

			if a.asJSON {
				if err := a.printJSON(checkSummary(ds)); err != nil {
					return err
				}
			} else {
				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "KIND\tLOADED\tREJECTED")
				for _, s := range core.Schemas() {
					fmt.Fprintf(tw, "%s\t%d\t%d\n", s.Kind, loadedCount(ds, s.Kind), ds.RejectedCount(s.Kind))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				for _, r := range ds.Rejected {
					fmt.Fprintf(a.out, "dropped %s line %d: %s\n", r.Kind, r.Line, r.Reason())
				}
			}

			if strict && len(ds.Rejected) > 0 {
				return fmt.Errorf("%d %w", len(ds.Rejected), errRejected)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any record is rejected")
	return cmd
}

type kindSummary struct {
	Kind     core.Kind `json:"kind"`
	Loaded   int       `json:"loaded"`
	Rejected int       `json:"rejected"`
}

type checkResult struct {
	Kinds      []kindSummary    `json:"kinds"`
	Rejections []core.Rejection `json:"rejections"`
}

func checkSummary(ds *core.Dataset) checkResult {
	res := checkResult{Rejections: ds.Rejected}
	if res.Rejections == nil {
		res.Rejections = []core.Rejection{}
	}
	for _, s := range core.Schemas() {
		res.Kinds = append(res.Kinds, kindSummary{
			Kind:     s.Kind,
			Loaded:   loadedCount(ds, s.Kind),
			Rejected: ds.RejectedCount(s.Kind),
		})
	}
	return res
}

func loadedCount(ds *core.Dataset, kind core.Kind) int {
	switch kind {
	case core.KindHospital:
		return len(ds.Hospitals)
	case core.KindProvider:
		return len(ds.Providers)
	case core.KindPatient:
		return len(ds.Patients)
	case core.KindTreatment:
		return len(ds.Treatments)
	}
	return 0
}

func (a *app) kindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the record kinds and their file layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.asJSON {
				return a.printJSON(core.Schemas())
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tFILE\tCOLUMNS")
			for _, s := range core.Schemas() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Kind, s.FileName, s.HeaderLine())
			}
			return tw.Flush()
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "list <kind>",
		Short:     "Print the validated records of one kind",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(core.KindHospital), string(core.KindProvider), string(core.KindPatient), string(core.KindTreatment)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := core.Kind(strings.ToLower(args[0]))
			schema, ok := core.Lookup(kind)
			if !ok {
				return fmt.Errorf("unknown record kind %q", args[0])
			}

			ds, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}

			if a.asJSON {
				return a.printJSON(recordsOf(ds, kind))
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			header := schema.Columns
			if kind == core.KindTreatment {
				header = append([]string{"#"}, header...)
			}
			fmt.Fprintln(tw, strings.Join(header, "\t"))
			for _, row := range recordRows(ds, kind) {
				fmt.Fprintln(tw, strings.Join(row, "\t"))
			}
			return tw.Flush()
		},
	}
}

func recordsOf(ds *core.Dataset, kind core.Kind) any {
	switch kind {
	case core.KindHospital:
		return ds.Hospitals
	case core.KindProvider:
		return ds.Providers
	case core.KindPatient:
		return ds.Patients
	default:
		return ds.Treatments
	}
}

// recordRows renders the records of kind as table cells in file column order.
func recordRows(ds *core.Dataset, kind core.Kind) [][]string {
	var rows [][]string
	switch kind {
	case core.KindHospital:
		for _, h := range ds.Hospitals {
			rows = append(rows, []string{h.Name, h.Identity})
		}
	case core.KindProvider:
		for _, p := range ds.Providers {
			doctor := "No"
			if p.Doctor {
				doctor = "Yes"
			}
			rows = append(rows, []string{p.Name, p.Number, p.Hospital, doctor})
		}
	case core.KindPatient:
		for _, p := range ds.Patients {
			rows = append(rows, []string{p.MedicalReferenceNumber, p.Name})
		}
	case core.KindTreatment:
		for i, t := range ds.Treatments {
			rows = append(rows, []string{
				strconv.Itoa(i), t.Details, t.Hospital, t.Provider, t.Patient, core.FormatDischarge(t.DischargedAt),
			})
		}
	}
	return rows
}

// treatmentFlags binds the editable treatment fields.
type treatmentFlags struct {
	details    string
	hospital   string
	provider   string
	patient    string
	discharged string
}

func (f *treatmentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.details, "details", "", "Treatment details")
	cmd.Flags().StringVar(&f.hospital, "hospital", "", "Hospital name")
	cmd.Flags().StringVar(&f.provider, "provider", "", "Provider name")
	cmd.Flags().StringVar(&f.patient, "patient", "", "Patient medical reference number")
	cmd.Flags().StringVar(&f.discharged, "discharged", "", "Discharge time as "+core.DischargeLayout)
}

func (f *treatmentFlags) treatment() (core.Treatment, error) {
	t := core.Treatment{
		Details:  strings.TrimSpace(f.details),
		Hospital: strings.TrimSpace(f.hospital),
		Provider: strings.TrimSpace(f.provider),
		Patient:  strings.TrimSpace(f.patient),
	}
	if v := strings.TrimSpace(f.discharged); v != "" {
		t.DischargedAt = core.ParseDischarge(v)
		if t.DischargedAt == nil {
			return core.Treatment{}, fmt.Errorf("--discharged %q: want %s", v, core.DischargeLayout)
		}
	}
	if err := core.CheckTreatmentFields(t); err != nil {
		return core.Treatment{}, userError(err)
	}
	return t, nil
}

func (a *app) treatmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "treatment",
		Short: "Append or edit treatments",
		Long: `Append or edit treatments and save Treatments.csv.

Writes are serialized within one process only. Stop the server before
editing the same data directory from the command line, or one of the two
saves will overwrite the other.`,
	}

	var appendFlags treatmentFlags
	appendCmd := &cobra.Command{
		Use:   "append",
		Short: "Add a treatment and save the treatments file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := appendFlags.treatment()
			if err != nil {
				return err
			}
			ds, outcome, err := a.service().AppendTreatment(cmd.Context(), t)
			if err != nil {
				return userError(err)
			}
			return a.printOutcome(ds, outcome)
		},
	}
	appendFlags.register(appendCmd)
	cmd.AddCommand(appendCmd)

	var editFlags treatmentFlags
	editCmd := &cobra.Command{
		Use:   "edit <index>",
		Short: "Overwrite the treatment at index and save the treatments file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index %q: not a number", args[0])
			}
			t, err := editFlags.treatment()
			if err != nil {
				return err
			}
			ds, outcome, err := a.service().EditTreatment(cmd.Context(), index, t)
			if err != nil {
				return userError(err)
			}
			return a.printOutcome(ds, outcome)
		},
	}
	editFlags.register(editCmd)
	cmd.AddCommand(editCmd)

	return cmd
}

func (a *app) printOutcome(ds *core.Dataset, outcome core.EditOutcome) error {
	if a.asJSON {
		return a.printJSON(map[string]any{
			"outcome":    outcome,
			"treatments": len(ds.Treatments),
			"rejected":   ds.RejectedCount(core.KindTreatment),
		})
	}

	if outcome.Applied {
		fmt.Fprintf(a.out, "%s applied at index %d\n", outcome.Action, outcome.Index)
	} else {
		fmt.Fprintf(a.out, "%s at index %d ignored: %s\n", outcome.Action, outcome.Index, outcome.Reason)
	}
	fmt.Fprintf(a.out, "treatments: %d valid, %d rejected\n", len(ds.Treatments), ds.RejectedCount(core.KindTreatment))
	return nil
}
