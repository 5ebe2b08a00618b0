package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Agrid-Dev/coldload/cmd/app"
	"github.com/Agrid-Dev/coldload/internal/coldroom"
	"github.com/Agrid-Dev/coldload/internal/report"
	"github.com/Agrid-Dev/coldload/internal/store"
)

type calcOptions struct {
	input   string
	format  string
	out     string
	project string
}

func newCalcCmd(loadConfig func() (app.Config, error)) *cobra.Command {
	var opts calcOptions

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate a cooling load from an input file and write a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if opts.project == "" {
				opts.project = cfg.ProjectID
			}
			ref, err := cfg.ReferenceData()
			if err != nil {
				return fmt.Errorf("reference data: %w", err)
			}
			return runCalc(cmd.OutOrStdout(), ref, opts, time.Now())
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "input records file (.yaml/.yml/.json); defaults apply when empty")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "report format: "+strings.Join(report.Formats, "|")+" (default from --out extension, else text)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.project, "project", "", "project id printed on the report")
	return cmd
}

func runCalc(stdout io.Writer, ref coldroom.Reference, opts calcOptions, now time.Time) error {
	var in coldroom.Inputs
	if opts.input != "" {
		var err error
		if in, err = store.ReadInputsFile(opts.input); err != nil {
			return err
		}
	}

	engine, err := coldroom.New(ref)
	if err != nil {
		return err
	}
	res, err := engine.Calculate(in)
	if err != nil {
		return err
	}

	format := opts.format
	if format == "" {
		format = "text"
		if ext := filepath.Ext(opts.out); ext != "" {
			format = ext
		}
	}
	render, err := report.RendererFor(format)
	if err != nil {
		return err
	}

	rep := report.New(opts.project, in, res, now)

	if opts.out == "" {
		err = renderTo(stdout, render, rep, format)
	} else {
		err = writeReportFile(opts.out, render, rep, format)
	}
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"finalLoad": res.FinalLoad,
		"totalTR":   res.TotalTR,
		"report":    rep.ID,
	}).Debug("calculation done")
	return nil
}

func renderTo(w io.Writer, render report.Renderer, rep report.Report, format string) error {
	if err := render(w, rep); err != nil {
		return fmt.Errorf("render %s report: %w", format, err)
	}
	return nil
}

// writeReportFile returns the Close error when rendering succeeded.
func writeReportFile(path string, render report.Renderer, rep report.Report, format string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return renderTo(f, render, rep, format)
}
