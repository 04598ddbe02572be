package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/whirling/internal/trace"
)

type plotOptions struct {
	configPath string
	tracePath  string
	sessionID  string
	out        string
}

func newPlotCmd() *cobra.Command {
	var opts plotOptions
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot the recorded confidences of a traced session",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := plotTrace(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s for session %s\n", opts.out, id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "configuration file for the thresholds")
	cmd.Flags().StringVar(&opts.tracePath, "trace", "", "trace database")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "session id (default: most recent)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "confidence.png", "output image (.png, .svg or .pdf)")
	cmd.MarkFlagRequired("trace")
	return cmd
}

// plotTrace writes the plot and returns the plotted session id.
func plotTrace(opts plotOptions) (string, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return "", err
	}

	st, err := trace.Open(opts.tracePath)
	if err != nil {
		return "", err
	}
	defer st.Close()

	id := opts.sessionID
	if id == "" {
		sessions, err := st.Sessions().List()
		if err != nil {
			return "", err
		}
		if len(sessions) == 0 {
			return "", errors.New("trace has no sessions")
		}
		id = sessions[0].ID
	}
	if _, err := st.Sessions().Get(id); err != nil {
		return "", fmt.Errorf("session %s: %w", id, err)
	}

	rows, err := st.Evaluations().List(id)
	if err != nil {
		return "", err
	}
	g := cfg.GestureConfig()
	if err := trace.WriteConfidencePlot(opts.out, rows, g.LowThreshold, g.HighThreshold); err != nil {
		return "", err
	}
	return id, nil
}
