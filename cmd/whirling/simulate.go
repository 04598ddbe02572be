package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ayusman/whirling/internal/config"
	"github.com/ayusman/whirling/internal/gesture"
	"github.com/ayusman/whirling/internal/session"
	"github.com/ayusman/whirling/internal/timeutil"
)

var errNotSelected = errors.New("target was not selected")

type simOptions struct {
	configPath string
	target     int
	duration   time.Duration
	noise      float64
	seed       uint64
}

// simResult summarises a simulation run.
type simResult struct {
	Selected    []int
	FirstAt     time.Duration
	Transitions int
}

func newSimulateCmd() *cobra.Command {
	var opts simOptions
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Follow one target with a synthetic hand on virtual time",
		Long: `simulate runs a session without camera or UI. A synthetic hand follows
the orbit of --target, optionally with gaussian jitter, and every state
transition is printed. The command fails if the target is not selected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			res, err := simulate(cfg, opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			for _, id := range res.Selected {
				if id == opts.target {
					return nil
				}
			}
			return fmt.Errorf("%w: target %d, selections %v", errNotSelected, opts.target, res.Selected)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (.json)")
	cmd.Flags().IntVar(&opts.target, "target", 0, "id of the target to follow")
	cmd.Flags().DurationVar(&opts.duration, "duration", 5*time.Second, "virtual time to simulate")
	cmd.Flags().Float64Var(&opts.noise, "noise", 0, "standard deviation of the hand jitter")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "random seed for the jitter")
	return cmd
}

// simulate follows opts.target for opts.duration of virtual time and
// writes the transitions to out.
func simulate(cfg *config.Config, opts simOptions, out io.Writer) (simResult, error) {
	targets, err := cfg.Targets()
	if err != nil {
		return simResult{}, err
	}
	found := false
	for _, t := range targets {
		found = found || t.ID == opts.target
	}
	if !found {
		return simResult{}, fmt.Errorf("%w: no target %d", gesture.ErrInvalidTarget, opts.target)
	}

	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	sched := timeutil.NewManualScheduler(start)
	s, err := session.New(cfg.SessionConfig(), sched, targets)
	if err != nil {
		return simResult{}, err
	}
	defer s.Dispose()

	var res simResult
	s.Subscribe(func(e session.Event) {
		elapsed := e.At.Sub(start)
		switch e.Kind {
		case session.EventState:
			res.Transitions++
			c := e.Change
			if c.Scope == gesture.ScopeGlobal {
				fmt.Fprintf(out, "%8s  global     %s -> %s\n", elapsed, c.From, c.To)
			} else {
				fmt.Fprintf(out, "%8s  target %-3d %s -> %s\n", elapsed, c.TargetID, c.From, c.To)
			}
		case session.EventSelected:
			if len(res.Selected) == 0 {
				res.FirstAt = elapsed
			}
			res.Selected = append(res.Selected, e.TargetID)
			fmt.Fprintf(out, "%8s  selected Button %d\n", elapsed, e.TargetID)
		}
	})

	jitter := func() float64 { return 0 }
	if opts.noise > 0 {
		dist := distuv.Normal{Mu: 0, Sigma: opts.noise, Src: rand.NewPCG(opts.seed, opts.seed)}
		jitter = dist.Rand
	}

	var recordErr error
	stopHand := sched.Every(cfg.SessionConfig().FrameInterval, func(now time.Time) {
		for _, tv := range s.Snapshot().Targets {
			if tv.ID != opts.target {
				continue
			}
			sample := gesture.Sample{Timestamp: now, X: 0.5 + tv.X + jitter(), Y: 0.5 + tv.Y + jitter()}
			if err := s.RecordHand(sample); err != nil && recordErr == nil {
				recordErr = err
			}
		}
	})
	defer stopHand()

	if err := s.Start(); err != nil {
		return simResult{}, err
	}
	s.SetActive(true)
	sched.Advance(opts.duration)

	if recordErr != nil {
		return res, recordErr
	}
	fmt.Fprintf(out, "%d transitions, selections %v\n", res.Transitions, res.Selected)
	return res, nil
}
