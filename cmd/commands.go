package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/xeptore/djmix/compat"
	"github.com/xeptore/djmix/config"
	"github.com/xeptore/djmix/queue"
	"github.com/xeptore/djmix/session"
	"github.com/xeptore/djmix/setplan"
	"github.com/xeptore/djmix/track"
	"github.com/xeptore/djmix/transition"
)

func bpmCommand() *cli.Command {
	//nolint:exhaustruct
	return &cli.Command{
		Name:      "bpm",
		Usage:     "Score a tempo change",
		ArgsUsage: "<current-bpm> <candidate-bpm>",
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Genre of the candidate track"},
		},
		Action: action(func(_ context.Context, cliCtx *cli.Context, _ *config.Config, _ zerolog.Logger) error {
			if cliCtx.NArg() != 2 {
				return errors.New("expected exactly 2 arguments: current and candidate bpm")
			}
			current, err := strconv.ParseFloat(cliCtx.Args().Get(0), 64)
			if nil != err {
				return fmt.Errorf("invalid current bpm: %v", err)
			}
			candidate, err := strconv.ParseFloat(cliCtx.Args().Get(1), 64)
			if nil != err {
				return fmt.Errorf("invalid candidate bpm: %v", err)
			}
			return printJSON(compat.BPM(current, candidate, cliCtx.String("genre")))
		}),
	}
}

type keyOutput struct {
	From          string                   `json:"from"`
	To            string                   `json:"to,omitempty"`
	FromCamelot   string                   `json:"from_camelot"`
	ToCamelot     string                   `json:"to_camelot,omitempty"`
	Compatibility *compat.KeyCompatibility `json:"compatibility,omitempty"`
	Compatible    []string                 `json:"compatible_keys,omitempty"`
}

func keyCommand() *cli.Command {
	//nolint:exhaustruct
	return &cli.Command{
		Name:      "key",
		Usage:     "Score a key change, or list the keys that mix with one key",
		ArgsUsage: "<from-key> [to-key]",
		Action: action(func(_ context.Context, cliCtx *cli.Context, _ *config.Config, _ zerolog.Logger) error {
			if n := cliCtx.NArg(); n < 1 || n > 2 {
				return errors.New("expected 1 or 2 key arguments")
			}
			from, err := compat.ParseKey(cliCtx.Args().Get(0))
			if nil != err {
				return err
			}

			out := keyOutput{From: from.String(), FromCamelot: from.Camelot()} //nolint:exhaustruct
			if cliCtx.NArg() == 1 {
				out.Compatible = lo.Map(compat.CompatibleKeys(from), func(k compat.Key, _ int) string {
					return k.String() + " (" + k.Camelot() + ")"
				})
				return printJSON(out)
			}

			to, err := compat.ParseKey(cliCtx.Args().Get(1))
			if nil != err {
				return err
			}
			kc := compat.KeyCompatOf(from, to)
			out.To, out.ToCamelot, out.Compatibility = to.String(), to.Camelot(), &kc
			return printJSON(out)
		}),
	}
}

type transitionOutput struct {
	Transition     *transition.Transition    `json:"transition"`
	Recommendation transition.Recommendation `json:"recommendation"`
}

func transitionCommand() *cli.Command {
	//nolint:exhaustruct
	return &cli.Command{
		Name:      "transition",
		Usage:     "Plan the transition between two library tracks",
		ArgsUsage: "<from-track-id> <to-track-id>",
		Action: action(func(ctx context.Context, cliCtx *cli.Context, cfg *config.Config, logger zerolog.Logger) error {
			if cliCtx.NArg() != 2 {
				return errors.New("expected exactly 2 track ids")
			}
			e, err := newEngine(cfg, logger)
			if nil != err {
				return err
			}
			defer e.close()

			pair, err := e.tracks(cliCtx.Args().Slice())
			if nil != err {
				return err
			}
			tr, err := e.transitions.Plan(ctx, pair[0], pair[1])
			if nil != err {
				return err
			}
			return printJSON(transitionOutput{
				Transition:     tr,
				Recommendation: transition.Recommend(tr.BPM.Score, tr.Key.Score, tr.Energy.Alignment),
			})
		}),
	}
}

func planCommand() *cli.Command {
	//nolint:exhaustruct
	return &cli.Command{
		Name:  "plan",
		Usage: "Sequence library tracks into a DJ set",
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringSliceFlag{Name: "tracks", Aliases: []string{"t"}, Usage: "Candidate track ids. Defaults to the whole library"},
			//nolint:exhaustruct
			&cli.IntFlag{Name: "max-songs", Aliases: []string{"n"}, Usage: "Maximum set length"},
			//nolint:exhaustruct
			&cli.StringFlag{Name: "curve", Usage: "Energy curve: rising, falling, peak, valley or wave"},
			//nolint:exhaustruct
			&cli.StringFlag{Name: "key-mode", Usage: "Key progression: circle_of_fifths, random, harmonic or energy_based"},
			//nolint:exhaustruct
			&cli.StringSliceFlag{Name: "genre", Usage: "Keep only tracks of these genres"},
			//nolint:exhaustruct
			&cli.Float64Flag{Name: "bpm-min", Usage: "Lowest allowed bpm"},
			//nolint:exhaustruct
			&cli.Float64Flag{Name: "bpm-max", Usage: "Highest allowed bpm"},
			//nolint:exhaustruct
			&cli.Float64Flag{Name: "start-energy", Usage: "Energy of the first track"},
			//nolint:exhaustruct
			&cli.Float64Flag{Name: "end-energy", Usage: "Energy of the last track"},
		},
		Action: action(func(ctx context.Context, cliCtx *cli.Context, cfg *config.Config, logger zerolog.Logger) error {
			opts, err := setOptions(cliCtx, cfg.Set)
			if nil != err {
				return err
			}

			e, err := newEngine(cfg, logger)
			if nil != err {
				return err
			}
			defer e.close()

			candidates, err := e.tracks(cliCtx.StringSlice("tracks"))
			if nil != err {
				return err
			}
			plan, err := e.sets.Plan(ctx, candidates, opts)
			if nil != err {
				return err
			}
			return printJSON(plan)
		}),
	}
}

// setOptions overlays command flags on the configured set options.
func setOptions(cliCtx *cli.Context, opts setplan.Options) (setplan.Options, error) {
	if cliCtx.IsSet("max-songs") {
		opts.MaxSongs = cliCtx.Int("max-songs")
	}
	if cliCtx.IsSet("curve") {
		c, err := setplan.ParseEnergyCurve(cliCtx.String("curve"))
		if nil != err {
			return opts, err
		}
		opts.Curve = c
	}
	if cliCtx.IsSet("key-mode") {
		mode := setplan.KeyMode(cliCtx.String("key-mode"))
		if !lo.Contains(setplan.KeyModes, mode) {
			return opts, fmt.Errorf("unknown key mode %q", mode)
		}
		opts.KeyMode = mode
	}
	if cliCtx.IsSet("genre") {
		opts.Genres = cliCtx.StringSlice("genre")
	}
	if cliCtx.IsSet("bpm-min") || cliCtx.IsSet("bpm-max") {
		opts.BPMRange = &setplan.BPMRange{Min: cliCtx.Float64("bpm-min"), Max: cliCtx.Float64("bpm-max")}
	}
	if cliCtx.IsSet("start-energy") {
		opts.StartEnergy = lo.ToPtr(cliCtx.Float64("start-energy"))
	}
	if cliCtx.IsSet("end-energy") {
		opts.EndEnergy = lo.ToPtr(cliCtx.Float64("end-energy"))
	}
	return opts, opts.Validate()
}

type playedTransition struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	Type          transition.Type `json:"type"`
	Compatibility float64         `json:"compatibility"`
	Duration      float64         `json:"duration"`
}

type sessionOutput struct {
	ID          string             `json:"id"`
	Played      []string           `json:"played"`
	Transitions []playedTransition `json:"transitions"`
	Stats       session.Stats      `json:"stats"`
	QueueStats  queue.Stats        `json:"queue_stats"`
	Events      []queue.Event      `json:"events"`
}

func sessionCommand() *cli.Command {
	//nolint:exhaustruct
	return &cli.Command{
		Name:  "session",
		Usage: "Play queued library tracks through a DJ session, mixing each into the next",
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringSliceFlag{Name: "tracks", Aliases: []string{"t"}, Usage: "Initial queue. Defaults to the whole library"},
			//nolint:exhaustruct
			&cli.BoolFlag{Name: "refill", Usage: "Auto-refill the queue from the rest of the library"},
			//nolint:exhaustruct
			&cli.IntFlag{Name: "max-plays", Usage: "Stop after this many tracks. Defaults to the library size"},
		},
		Action: action(func(ctx context.Context, cliCtx *cli.Context, cfg *config.Config, logger zerolog.Logger) error {
			if cliCtx.Bool("refill") {
				cfg.Queue.AutoMixEnabled, cfg.Queue.AutoRefill = true, true
			}

			e, err := newEngine(cfg, logger)
			if nil != err {
				return err
			}
			defer e.close()

			initial, err := e.tracks(cliCtx.StringSlice("tracks"))
			if nil != err {
				return err
			}
			maxPlays := cliCtx.Int("max-plays")
			if maxPlays <= 0 {
				maxPlays = len(e.library.Tracks())
			}
			return runSession(ctx, e, initial, maxPlays)
		}),
	}
}

func runSession(ctx context.Context, e *engine, initial []track.Track, maxPlays int) error {
	sessions := e.sessions()
	s, err := sessions.Start(ctx, initial)
	if nil != err {
		return err
	}
	q, err := s.Queue()
	if nil != err {
		return err
	}

	out := sessionOutput{ID: s.ID()} //nolint:exhaustruct
	played := make([]track.Track, 0, maxPlays)
	item, err := s.Play()
	if nil != err {
		return err
	}
	played = append(played, item.Track)

	for len(played) < maxPlays {
		if err := ctx.Err(); nil != err {
			return err
		}
		if _, err := s.Refill(ctx, e.pool(played)); nil != err {
			e.logger.Debug().Err(err).Msg("Queue was not refilled")
		}
		if q.Len() == 0 {
			break
		}

		if _, err := s.BeginTransition(); nil != err {
			return err
		}
		if item, err = s.CompleteTransition(); nil != err {
			return err
		}
		played = append(played, item.Track)
		tr := item.Transition
		out.Transitions = append(out.Transitions, playedTransition{
			From:          tr.From.ID,
			To:            tr.To.ID,
			Type:          tr.Type,
			Compatibility: tr.Compatibility,
			Duration:      tr.Duration,
		})
	}

	out.Played = lo.Map(played, func(t track.Track, _ int) string { return t.ID })
	out.Stats = s.Stats()
	out.QueueStats = q.GetQueueStats()
	out.Events = q.GetEventHistory()
	if _, err := sessions.End(); nil != err {
		return err
	}
	return printJSON(out)
}

func recommendCommand() *cli.Command {
	//nolint:exhaustruct
	return &cli.Command{
		Name:      "recommend",
		Usage:     "Rank library tracks to follow a track",
		ArgsUsage: "<track-id>",
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.IntFlag{Name: "limit", Value: config.RecommendationLimit, Usage: "Maximum number of recommendations"},
			//nolint:exhaustruct
			&cli.StringFlag{Name: "strategy", Usage: "Ranking strategy: balanced, harmonic, tempo or energy"},
		},
		Action: action(func(ctx context.Context, cliCtx *cli.Context, cfg *config.Config, logger zerolog.Logger) error {
			if cliCtx.NArg() != 1 {
				return errors.New("expected exactly 1 track id")
			}
			if cliCtx.IsSet("strategy") {
				cfg.Queue.AutoMix.Strategy = queue.Strategy(cliCtx.String("strategy"))
			}

			e, err := newEngine(cfg, logger)
			if nil != err {
				return err
			}
			defer e.close()

			anchor, err := e.tracks(cliCtx.Args().Slice())
			if nil != err {
				return err
			}
			sessions := e.sessions()
			s, err := sessions.Start(ctx, anchor)
			if nil != err {
				return err
			}
			defer sessions.End() //nolint:errcheck

			recs, err := s.Recommendations(ctx, e.pool(anchor), cliCtx.Int("limit"))
			if nil != err {
				return err
			}
			return printJSON(recs)
		}),
	}
}
