package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andreluis2005/cognira/internal/app"
	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/config"
	"github.com/andreluis2005/cognira/internal/domain"
	"github.com/andreluis2005/cognira/internal/engine"
	"github.com/spf13/cobra"
)

// NewPlayCmd runs an interactive practice session against the local profile.
func NewPlayCmd(configPath *string) *cobra.Command {
	var mode, target, profile string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Practice in the terminal; progress is saved after every answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if profile == "" {
				profile = cfg.Profile.Key
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			logger := newLogger(cfg, os.Stderr, false)
			service, repo, cleanup, err := openProfile(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			p := &player{
				service: service,
				repo:    repo,
				key:     profile,
				in:      bufio.NewScanner(cmd.InOrStdin()),
				out:     cmd.OutOrStdout(),
				now:     time.Now,
			}
			return p.run(ctx, domain.Mode(mode), target)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(domain.ModeSmart), "smart, topic or domain")
	cmd.Flags().StringVar(&target, "target", "", "topic id or macro-domain for TOPIC/DOMAIN mode")
	cmd.Flags().StringVar(&profile, "profile", "", "profile key (defaults to profile.key)")
	return cmd
}

type player struct {
	service *app.PracticeService
	repo    *app.ProgressRepository
	key     string
	in      *bufio.Scanner
	out     io.Writer
	now     func() time.Time
}

func (p *player) run(ctx context.Context, mode domain.Mode, target string) error {
	progress, err := p.repo.Load(ctx, p.key)
	if err != nil {
		return err
	}
	cat, err := p.service.Catalog(ctx)
	if err != nil {
		return err
	}

	session := p.service.NewPracticeSession(mode, target)
	start, err := session.Start(ctx, progress)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Session %s: %d questions (%s)\n", start.SessionID, start.TotalQuestions, start.Mode)
	fmt.Fprintf(p.out, "Readiness %d%% [%s]\n", progress.ReadinessScore, engine.BandFor(progress.ReadinessScore))

	for {
		q, ok := session.Current()
		if !ok {
			break
		}
		p.printQuestion(cat, q, len(session.History())+1)

		optionID, quit := p.readChoice(q)
		if quit {
			fmt.Fprintln(p.out, "Stopped. Progress saved.")
			return nil
		}
		res, err := session.Answer(ctx, q.ID, optionID)
		if err != nil {
			return err
		}
		if err := p.repo.Save(ctx, p.key, res.UpdatedProgress); err != nil {
			return err
		}
		if res.IsCorrect {
			fmt.Fprintln(p.out, "Correct.")
		} else {
			fmt.Fprintf(p.out, "Incorrect. Answer: %s\n", res.CorrectOptionID)
		}
		if res.Explanation != "" {
			fmt.Fprintln(p.out, res.Explanation)
		}
	}

	p.printSummary(cat, session)
	return nil
}

func (p *player) printQuestion(cat *catalog.Catalog, q domain.ClientQuestion, index int) {
	label := q.TopicID
	if t, ok := cat.Topic(q.TopicID); ok {
		label = t.Label
	}
	fmt.Fprintln(p.out)
	if q.IsReinforcement {
		fmt.Fprintf(p.out, "#%d [%s] (review)\n", index, label)
	} else {
		fmt.Fprintf(p.out, "#%d [%s]\n", index, label)
	}
	fmt.Fprintln(p.out, q.Text)
	for i, o := range q.Options {
		fmt.Fprintf(p.out, "  %d) %s. %s\n", i+1, o.ID, o.Text)
	}
}

// readChoice accepts an option id or its 1-based position. EOF or "q" quits.
func (p *player) readChoice(q domain.ClientQuestion) (string, bool) {
	for {
		fmt.Fprint(p.out, "> ")
		if !p.in.Scan() {
			return "", true
		}
		raw := strings.TrimSpace(p.in.Text())
		if raw == "q" || raw == "quit" {
			return "", true
		}
		for _, o := range q.Options {
			if strings.EqualFold(raw, o.ID) {
				return o.ID, false
			}
		}
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= len(q.Options) {
			return q.Options[n-1].ID, false
		}
		fmt.Fprintln(p.out, "Pick one of the listed options.")
	}
}

func (p *player) printSummary(cat *catalog.Catalog, session *app.PracticeSession) {
	progress := session.Progress()
	history := session.History()
	correct := 0
	for _, h := range history {
		if h.IsCorrect {
			correct++
		}
	}

	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "Session complete: %d/%d correct\n", correct, len(history))
	fmt.Fprintf(p.out, "Readiness %d%% [%s], streak %d\n",
		progress.ReadinessScore, engine.BandFor(progress.ReadinessScore), progress.Streak)

	if weakest := engine.WeakestTopics(cat, progress, 3); len(weakest) > 0 {
		fmt.Fprintln(p.out, "Focus next on:")
		for _, w := range weakest {
			fmt.Fprintf(p.out, "  %s %d%% (%s)\n", w.Topic.Label, w.Progress.Accuracy, w.Progress.Status)
		}
	}
	if due := engine.DueForReview(progress, p.now()); len(due) > 0 {
		fmt.Fprintf(p.out, "%d questions due for review today\n", len(due))
	}
}
