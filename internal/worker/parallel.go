package worker

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"mnsos/internal/config"
	"mnsos/internal/progress"
	"mnsos/internal/scrape"
	"mnsos/internal/session"
	"mnsos/internal/sink"
)

// Deps carries everything the fan-out needs to assemble workers. NewSession
// is called once per worker; each worker owns its browser for its whole run.
type Deps struct {
	Cfg        *config.Config
	Paths      *config.Paths
	Logger     *slog.Logger
	NewSession func() (session.Session, error)
}

func (d Deps) buildScraper(sess session.Session) (*scrape.Portal, *scrape.Scraper) {
	portal := scrape.NewPortal(sess, d.Cfg.Portal, d.Cfg.Scraper.MaxSearchResults, d.Logger)
	return portal, scrape.NewScraper(portal, d.Cfg.Scraper, d.Logger)
}

// RunRange fans the file-number span [start, end] out over n workers and
// blocks until all finish. end <= 0 with n == 1 runs the open-ended walk;
// an open-ended span cannot be partitioned, so n > 1 requires a bound.
func RunRange(ctx context.Context, deps Deps, n, start, end int) (int, error) {
	var spans []Range
	if end <= 0 {
		spans = []Range{{Start: start, End: 0}}
	} else {
		spans = PartitionRange(start, end, n)
	}

	var total atomic.Int64
	g, ctx := errgroup.WithContext(ctx)

	for i, span := range spans {
		g.Go(func() error {
			sess, err := deps.NewSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			out, err := sink.Open(deps.Paths.SinkPath(i))
			if err != nil {
				return err
			}
			defer out.Close()

			_, scraper := deps.buildScraper(sess)
			w := &Sequential{
				ID:      i,
				Scraper: scraper,
				Sink:    out,
				Store:   progress.NewStore(deps.Paths.ProgressPath(i), deps.Logger),
				Cfg:     deps.Cfg.Scraper,
				Delay:   NewDelayer(deps.Cfg.Scraper.RequestDelay, deps.Cfg.Scraper.DelayJitter),
				Logger:  deps.Logger,
			}

			found, err := w.Run(ctx, span.Start, span.End)
			total.Add(int64(found))
			return err
		})
	}

	err := g.Wait()
	return int(total.Load()), err
}

// RunAlpha fans the full aa-zz pattern set out over n workers and blocks
// until all finish.
func RunAlpha(ctx context.Context, deps Deps, n int) (int, error) {
	chunks := PartitionPatterns(GeneratePatterns(), n)

	var total atomic.Int64
	g, ctx := errgroup.WithContext(ctx)

	for i, chunk := range chunks {
		g.Go(func() error {
			sess, err := deps.NewSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			out, err := sink.Open(deps.Paths.AlphaSinkPath(i))
			if err != nil {
				return err
			}
			defer out.Close()

			portal, scraper := deps.buildScraper(sess)
			w := &Alpha{
				ID:      i,
				Portal:  portal,
				Scraper: scraper,
				Sink:    out,
				Store:   progress.NewStore(deps.Paths.AlphaProgressPath(i), deps.Logger),
				Cfg:     deps.Cfg.Scraper,
				Filter:  deps.Cfg.Filter,
				Delay:   NewDelayer(deps.Cfg.Scraper.RequestDelay, deps.Cfg.Scraper.DelayJitter),
				Logger:  deps.Logger,
			}

			found, err := w.Run(ctx, chunk)
			total.Add(int64(found))
			return err
		})
	}

	err := g.Wait()
	return int(total.Load()), err
}
