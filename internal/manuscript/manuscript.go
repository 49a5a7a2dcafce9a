// Package manuscript drafts a whole outline without the workspace: every
// leaf entry is continued, and optionally summarized, in parallel.
package manuscript

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Nhatlinh9898/novelvip/internal/generate"
	"github.com/Nhatlinh9898/novelvip/internal/outline"
	"github.com/Nhatlinh9898/novelvip/internal/session"
)

// Writer is the part of the generator a draft needs.
type Writer interface {
	Continue(ctx context.Context, node generate.NodeRef, storyContext string) (string, error)
	Summarize(ctx context.Context, content string) (string, error)
}

// Options controls a draft run.
type Options struct {
	// Concurrency bounds the requests in flight. Values below 1 mean 1.
	Concurrency int
	// Summarize replaces each written entry's summary with a generated one.
	Summarize bool
	// Progress, if set, is called after each entry is written.
	Progress func(done, total int, n outline.Node)
	Logger   *slog.Logger
}

type result struct {
	id      string
	text    string
	summary string
}

// Leaves returns the entries without children in outline order.
func Leaves(root outline.Node) []outline.Node {
	var leaves []outline.Node
	outline.Walk(root, func(n outline.Node, _ int) bool {
		if !n.HasChildren() {
			leaves = append(leaves, n)
		}
		return true
	})
	return leaves
}

// Draft writes every leaf of the session's outline and returns the updated
// session. Results are applied in outline order once all requests are done,
// so the first failure leaves s untouched.
func Draft(ctx context.Context, w Writer, s session.State, opts Options) (session.State, error) {
	if s.Tree == nil {
		return s, fmt.Errorf("%w: no outline to draft", generate.ErrConfiguration)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	leaves := Leaves(*s.Tree)
	results := make([]result, len(leaves))
	progress := make(chan outline.Node)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	done := make(chan struct{})
	go func() {
		defer close(done)
		count := 0
		for n := range progress {
			count++
			if opts.Progress != nil {
				opts.Progress(count, len(leaves), n)
			}
		}
	}()

	for i, leaf := range leaves {
		storyContext := s.ContextFor(leaf.ID)
		g.Go(func() error {
			text, err := w.Continue(gctx, generate.RefOf(leaf), storyContext)
			if err != nil {
				return fmt.Errorf("%s %q: %w", leaf.Level, leaf.Title, err)
			}
			r := result{id: leaf.ID, text: text}
			if opts.Summarize && strings.TrimSpace(leaf.Content+text) != "" {
				r.summary, err = w.Summarize(gctx, leaf.Content+"\n"+text)
				if err != nil {
					return fmt.Errorf("%s %q: %w", leaf.Level, leaf.Title, err)
				}
			}
			results[i] = r
			logger.DebugContext(gctx, "entry drafted", slog.String("node", leaf.ID), slog.Int("chars", len(text)))
			progress <- leaf
			return nil
		})
	}

	err := g.Wait()
	close(progress)
	<-done
	if err != nil {
		return s, err
	}

	for _, r := range results {
		if r.text != "" {
			s = s.ApplyNodeUpdate(r.id, outline.AppendContent(r.text))
		}
		if r.summary != "" {
			s = s.ApplyNodeUpdate(r.id, outline.SetSummary(r.summary))
		}
	}
	return s, nil
}
