package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/diag"
	"github.com/drips-network/gardener/pkg/errors"
	"github.com/drips-network/gardener/pkg/scan"
)

// loadManifests parses every scanned manifest into p. A manifest that fails
// to parse is reported and skipped; whatever its handler recovered is kept.
func (x *run) loadManifests(ctx context.Context, p *deps.Project, manifests []scan.File) error {
	for _, f := range manifests {
		if err := cancelled(ctx); err != nil {
			return err
		}
		h, ok := x.set.ForManifest(f.Path)
		if !ok {
			continue
		}
		data, err := p.ReadFile(f.Path)
		if err != nil {
			x.diags.Addf(diag.SkippedFile, f.Path, "%s", errors.UserMessage(err))
			continue
		}
		m, err := h.ParseManifest(f.Path, data)
		if err != nil {
			x.logger.Debug("invalid manifest", "path", f.Path, "error", err)
			x.diags.Addf(diag.InvalidManifest, f.Path, "%s", errors.UserMessage(err))
		}
		p.AddManifest(m)
	}
	return nil
}

// extract parses every source file on a bounded worker pool. The returned
// slice is in the order of files, so aggregation does not depend on which
// worker finished first. Files that could not be parsed have nil facts.
func (x *run) extract(ctx context.Context, p *deps.Project, files []scan.File) ([]*deps.Facts, error) {
	out := make([]*deps.Facts, len(files))
	g := new(errgroup.Group)
	g.SetLimit(x.cfg.Workers)
	for i, f := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out[i] = x.extractFile(ctx, p, f)
			return nil
		})
	}
	_ = g.Wait()
	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

type extraction struct {
	facts *deps.Facts
	err   error
}

// extractFile parses one file under the per-file timeout. The handler runs
// on its own goroutine so that a handler ignoring its context cannot hold
// the worker slot past the deadline.
func (x *run) extractFile(ctx context.Context, p *deps.Project, f scan.File) *deps.Facts {
	h, _, ok := x.set.ForSource(f.Path)
	if !ok {
		return nil
	}
	src, err := p.ReadFile(f.Path)
	if err != nil {
		x.diags.Addf(diag.SkippedFile, f.Path, "%s", errors.UserMessage(err))
		return nil
	}

	timeout := x.cfg.PerFileTimeout()
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan extraction, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- extraction{err: fmt.Errorf("handler panic: %v", v)}
			}
		}()
		facts, err := h.Extract(fctx, p, f.Path, src)
		done <- extraction{facts: facts, err: err}
	}()

	var res extraction
	select {
	case res = <-done:
	case <-fctx.Done():
	}
	if ctx.Err() != nil {
		return nil
	}
	if fctx.Err() != nil && (res.err != nil || res.facts == nil) {
		x.logger.Debug("parse timed out", "path", f.Path, "timeout", timeout)
		x.diags.Addf(diag.Timeout, f.Path, "parsing took longer than %s", timeout)
		return nil
	}
	if res.err != nil {
		x.logger.Debug("parse failed", "path", f.Path, "error", res.err)
		x.diags.Addf(diag.ParseError, f.Path, "%s", errors.UserMessage(res.err))
		if res.facts == nil {
			return nil
		}
	}
	if res.facts != nil && res.facts.Dropped > 0 {
		x.diags.Addf(diag.ImportLimit, f.Path, "%d imports beyond the limit of %d were dropped", res.facts.Dropped, x.cfg.MaxImportsPerFile)
	}
	return res.facts
}
