package mapping

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/tsawler/pptxgen/cards"
	"github.com/tsawler/pptxgen/config"
	"github.com/tsawler/pptxgen/jobspec"
	"github.com/tsawler/pptxgen/layouts"
	"github.com/tsawler/pptxgen/model"
	"github.com/tsawler/pptxgen/patch"
	"github.com/tsawler/pptxgen/recommend"
)

// Input is everything a mapping run consumes. Only Job is required.
type Input struct {
	Job *jobspec.Spec
	// Cards are the approved content cards. Slides without a card are
	// scored from the job specification alone.
	Cards *cards.Set
	// Draft is used as given. Otherwise DraftPath is loaded; when it is
	// empty or malformed a trivial draft is built unless RequireDraft is
	// set.
	Draft        *cards.Draft
	DraftPath    string
	RequireDraft bool
	// Layouts is the catalog. Without it no scoring happens and layout
	// names pass through unchanged.
	Layouts  []layouts.Record
	Analysis *cards.Analysis
	// TemplateVersion defaults to the catalog's template id.
	TemplateVersion string
}

// Options configures an Engine.
type Options struct {
	Recommender *recommend.Recommender
	Logger      *zap.Logger
	// Now and NewRunID are replaced in tests.
	Now      func() time.Time
	NewRunID func() string
}

// Engine maps job specifications onto layouts.
type Engine struct {
	rec      *recommend.Recommender
	log      *zap.Logger
	now      func() time.Time
	newRunID func() string
}

// New returns an Engine.
func New(opts Options) *Engine {
	e := &Engine{rec: opts.Recommender, log: opts.Logger, now: opts.Now, newRunID: opts.NewRunID}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.rec == nil {
		opts := recommend.OptionsFromRules(config.DefaultRules().Recommender)
		opts.Logger = e.log
		e.rec = recommend.New(opts)
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newRunID == nil {
		e.newRunID = func() string { return ulid.Make().String() }
	}
	return e
}

// Output is the result of a mapping run.
type Output struct {
	Ready    *RenderingReady
	Log      *Log
	Fallback *FallbackReport
	// original holds the elements before fallbacks, per slide.
	original []*model.Elements
	names    map[string]string
}

// Map builds the rendering plan. Slides keep the order of the job
// specification.
func (e *Engine) Map(ctx context.Context, in Input) (*Output, error) {
	start := e.now()
	if in.Job == nil {
		return nil, &Error{Err: errors.New("job specification is required")}
	}
	if ids := in.Cards.NotApproved(); len(ids) > 0 {
		return nil, &Error{SlideID: ids[0], Err: ErrCardNotApproved}
	}
	draft, err := e.draft(in)
	if err != nil {
		return nil, err
	}

	catalog := newCatalog(in.Layouts)
	runID := e.newRunID()
	deckID := DeckID(in.Job.Meta.Title)
	out := &Output{
		Ready: &RenderingReady{Slides: make([]ReadySlide, 0, len(in.Job.Slides))},
		Log: &Log{Slides: make([]LogSlide, 0, len(in.Job.Slides)), Meta: LogMeta{
			AnalyzerIssueCountsByType:     map[string]int{},
			AnalyzerIssueCountsBySeverity: map[string]int{},
			DeckID:                        deckID,
			RunID:                         runID,
		}},
		names: catalog.names(),
	}

	for i := range in.Job.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slide := &in.Job.Slides[i]
		ready, logSlide, orig, err := e.mapSlide(ctx, in, catalog, draft, slide, i+1)
		if err != nil {
			return nil, err
		}
		out.Ready.Slides = append(out.Ready.Slides, ready)
		out.Log.Slides = append(out.Log.Slides, logSlide)
		out.original = append(out.original, orig)

		m := &out.Log.Meta
		if logSlide.Fallback.Applied {
			m.FallbackCount++
		}
		m.AIPatchCount += len(logSlide.AIPatch)
		if logSlide.Analyzer != nil {
			m.AnalyzerIssueCount += logSlide.Analyzer.IssueCount
			for _, is := range logSlide.Analyzer.Issues {
				m.AnalyzerIssueCountsByType[is.Type]++
				m.AnalyzerIssueCountsBySeverity[is.Severity]++
			}
		}
	}

	generatedAt := e.now().UTC().Format(time.RFC3339)
	version := in.TemplateVersion
	if version == "" && len(in.Layouts) > 0 {
		version = in.Layouts[0].TemplateID
	}
	out.Ready.Meta = ReadyMeta{
		TemplateVersion: version,
		ContentHash:     contentHash(in),
		GeneratedAt:     generatedAt,
		JobMeta:         in.Job.Meta,
		JobAuth:         in.Job.Auth,
		TemplatePath:    in.Job.Meta.TemplatePath,
		DeckID:          deckID,
		RunID:           runID,
	}
	if out.Log.Meta.FallbackCount > 0 {
		out.Fallback = fallbackReport(out, generatedAt, runID)
	}
	out.Log.Meta.MappingTimeMS = e.now().Sub(start).Milliseconds()

	e.log.Info("mapping completed",
		zap.String("run_id", runID),
		zap.Int("slides", len(out.Ready.Slides)),
		zap.Int("fallbacks", out.Log.Meta.FallbackCount),
		zap.Int64("mapping_time_ms", out.Log.Meta.MappingTimeMS))
	return out, nil
}

// draft resolves the draft of a run.
func (e *Engine) draft(in Input) (*cards.Draft, error) {
	if in.Draft != nil {
		return in.Draft, nil
	}
	if in.DraftPath != "" {
		d, err := cards.LoadDraft(in.DraftPath)
		if err == nil {
			return d, nil
		}
		if in.RequireDraft {
			return nil, &Error{Err: err}
		}
		e.log.Warn("draft unusable, using one section per slide", zap.String("path", in.DraftPath), zap.Error(err))
	} else if in.RequireDraft {
		return nil, &Error{Err: fmt.Errorf("%w: no draft given", cards.ErrMalformedDraft)}
	}
	ids := make([]string, len(in.Job.Slides))
	names := make([]string, len(in.Job.Slides))
	for i, s := range in.Job.Slides {
		ids[i], names[i] = s.ID, s.Layout
	}
	return cards.TrivialDraft(ids, names), nil
}

func (e *Engine) mapSlide(ctx context.Context, in Input, cat *catalog, draft *cards.Draft, slide *jobspec.Slide, pageNo int) (ReadySlide, LogSlide, *model.Elements, error) {
	logSlide := LogSlide{
		RefID:    slide.ID,
		AIPatch:  []patch.Patch{},
		Warnings: []string{},
		Fallback: FallbackState{History: []string{}},
	}
	ds, section, _ := draft.Lookup(slide.ID)

	var summary *cards.AnalyzerSummary
	if sa, ok := in.Analysis.Slide(slide.ID); ok {
		summary = sa.Summary()
		logSlide.Analyzer = &AnalyzerLog{IssueCount: len(sa.Issues), Issues: append([]cards.AnalyzerIssue{}, sa.Issues...)}
	}

	var candidates []cards.Candidate
	if ds != nil {
		candidates = append(candidates, ds.LayoutCandidates...)
	}
	if !cat.empty() {
		card, ok := in.Cards.BySlide(slide.ID)
		if !ok {
			card = cardFromSlide(slide)
		}
		res, err := e.rec.Recommend(ctx, card, slide.Layout, cat.profiles, summary)
		if err != nil {
			return ReadySlide{}, LogSlide{}, nil, err
		}
		candidates = mergeCandidates(candidates, res.CardCandidates())
		logSlide.UnknownTags = res.UnknownTags
		logSlide.AIProvider = res.AIProvider
	} else {
		candidates = mergeCandidates(candidates, nil)
	}
	logSlide.Candidates = candidates

	layoutID := slide.Layout
	switch {
	case ds != nil && ds.LayoutHint != "":
		layoutID = ds.LayoutHint
	case len(candidates) > 0 && !cat.empty():
		layoutID = candidates[0].LayoutID
	}
	record := cat.resolve(layoutID)
	if record != nil {
		layoutID = record.LayoutID
	} else if !cat.empty() {
		logSlide.Warnings = append(logSlide.Warnings, fmt.Sprintf("layout %q not found in catalog", layoutID))
	}
	logSlide.SelectedLayout = layoutID

	original := BuildElements(slide)
	elements := original.Clone()
	if record != nil {
		if p, ok, err := shrinkText(slide.ID, record, elements); err != nil {
			return ReadySlide{}, LogSlide{}, nil, &Error{SlideID: slide.ID, Err: err}
		} else if ok {
			if err := patch.Apply(elements, p); err != nil {
				return ReadySlide{}, LogSlide{}, nil, &Error{SlideID: slide.ID, Err: err}
			}
			body, _ := original.Bullets(bodyKey)
			lines, limit := len(body.Items), record.TextHint.MaxLines
			logSlide.AIPatch = append(logSlide.AIPatch, p)
			logSlide.Fallback = FallbackState{
				Applied: true,
				History: []string{FallbackShrinkText},
				Reason:  fmt.Sprintf("body_lines=%d max_lines=%d", lines, limit),
			}
			logSlide.Warnings = append(logSlide.Warnings,
				fmt.Sprintf("body truncated from %d to %d lines to fit layout %s", lines, limit, record.LayoutID))
		}
	}

	ready := ReadySlide{
		LayoutID: layoutID,
		Elements: elements,
		Meta: SlideMeta{
			Section:  section,
			PageNo:   pageNo,
			Sources:  []string{slide.ID},
			Fallback: logSlide.Fallback.Last(),
		},
	}
	return ready, logSlide, original, nil
}

// shrinkText truncates the body to the layout's line capacity.
func shrinkText(slideID string, record *layouts.Record, elements *model.Elements) (patch.Patch, bool, error) {
	limit := record.TextHint.MaxLines
	body, ok := elements.Bullets(bodyKey)
	if !ok || limit <= 0 || len(body.Items) <= limit {
		return patch.Patch{}, false, nil
	}
	op, err := patch.Replace(bodyKey, body.Truncate(limit))
	if err != nil {
		return patch.Patch{}, false, err
	}
	return patch.Patch{
		PatchID:     slideID + "-shrink-text",
		Description: fmt.Sprintf("Truncate body to %d lines to fit layout %s", limit, record.LayoutID),
		Operations:  []patch.Op{op},
	}, true, nil
}

// mergeCandidates keeps the best score per layout, best first. Ties keep
// the order of first appearance, draft candidates before fresh ones.
func mergeCandidates(draft, fresh []cards.Candidate) []cards.Candidate {
	out := []cards.Candidate{}
	index := make(map[string]int)
	for _, c := range append(append([]cards.Candidate{}, draft...), fresh...) {
		if c.LayoutID == "" {
			continue
		}
		if i, ok := index[c.LayoutID]; ok {
			if c.Score > out[i].Score {
				out[i].Score = c.Score
			}
			continue
		}
		index[c.LayoutID] = len(out)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// cardFromSlide derives a card for a slide that has none.
func cardFromSlide(s *jobspec.Slide) *cards.Card {
	c := &cards.Card{SlideID: s.ID, Status: cards.StatusApproved}
	c.Elements.Title = s.Title
	for _, item := range s.BodyItems() {
		c.Elements.Body = append(c.Elements.Body, item.Text)
	}
	if len(s.Tables) > 0 {
		t := s.Tables[0]
		c.Elements.TableData = &cards.TableData{Headers: t.Columns, Rows: t.Rows}
	}
	return c
}

// DeckID derives the log id of a deck from its title: an ASCII slug, or
// "default" when nothing ASCII remains.
func DeckID(title string) string {
	var b strings.Builder
	underscore := false
	for _, r := range layouts.Slugify(title) {
		switch {
		case r < 0x80 && r != '_':
			b.WriteRune(r)
			underscore = false
		case !underscore && b.Len() > 0:
			b.WriteByte('_')
			underscore = true
		}
	}
	id := strings.Trim(b.String(), "_-")
	if id == "" {
		return "default"
	}
	return id
}

// contentHash fingerprints the job specification and cards.
func contentHash(in Input) string {
	h := sha256.New()
	if data, err := in.Job.Marshal(); err == nil {
		h.Write(data)
	}
	if in.Cards != nil {
		for _, c := range in.Cards.Cards {
			fmt.Fprintf(h, "\x00%s\x00%s\x00%s\x00%s\x00%s", c.SlideID, c.Intent, c.TypeHint, c.Elements.Title, strings.Join(c.Elements.Body, "\x01"))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func fallbackReport(out *Output, generatedAt, runID string) *FallbackReport {
	r := &FallbackReport{}
	for i, s := range out.Log.Slides {
		if !s.Fallback.Applied {
			continue
		}
		r.Slides = append(r.Slides, FallbackEntry{
			RefID:    s.RefID,
			PageNo:   out.Ready.Slides[i].Meta.PageNo,
			LayoutID: s.SelectedLayout,
			Fallback: s.Fallback,
			Patches:  s.AIPatch,
		})
	}
	r.Meta.GeneratedAt = generatedAt
	r.Meta.FallbackCount = len(r.Slides)
	r.Meta.RunID = runID
	return r
}
