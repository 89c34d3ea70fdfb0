// Package recommend ranks catalog layouts for a content card. Scores are
// heuristic, optionally augmented by an llm.Classifier.
package recommend

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/tsawler/pptxgen/cards"
	"github.com/tsawler/pptxgen/config"
	"github.com/tsawler/pptxgen/layouts"
	"github.com/tsawler/pptxgen/llm"
)

// Score contributions.
const (
	intentMatch       = 0.40
	typeHintMatch     = 0.25
	overlapPerTag     = 0.05
	overlapCap        = 0.15
	bodyFits          = 0.10
	overflowPerLine   = 0.05
	overflowCap       = 0.25
	tableAllowed      = 0.10
	tableForbidden    = -0.30
	diversityPerTag   = 0.01
	analyzerHigh      = -0.20
	analyzerMedium    = -0.10
	analyzerClean     = 0.10
	analyzerBlockedBy = -0.20
)

// Options configures a Recommender.
type Options struct {
	MaxCandidates   int
	DiversityWeight float64
	AIWeight        float64
	Vocabulary      *layouts.Vocabulary
	// Classifier adds AI scores. Nil means heuristics only.
	Classifier llm.Classifier
	Logger     *zap.Logger
}

// OptionsFromRules copies the recommender rules into Options.
func OptionsFromRules(r config.RecommendRules) Options {
	return Options{
		MaxCandidates:   r.MaxCandidates,
		DiversityWeight: r.DiversityWeight,
		AIWeight:        r.AIWeight,
	}
}

// Candidate is a scored layout.
type Candidate struct {
	LayoutID string            `json:"layout_id"`
	Score    float64           `json:"score"`
	Detail   cards.ScoreDetail `json:"detail"`
	Reason   string            `json:"reason,omitempty"`
}

// Result is the ranking for one card.
type Result struct {
	SlideID    string      `json:"slide_id"`
	Candidates []Candidate `json:"candidates"`
	// Preferred echoes the caller's preferred layout. It does not change
	// any score.
	Preferred string `json:"preferred,omitempty"`
	// UnknownTags are classifier tags outside the vocabulary.
	UnknownTags []string `json:"unknown_tags,omitempty"`
	AIProvider  string   `json:"ai_provider,omitempty"`
}

// Top returns the best candidate.
func (r *Result) Top() (Candidate, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

// CardCandidates converts the ranking to draft candidates.
func (r *Result) CardCandidates() []cards.Candidate {
	out := make([]cards.Candidate, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		out = append(out, cards.Candidate{LayoutID: c.LayoutID, Score: c.Score})
	}
	return out
}

// Recommender scores layouts. Tags returned by the classifier replace a
// layout's usage tags for the overlap factor of later calls, so a
// Recommender belongs to a single run.
type Recommender struct {
	opts      Options
	log       *zap.Logger
	vocab     *layouts.Vocabulary
	overrides map[string][]string
	warned    bool
}

// New returns a Recommender. Zero options take the configured defaults.
func New(opts Options) *Recommender {
	def := config.DefaultRules().Recommender
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = def.MaxCandidates
	}
	if opts.DiversityWeight < 0 {
		opts.DiversityWeight = 0
	}
	opts.AIWeight = math.Min(math.Max(opts.AIWeight, 0), 1)
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	vocab := opts.Vocabulary
	if vocab == nil {
		vocab = layouts.NewVocabulary()
	}
	return &Recommender{opts: opts, log: log, vocab: vocab, overrides: make(map[string][]string)}
}

type scored struct {
	pos     int
	profile *layouts.Profile
	detail  cards.ScoreDetail
	reason  string
}

// Recommend ranks profiles for card. At most MaxCandidates layouts with a
// positive score are returned, best first, ties in catalog order.
// Classifier failures fall back to heuristic scores; the only error is a
// cancelled context.
func (r *Recommender) Recommend(ctx context.Context, card *cards.Card, preferred string, profiles []layouts.Profile, analyzer *cards.AnalyzerSummary) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &Result{SlideID: card.SlideID, Preferred: preferred}

	all := make([]*scored, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		all[i] = &scored{pos: i, profile: p, detail: r.base(card, p, analyzer)}
	}
	rank(all)

	if r.opts.Classifier != nil && len(all) > 0 {
		r.augment(ctx, card, all, res)
		rank(all)
	}

	for _, s := range all {
		score := round(s.detail.Total())
		if score <= 0 {
			continue
		}
		res.Candidates = append(res.Candidates, Candidate{
			LayoutID: s.profile.LayoutID,
			Score:    score,
			Detail:   s.detail.Clamp(),
			Reason:   s.reason,
		})
		if len(res.Candidates) == r.opts.MaxCandidates {
			break
		}
	}
	return res, nil
}

// rank orders by total score, then catalog position.
func rank(all []*scored) {
	sort.SliceStable(all, func(i, j int) bool {
		a, b := round(all[i].detail.Total()), round(all[j].detail.Total())
		if a != b {
			return a > b
		}
		return all[i].pos < all[j].pos
	})
}

// base computes the heuristic components for one layout.
func (r *Recommender) base(card *cards.Card, p *layouts.Profile, analyzer *cards.AnalyzerSummary) cards.ScoreDetail {
	var d cards.ScoreDetail
	has := tagSet(p.UsageTags)
	overlapTags := has
	if o, ok := r.overrides[p.LayoutID]; ok {
		overlapTags = tagSet(o)
	}

	if t, ok := r.vocab.Normalize(card.Intent); ok && has[t] {
		d.UsesTag += intentMatch
	}
	if t, ok := r.vocab.Normalize(card.TypeHint); ok && has[t] {
		d.UsesTag += typeHintMatch
	}
	overlap := 0
	matched := make(map[string]bool)
	for _, tok := range card.Tokens() {
		if t, ok := r.vocab.Normalize(tok); ok && overlapTags[t] && !matched[t] {
			matched[t] = true
			overlap++
		}
	}
	d.UsesTag += math.Min(overlapCap, overlapPerTag*float64(overlap))

	lines := len(card.Elements.Body)
	if lines <= p.TextHint.MaxLines {
		d.ContentCapacity += bodyFits
	} else {
		d.ContentCapacity -= math.Min(overflowCap, overflowPerLine*float64(lines-p.TextHint.MaxLines))
	}
	if card.HasTable() {
		if p.MediaHint.AllowTable {
			d.ContentCapacity += tableAllowed
		} else {
			d.ContentCapacity += tableForbidden
		}
	}

	d.Diversity = math.Min(r.opts.DiversityWeight, diversityPerTag*float64(len(p.UsageTags)))

	if analyzer != nil {
		switch {
		case blocked(analyzer.BlockingTags, has):
			d.AnalyzerSupport = analyzerBlockedBy
		case analyzer.SeverityHigh > 0:
			d.AnalyzerSupport = analyzerHigh
		case analyzer.SeverityMedium > 0:
			d.AnalyzerSupport = analyzerMedium
		default:
			d.AnalyzerSupport = analyzerClean
		}
	}
	return d
}

func tagSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	return set
}

func blocked(blocking []string, has map[string]bool) bool {
	for _, t := range blocking {
		if has[t] {
			return true
		}
	}
	return false
}

// augment asks the classifier to score the heuristic ranking.
func (r *Recommender) augment(ctx context.Context, card *cards.Card, all []*scored, res *Result) {
	req := llm.Request{
		SlideID:    card.SlideID,
		Intent:     card.Intent,
		TypeHint:   card.TypeHint,
		Title:      card.Elements.Title,
		Body:       card.Elements.Body,
		HasTable:   card.HasTable(),
		Vocabulary: layouts.CanonicalTags,
	}
	for _, s := range all {
		p := s.profile
		req.Candidates = append(req.Candidates, llm.Candidate{
			LayoutID:   p.LayoutID,
			LayoutName: p.LayoutName,
			UsageTags:  p.UsageTags,
			MaxLines:   p.TextHint.MaxLines,
			AllowTable: p.MediaHint.AllowTable,
			AllowChart: p.MediaHint.AllowChart,
			AllowImage: p.MediaHint.AllowImage,
		})
	}

	resp, err := r.opts.Classifier.Classify(ctx, req)
	if err != nil {
		if !r.warned {
			r.warned = true
			r.log.Warn("layout classifier failed, using heuristic scores",
				zap.String("slide_id", card.SlideID), zap.Error(err))
		}
		return
	}
	res.AIProvider = resp.Provider

	unknown := make(map[string]bool)
	for _, s := range all {
		rec, ok := resp.Find(s.profile.LayoutID)
		if !ok {
			continue
		}
		s.detail.AIRecommendation = rec.Score * r.opts.AIWeight
		s.reason = rec.Reason
		if len(rec.Tags) > 0 {
			r.overrides[s.profile.LayoutID] = append([]string(nil), rec.Tags...)
		}
		for _, t := range rec.UnknownTags {
			unknown[t] = true
		}
	}
	for t := range unknown {
		res.UnknownTags = append(res.UnknownTags, t)
	}
	sort.Strings(res.UnknownTags)
}

// round keeps scores stable across platforms in artifacts and ties.
func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
