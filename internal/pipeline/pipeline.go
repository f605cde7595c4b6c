// Package pipeline implements the staged appointment extraction pipeline:
// text extraction, entity extraction, and normalization, with a two-tier
// memoization scheme and confidence-gated guardrails.
//
// Every stage consults the cross-request cache (by payload fingerprint and
// stage name) and the request-scoped memo before invoking the external
// extraction service. Results, including degraded ones, are written back
// to both tiers, so a bad input does not re-trigger failing calls inside
// the cache TTL window. Low-confidence or incomplete results are converted
// into a terminal Clarification instead of a guessed answer.
package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/apptd/internal/cache"
	"github.com/fyrsmithlabs/apptd/internal/extraction"
	"github.com/fyrsmithlabs/apptd/internal/input"
)

// DefaultTimezone is the target timezone for normalized date/time values.
const DefaultTimezone = "Asia/Kolkata"

// defaultExtractorConfidence is assumed when a response carries no
// confidence marker at the structured stages.
const defaultExtractorConfidence = 0.9

// Stage 1 defaults when the response carries no confidence marker.
const (
	defaultTextConfidence  = 0.95
	defaultImageConfidence = 0.85
)

// Config holds pipeline configuration.
type Config struct {
	// Timezone is the IANA name sent to the normalization prompt and
	// attached to resolved appointments. Defaults to DefaultTimezone.
	Timezone string

	// Thresholds are the guardrail floors. Zero value means defaults.
	Thresholds Thresholds

	// Now is the clock used for the normalization reference date.
	// Defaults to time.Now.
	Now func() time.Time
}

// Pipeline orchestrates the three extraction stages over one extraction
// service and an optional cross-request store. It is safe for concurrent
// use; independent calls share no mutable state except the store.
type Pipeline struct {
	svc        extraction.Service
	store      cache.Store
	logger     *zap.Logger
	metrics    *Metrics
	thresholds Thresholds
	timezone   string
	loc        *time.Location
	now        func() time.Time
}

// New creates a pipeline. The store may be nil, in which case every
// cross-request lookup is a miss; the pipeline never fails because of the
// store. A nil logger disables logging.
func New(svc extraction.Service, store cache.Store, logger *zap.Logger, cfg *Config) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &Config{}
	}

	tz := cfg.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logger.Warn("unknown timezone, using UTC for reference dates", zap.String("timezone", tz))
		loc = time.UTC
	}

	thresholds := cfg.Thresholds
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Pipeline{
		svc:        svc,
		store:      store,
		logger:     logger,
		thresholds: thresholds,
		timezone:   tz,
		loc:        loc,
		now:        now,
	}
}

// SetMetrics attaches optional pipeline metrics.
func (p *Pipeline) SetMetrics(m *Metrics) { p.metrics = m }

// Thresholds returns the guardrail floors in effect.
func (p *Pipeline) Thresholds() Thresholds { return p.thresholds }

// RawText runs stage 1 for the given input.
func (p *Pipeline) RawText(ctx context.Context, desc input.Descriptor) (Text, error) {
	return p.extractText(ctx, desc, input.NewMemo())
}

// Entities runs stages 1-2 for the given input.
func (p *Pipeline) Entities(ctx context.Context, desc input.Descriptor) (Entities, error) {
	return p.extractEntities(ctx, desc, input.NewMemo())
}

// Normalized runs stages 1-3 for the given input.
func (p *Pipeline) Normalized(ctx context.Context, desc input.Descriptor) (Normalization, error) {
	return p.normalize(ctx, desc, input.NewMemo())
}

// Appointment runs the full pipeline and assembles the terminal record.
func (p *Pipeline) Appointment(ctx context.Context, desc input.Descriptor) (Result, error) {
	memo := input.NewMemo()

	norm, err := p.normalize(ctx, desc, memo)
	if err != nil {
		return nil, err
	}
	if c, ok := norm.(Clarification); ok {
		return c, nil
	}
	resolved := norm.(Resolved)

	// Memo hit: stage 2 already ran on the way to normalization.
	ents, err := p.extractEntities(ctx, desc, memo)
	if err != nil {
		return nil, err
	}

	return Appointment{
		Department: CanonicalDepartment(ents.Department),
		Date:       resolved.Date,
		Time:       resolved.Time,
		Timezone:   resolved.Timezone,
	}, nil
}

// lookup consults the cross-request cache first, then the per-call memo.
func (p *Pipeline) lookup(memo *input.Memo, fingerprint, stage string) (any, string, bool) {
	if p.store != nil {
		if v, ok := p.store.Get(fingerprint, stage); ok {
			return v, "cache", true
		}
	}
	if v, ok := memo.Get(stage); ok {
		return v, "memo", true
	}
	return nil, "", false
}

// remember writes a computed stage result to both tiers. A cancelled call
// must never publish partial work, so nothing is written once the context
// is done.
func (p *Pipeline) remember(ctx context.Context, memo *input.Memo, fingerprint, stage string, v any) {
	if ctx.Err() != nil {
		return
	}
	memo.Set(stage, v)
	if p.store != nil {
		p.store.Set(fingerprint, stage, v)
	}
}

// extractText is stage 1: recover raw text from the payload, via OCR for
// images and a cleanup pass for typed text.
func (p *Pipeline) extractText(ctx context.Context, desc input.Descriptor, memo *input.Memo) (Text, error) {
	fp := desc.Fingerprint()
	if v, src, ok := p.lookup(memo, fp, StageText); ok {
		if t, isText := v.(Text); isText {
			p.metrics.RecordStage(ctx, StageText, src)
			return t, nil
		}
	}

	req := extraction.Request{
		Temperature:     genTemperature,
		MaxOutputTokens: genMaxOutputTokens,
	}
	if desc.Modality() == input.Image {
		req.Prompt = ocrPrompt
		req.Media = &extraction.Media{Data: desc.Payload(), MIMEType: desc.MIMEType()}
	} else {
		req.Prompt = cleanupPrompt(desc.Text())
	}

	resp, err := p.svc.Generate(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return Text{}, ctx.Err()
		}
		p.metrics.RecordExternalCall(ctx, StageText, true)
		p.logger.Warn("text extraction failed",
			zap.String("call_id", memo.CallID()),
			zap.String("modality", desc.Modality().String()),
			zap.Error(err))

		result := Text{Confidence: 0}
		if desc.Modality() == input.Text {
			result.RawText = desc.Text()
		}
		p.remember(ctx, memo, fp, StageText, result)
		return result, nil
	}
	p.metrics.RecordExternalCall(ctx, StageText, false)

	raw := resp.Text
	if idx := strings.IndexByte(raw, '{'); idx >= 0 {
		raw = raw[:idx]
	}
	raw = strings.TrimSpace(raw)
	if raw == "" && desc.Modality() == input.Text {
		raw = desc.Text()
	}

	confidence, ok := extraction.ParseConfidenceMarker(resp.Text)
	if !ok {
		if desc.Modality() == input.Image {
			confidence = defaultImageConfidence
		} else {
			confidence = defaultTextConfidence
		}
	}

	result := Text{RawText: raw, Confidence: round2(confidence)}
	p.remember(ctx, memo, fp, StageText, result)
	p.metrics.RecordStage(ctx, StageText, "computed")
	return result, nil
}

// entityResponse is the JSON shape the entity prompt asks for.
type entityResponse struct {
	DatePhrase string `json:"date_phrase"`
	TimePhrase string `json:"time_phrase"`
	Department string `json:"department"`
	Notes      string `json:"notes"`
}

// extractEntities is stage 2: pull the appointment phrases out of the raw
// text. It short-circuits on blank or low-confidence stage 1 output to
// avoid spending an external call on bad input.
func (p *Pipeline) extractEntities(ctx context.Context, desc input.Descriptor, memo *input.Memo) (Entities, error) {
	fp := desc.Fingerprint()
	if v, src, ok := p.lookup(memo, fp, StageEntities); ok {
		if e, isEntities := v.(Entities); isEntities {
			p.metrics.RecordStage(ctx, StageEntities, src)
			return e, nil
		}
	}

	text, err := p.extractText(ctx, desc, memo)
	if err != nil {
		return Entities{}, err
	}

	if strings.TrimSpace(text.RawText) == "" || below(text.Confidence, p.thresholds.EntityFloor) {
		p.metrics.RecordGuardrail(ctx, "entity_floor")
		p.logger.Debug("skipping entity extraction: blank or low-confidence text",
			zap.String("call_id", memo.CallID()),
			zap.Float64("text_confidence", text.Confidence))

		result := Entities{}
		p.remember(ctx, memo, fp, StageEntities, result)
		return result, nil
	}

	resp, err := p.svc.Generate(ctx, extraction.Request{
		Prompt:          entityPrompt(text.RawText),
		Temperature:     genTemperature,
		MaxOutputTokens: genMaxOutputTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Entities{}, ctx.Err()
		}
		p.metrics.RecordExternalCall(ctx, StageEntities, true)
		p.logger.Warn("entity extraction failed",
			zap.String("call_id", memo.CallID()),
			zap.Error(err))

		result := Entities{}
		p.remember(ctx, memo, fp, StageEntities, result)
		return result, nil
	}
	p.metrics.RecordExternalCall(ctx, StageEntities, false)

	extractorConf := defaultExtractorConfidence
	if c, ok := extraction.ParseConfidenceMarker(resp.Text); ok {
		extractorConf = c
	}
	combined := math.Min(extractorConf, text.Confidence)

	var result Entities
	if span, ok := extraction.FirstJSONObject(resp.Text); ok {
		var parsed entityResponse
		if uerr := json.Unmarshal([]byte(span), &parsed); uerr != nil {
			p.logger.Warn("entity extraction returned unparseable JSON",
				zap.String("call_id", memo.CallID()),
				zap.Error(uerr))
			combined = 0
		} else {
			result = Entities{
				Department: parsed.Department,
				DatePhrase: parsed.DatePhrase,
				TimePhrase: parsed.TimePhrase,
				Notes:      parsed.Notes,
			}
		}
	} else {
		// No structured output at all: penalize rather than fail.
		combined *= 0.5
	}

	result.Confidence = round2(combined)
	p.remember(ctx, memo, fp, StageEntities, result)
	p.metrics.RecordStage(ctx, StageEntities, "computed")
	return result, nil
}

// normalizedResponse is the JSON shape the normalization prompt asks for.
type normalizedResponse struct {
	Date string `json:"date"`
	Time string `json:"time"`
	TZ   string `json:"tz"`
}

// normalize is stage 3: resolve the extracted phrases into an absolute
// date and time, guarded on both sides by the clarification thresholds.
func (p *Pipeline) normalize(ctx context.Context, desc input.Descriptor, memo *input.Memo) (Normalization, error) {
	fp := desc.Fingerprint()
	if v, src, ok := p.lookup(memo, fp, StageNormalize); ok {
		if n, isNorm := v.(Normalization); isNorm {
			p.metrics.RecordStage(ctx, StageNormalize, src)
			return n, nil
		}
	}

	ents, err := p.extractEntities(ctx, desc, memo)
	if err != nil {
		return nil, err
	}

	// Pre-check guardrail: nothing to normalize, or upstream too uncertain.
	if ents.Empty() || below(ents.Confidence, p.thresholds.NormalizePreFloor) {
		p.metrics.RecordGuardrail(ctx, "normalize_pre")
		p.logger.Debug("skipping normalization: empty or low-confidence entities",
			zap.String("call_id", memo.CallID()),
			zap.Float64("entities_confidence", ents.Confidence))

		result := Clarification{Reason: ClarifyReason}
		p.remember(ctx, memo, fp, StageNormalize, result)
		return result, nil
	}

	referenceDate := p.now().In(p.loc).Format("2006-01-02")
	resp, err := p.svc.Generate(ctx, extraction.Request{
		Prompt:          normalizePrompt(ents, referenceDate, p.timezone),
		Temperature:     genTemperature,
		MaxOutputTokens: genMaxOutputTokens,
	})

	combined := 0.0
	var resolved Resolved
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.metrics.RecordExternalCall(ctx, StageNormalize, true)
		p.logger.Warn("normalization failed",
			zap.String("call_id", memo.CallID()),
			zap.Error(err))
	} else {
		p.metrics.RecordExternalCall(ctx, StageNormalize, false)

		extractorConf := defaultExtractorConfidence
		if c, ok := extraction.ParseConfidenceMarker(resp.Text); ok {
			extractorConf = c
		}
		combined = math.Min(extractorConf, ents.Confidence)

		if span, ok := extraction.FirstJSONObject(resp.Text); ok {
			var parsed normalizedResponse
			if uerr := json.Unmarshal([]byte(span), &parsed); uerr != nil {
				p.logger.Warn("normalization returned unparseable JSON",
					zap.String("call_id", memo.CallID()),
					zap.Error(uerr))
				combined = 0
			} else {
				resolved = Resolved{Date: parsed.Date, Time: parsed.Time, Timezone: parsed.TZ}
			}
		} else {
			combined *= 0.5
		}
	}
	// Post-check guardrail: never surface a low-confidence normalization.
	// Checked against the exact combined value, before rounding, so a value
	// at the floor passes and one strictly below it fails.
	if below(combined, p.thresholds.NormalizePostFloor) {
		p.metrics.RecordGuardrail(ctx, "normalize_post")
		result := Clarification{Reason: ClarifyReason}
		p.remember(ctx, memo, fp, StageNormalize, result)
		return result, nil
	}

	if resolved.Timezone == "" {
		resolved.Timezone = p.timezone
	}
	resolved.Confidence = round2(combined)
	p.remember(ctx, memo, fp, StageNormalize, resolved)
	p.metrics.RecordStage(ctx, StageNormalize, "computed")
	return resolved, nil
}

// round2 rounds a confidence to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
