package audit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/tenant"
)

// Sink receives finished audit records. Dispatch is fire-and-forget: the
// pipeline never retries and never lets a sink failure reach the client.
type Sink interface {
	Log(ctx context.Context, rec *Record) error
}

// SinkFunc is a function adapter for Sink.
type SinkFunc func(ctx context.Context, rec *Record) error

func (f SinkFunc) Log(ctx context.Context, rec *Record) error {
	return f(ctx, rec)
}

const defaultDispatchTimeout = 10 * time.Second

// PipelineConfig wires the audit pipeline. Classifier, Extractor and Sink
// are required; MedicalRecords is optional.
type PipelineConfig struct {
	Classifier     *Classifier
	Extractor      *Extractor
	Sink           Sink
	MedicalRecords *MedicalRecordAuditor
	Logger         zerolog.Logger
	// BodyLimit caps how many response bytes are attached to deep-audit
	// records. Zero keeps the whole body.
	BodyLimit int
	// DispatchTimeout bounds each background sink call.
	DispatchTimeout time.Duration
}

// Pipeline is the per-request compliance-audit orchestrator. For every
// audited request it runs, in order: classify, intercept the response,
// invoke the downstream handler, build the record, dispatch it. Exactly one
// record is produced per audited request, including error and panic paths.
type Pipeline struct {
	classifier *Classifier
	extractor  *Extractor
	builder    *Builder
	sink       Sink
	records    *MedicalRecordAuditor
	logger     zerolog.Logger
	bodyLimit  int
	timeout    time.Duration
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	timeout := cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &Pipeline{
		classifier: cfg.Classifier,
		extractor:  cfg.Extractor,
		builder:    NewBuilder(),
		sink:       cfg.Sink,
		records:    cfg.MedicalRecords,
		logger:     cfg.Logger,
		bodyLimit:  cfg.BodyLimit,
		timeout:    timeout,
	}
}

// Middleware returns the echo middleware running the pipeline.
func (p *Pipeline) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			decision := p.classifier.Classify(req.Method, req.URL.Path)
			if !decision.ShouldAudit {
				return next(c)
			}

			// Everything the record needs is captured as plain data now,
			// before the request state can be torn down.
			in := BuildInput{
				Identity: Identity{
					ID:    auth.UserIDFromContext(req.Context()),
					Name:  auth.UserNameFromContext(req.Context()),
					Email: auth.UserEmailFromContext(req.Context()),
				},
				Decision:  decision,
				Entity:    p.extractor.Extract(req.URL.Path),
				Method:    req.Method,
				Path:      req.URL.Path,
				IPAddress: c.RealIP(),
				UserAgent: req.UserAgent(),
			}
			if tc := tenant.FromContext(req.Context()); tc != nil {
				in.TenantID = tc.TenantID
			}

			snap := Intercept(c.Response())

			var handlerErr error
			defer func() {
				if r := recover(); r != nil {
					// The handler panicked mid-flight. Restore the stream,
					// record the failure, and let the recovery middleware
					// turn the panic into a 500.
					if err := snap.Close(); err != nil {
						p.logger.Error().Err(err).Msg("response replay failed during panic unwind")
					}
					in.StatusCode = http.StatusInternalServerError
					in.FailureReason = fmt.Sprintf("panic: %v", r)
					p.dispatch(p.builder.Build(in))
					panic(r)
				}
			}()

			handlerErr = next(c)

			in.StatusCode = snap.Status()
			if !snap.Wrote() && handlerErr != nil {
				in.StatusCode = statusFromError(handlerErr)
			}
			if handlerErr != nil {
				in.FailureReason = handlerErr.Error()
			}
			if deepAudit(decision) {
				in.NewValues = snap.BodyCopy(p.bodyLimit)
			}

			closeErr := snap.Close()

			rec := p.builder.Build(in)
			p.dispatch(rec)
			p.auditMedicalRecord(in, rec)

			if closeErr != nil {
				// Stream replay failed; this is fatal to the request.
				p.logger.Error().Err(closeErr).
					Str("path", in.Path).
					Msg("response interception failed")
				if handlerErr != nil {
					return handlerErr
				}
				return closeErr
			}
			return handlerErr
		}
	}
}

// dispatch hands the record to the sink on a detached goroutine. The record
// is owned by the sink from here on; failures are logged and discarded.
func (p *Pipeline) dispatch(rec *Record) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error().
					Interface("panic", r).
					Str("path", rec.Path).
					Msg("audit sink panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if err := p.sink.Log(ctx, rec); err != nil {
			p.logger.Error().Err(err).
				Str("path", rec.Path).
				Str("action", string(rec.Action)).
				Msg("audit record dispatch failed")
		}
	}()
}

// auditMedicalRecord fires the narrower background access log for
// medical-record operations. It carries only the plain values already
// extracted into in; nothing request-scoped crosses the goroutine boundary.
func (p *Pipeline) auditMedicalRecord(in BuildInput, rec *Record) {
	if p.records == nil || in.Entity.EntityType != "MedicalRecord" || in.Entity.EntityID == "" {
		return
	}
	if rec.Outcome != OutcomeSuccess {
		return
	}
	accessType := AccessTypeFor(in.Method, in.Path)
	if accessType == "" {
		return
	}
	p.records.Record(in.Entity.EntityID, rec.ActorID, accessType, in.TenantID, in.IPAddress, in.UserAgent)
}

// deepAudit reports whether the response body should be attached to the
// record. Body capture is limited to mutations of health data so record
// size stays proportional to sensitivity.
func deepAudit(d Decision) bool {
	if d.DataCategory != CategoryHealth {
		return false
	}
	switch d.Action {
	case ActionRead:
		return false
	default:
		return true
	}
}

func statusFromError(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
