package intent

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Inferrer is the language-model collaborator. InferCall turns an
// utterance into raw call text (may be empty on failure); InferAnswer
// produces user-facing text conditioned by a system role.
type Inferrer interface {
	InferCall(ctx context.Context, utterance string) (string, error)
	InferAnswer(ctx context.Context, prompt, systemRole string) (string, error)
}

// Recorder persists result envelopes for diagnostics. Recording is
// best-effort: a recorder failure never fails the pipeline.
type Recorder interface {
	Record(ctx context.Context, id string, env Envelope) error
}

// Metrics observes pipeline outcomes.
type Metrics interface {
	RunCompleted(status Status)
	StageRejected(stage string)
}

// Pipeline stages, in order. A stage that rejects short-circuits the rest
// and the run jumps straight to formatting.
const (
	StageInference = "inference"
	StageParse     = "parse"
	StageValidate  = "validate"
	StageExecute   = "execute"
)

const noInterpretationMessage = "No valid function returned for the utterance"

// Orchestrator drives one utterance through inference, parsing,
// validation, and execution, and always finishes through the formatter.
type Orchestrator struct {
	llm         Inferrer
	registry    *Registry
	executor    *Executor
	personality *Personality
	recorder    Recorder
	metrics     Metrics
	logger      *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder attaches an envelope recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithMetrics attaches outcome metrics.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithExecutor replaces the default executor.
func WithExecutor(e *Executor) Option {
	return func(o *Orchestrator) { o.executor = e }
}

// NewOrchestrator wires the pipeline. personality may be preset or unset;
// an unset cell picks a random role on first use.
func NewOrchestrator(llm Inferrer, registry *Registry, personality *Personality, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		llm:         llm,
		registry:    registry,
		executor:    NewExecutor(),
		personality: personality,
		metrics:     noopMetrics{},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process resolves one utterance into a public response. Every outcome,
// including collaborator faults, renders as a well-formed PublicResponse.
func (o *Orchestrator) Process(ctx context.Context, utterance string) PublicResponse {
	id := uuid.NewString()
	log := o.logger.With(zap.String("request_id", id))
	log.Info("processing utterance", zap.String("utterance", utterance))

	env := o.run(ctx, log, utterance)
	env = Normalize(env)

	o.metrics.RunCompleted(env.Status)
	if o.recorder != nil {
		if err := o.recorder.Record(ctx, id, env); err != nil {
			log.Warn("recording envelope", zap.Error(err))
		}
	}

	log.Info("utterance resolved",
		zap.String("status", string(env.Status)),
		zap.String("data", env.Data))
	return Format(env)
}

func (o *Orchestrator) run(ctx context.Context, log *zap.Logger, utterance string) Envelope {
	rawCall, err := o.llm.InferCall(ctx, utterance)
	if err != nil {
		log.Error("call inference failed", zap.Error(err))
		o.metrics.StageRejected(StageInference)
		return o.executor.Reject(utterance, err)
	}
	if strings.TrimSpace(rawCall) == "" {
		log.Error("no interpretable call text for utterance")
		o.metrics.StageRejected(StageInference)
		return Envelope{
			Request:   utterance,
			Status:    StatusFailure,
			Data:      noInterpretationMessage,
			Timestamp: o.executor.clock()(),
		}
	}
	log.Debug("call text received", zap.String("call", rawCall))

	call, err := Parse(rawCall)
	if err != nil {
		log.Error("call text rejected by parser", zap.Error(err))
		o.metrics.StageRejected(StageParse)
		return o.executor.Reject(utterance, err)
	}

	validated, err := Validate(call, o.registry)
	if err != nil {
		log.Error("call rejected by validator", zap.Error(err))
		o.metrics.StageRejected(StageValidate)
		return o.executor.Reject(utterance, err)
	}

	env := o.executor.Execute(ctx, rawCall, validated)
	if env.Status != StatusSuccess {
		o.metrics.StageRejected(StageExecute)
		// Error envelopes carry the utterance, not the model's call text,
		// so callers can correlate failures with what the user said.
		return Envelope{
			Request:   utterance,
			Status:    env.Status,
			Data:      env.Data,
			Timestamp: env.Timestamp,
		}
	}
	return env
}

// SetPersonality replaces the process-wide system role going forward.
func (o *Orchestrator) SetPersonality(role string) {
	o.personality.Set(role)
	o.logger.Info("system role set", zap.String("personality", role))
}

// PersonalityRole returns the current system role, initializing it from
// the catalog if unset.
func (o *Orchestrator) PersonalityRole() string {
	return o.personality.Role()
}

type noopMetrics struct{}

func (noopMetrics) RunCompleted(Status)  {}
func (noopMetrics) StageRejected(string) {}
