package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/testing5586/lynker-match/internal/chart"
	"github.com/testing5586/lynker-match/internal/vision"
)

// totalSteps is the number of pipeline stages.
const totalSteps = 4

// Stage names as emitted on the event stream.
const (
	StageRecognize = "recognize"
	StageParse     = "parse"
	StageNormalize = "normalize"
	StageFormat    = "format"
	StageComplete  = "complete"
)

// Event is one entry of the ordered progress stream sent to the caller.
// Error events carry the failing stage and a non-empty Err.
type Event struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Step    int    `json:"step"`
	Total   int    `json:"total"`
	Err     string `json:"error,omitempty"`
}

// EventSink receives progress events. Concretely a socket, channel, or
// terminal printer; the pipeline does not care.
type EventSink interface {
	Emit(Event)
}

// SinkFunc adapts a function to an EventSink.
type SinkFunc func(Event)

// Emit calls the function.
func (f SinkFunc) Emit(e Event) { f(e) }

// StageError reports which stage a pipeline run failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline digitizes one chart image: recognize, parse, normalize,
// format. Stages run strictly sequentially; each invocation is stateless
// apart from the vision call, so a failed run is safe to retry wholesale.
type Pipeline struct {
	vision vision.Provider
	sink   EventSink
}

// New creates a pipeline. A nil sink discards events.
func New(provider vision.Provider, sink EventSink) *Pipeline {
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}
	return &Pipeline{vision: provider, sink: sink}
}

// Run executes the full pipeline over one image. On any stage failure it
// emits an error event and returns a StageError; no partial envelope is
// returned. Timeouts are the caller's responsibility via ctx.
func (p *Pipeline) Run(ctx context.Context, image []byte) (*chart.ExportEnvelope, error) {
	log.Println("Step 1/4: Recognizing chart image...")
	raw, err := p.vision.Recognize(ctx, image)
	if err != nil {
		return nil, p.fail(StageRecognize, 1, err)
	}
	p.progress(StageRecognize, 1, "图像识别完成")

	log.Println("Step 2/4: Parsing pillars...")
	pillars := chart.ParsePillars(*raw)
	p.progress(StageParse, 2, "四柱解析完成")

	log.Println("Step 3/4: Normalizing chart...")
	normalized := chart.NormalizeFrom(*raw, pillars)
	p.progress(StageNormalize, 3, "命盘归一化完成")

	log.Println("Step 4/4: Formatting export envelope...")
	envelope := chart.BuildEnvelope(*raw, normalized)
	p.progress(StageFormat, 4, "导出封装完成")

	p.sink.Emit(Event{Stage: StageComplete, Message: "数字化完成", Step: totalSteps, Total: totalSteps})
	return &envelope, nil
}

func (p *Pipeline) progress(stage string, step int, message string) {
	p.sink.Emit(Event{Stage: stage, Message: message, Step: step, Total: totalSteps})
}

func (p *Pipeline) fail(stage string, step int, err error) error {
	p.sink.Emit(Event{Stage: stage, Message: "识别失败", Step: step, Total: totalSteps, Err: err.Error()})
	return &StageError{Stage: stage, Err: err}
}
