package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nexa-assistant/nexa/internal/intent"
)

func TestPipelineCounters(t *testing.T) {
	p := NewPipeline()
	p.RunCompleted(intent.StatusSuccess)
	p.RunCompleted(intent.StatusSuccess)
	p.RunCompleted(intent.StatusFailure)
	p.StageRejected(intent.StageParse)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`nexa_utterances_total{status="success"} 2`,
		`nexa_utterances_total{status="failure"} 1`,
		`nexa_stage_rejections_total{stage="parse"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape output missing %q:\n%s", want, body)
		}
	}
}
