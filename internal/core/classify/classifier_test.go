package classify

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluateEmptyMessageRequiresNoResponse(t *testing.T) {
	verdict := Evaluate(DefaultTables(), domain.Message{})
	if verdict.RequiresResponse {
		t.Fatal("empty message must not require a response")
	}
	if verdict.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %v", verdict.Confidence)
	}
	if len(verdict.MatchedSignals) != 0 {
		t.Fatalf("expected no signals, got %v", verdict.MatchedSignals)
	}
}

func TestEvaluateLiteralPhrasesOnly(t *testing.T) {
	// Phrases chosen so no regex pattern, question marker, or
	// automation marker fires alongside them.
	msg := domain.Message{
		Subject: "document status",
		Body:    "status update",
		Sender:  "colleague@example.com",
	}
	verdict := Evaluate(DefaultTables(), msg)
	if !almostEqual(verdict.Confidence, 0.2) {
		t.Fatalf("expected confidence 0.2 for two literal phrases, got %v", verdict.Confidence)
	}
	// 0.2 is not strictly greater than the threshold.
	if verdict.RequiresResponse {
		t.Fatal("confidence equal to threshold must not require a response")
	}
	if verdict.Method != domain.MethodFallbackKeyword {
		t.Fatalf("expected fallback_keyword method, got %s", verdict.Method)
	}
}

func TestEvaluateConfidenceAlwaysClamped(t *testing.T) {
	adversarial := domain.Message{
		Subject: "urgent please review send share provide submit the pending document report",
		Body: "where is the file? awaiting document, document review, please review, " +
			"document status, send document, share document, document ready, work done, " +
			"project complete, status update, when will the document deadline pass, " +
			"finished document, completed work, pending document",
		Sender: "noreply@system.example.com",
	}
	verdict := Evaluate(DefaultTables(), adversarial)
	if verdict.Confidence < 0 || verdict.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", verdict.Confidence)
	}
	if !verdict.RequiresResponse {
		t.Fatal("heavily matched message should require a response")
	}
}

func TestEvaluateAutomationPenaltyCanZeroConfidence(t *testing.T) {
	msg := domain.Message{
		Subject: "Notification",
		Body:    "Your weekly digest is here.",
		Sender:  "noreply@system.com",
	}
	verdict := Evaluate(DefaultTables(), msg)
	if verdict.RequiresResponse {
		t.Fatal("automated notification must not require a response")
	}
	if verdict.Confidence != 0 {
		t.Fatalf("expected confidence clamped to 0, got %v", verdict.Confidence)
	}
}

func TestEvaluateDocumentRequestScenario(t *testing.T) {
	msg := domain.Message{
		Subject: "Please review the Q3 Report",
		Body:    "waiting for the final document",
		Sender:  "alex@example.com",
	}
	verdict := Evaluate(DefaultTables(), msg)
	if !verdict.RequiresResponse {
		t.Fatal("expected requires_response = true")
	}
	if verdict.Confidence <= 0.2 {
		t.Fatalf("expected confidence above threshold, got %v", verdict.Confidence)
	}
	if verdict.Method != domain.MethodPatternBased {
		t.Fatalf("expected pattern_based method, got %s", verdict.Method)
	}
	found := false
	for _, ref := range verdict.DocumentReferences {
		if strings.EqualFold(ref, "Q3 Report") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected reference %q, got %v", "Q3 Report", verdict.DocumentReferences)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	msg := domain.Message{
		Subject: "Status of the Budget Plan document?",
		Body:    `Can you share "the Marketing Analysis file" and the Budget Plan?`,
		Sender:  "pat@example.com",
	}
	first := Evaluate(DefaultTables(), msg)
	for i := 0; i < 10; i++ {
		if got := Evaluate(DefaultTables(), msg); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d diverged: %+v vs %+v", i, got, first)
		}
	}
}

func TestSanitizeReferences(t *testing.T) {
	refs := []string{
		"  Q3 Report ", "Q3 Report", "ab", "   ", `"Budget Plan"`,
		"r1 doc", "r2 doc", "r3 doc", "r4 doc", "r5 doc", "r6 doc",
		"r7 doc", "r8 doc", "r9 doc",
	}
	out := sanitizeReferences(refs)
	if len(out) != maxReferences {
		t.Fatalf("expected cap at %d references, got %d: %v", maxReferences, len(out), out)
	}
	if out[0] != "Q3 Report" {
		t.Fatalf("expected trimmed first reference, got %q", out[0])
	}
	if out[1] != "Budget Plan" {
		t.Fatalf("expected quote characters stripped, got %q", out[1])
	}
	for _, ref := range out {
		if len(strings.TrimSpace(ref)) < minReferenceLength {
			t.Fatalf("short reference leaked through: %q", ref)
		}
	}
}

type judgeFake struct {
	verdict domain.JudgmentVerdict
	err     error
	calls   int
}

func (j *judgeFake) Judge(_ context.Context, _ domain.Message) (domain.JudgmentVerdict, error) {
	j.calls++
	if j.err != nil {
		return domain.JudgmentVerdict{}, j.err
	}
	return j.verdict, nil
}

func TestClassifyFallsBackWhenJudgmentFails(t *testing.T) {
	judge := &judgeFake{err: errors.New("upstream timeout")}
	classifier := New(DefaultTables(), WithJudgment(judge, time.Second))

	msg := domain.Message{
		Subject: "Please review the Q3 Report",
		Body:    "waiting for the final document",
		Sender:  "alex@example.com",
	}
	verdict := classifier.Classify(context.Background(), msg)
	if judge.calls != 1 {
		t.Fatalf("expected one judge call, got %d", judge.calls)
	}
	if verdict.Method != domain.MethodPatternBased {
		t.Fatalf("expected pattern fallback, got %s", verdict.Method)
	}
	if !verdict.RequiresResponse {
		t.Fatal("fallback path should still classify the request")
	}
}

func TestClassifyCoercesExternalVerdict(t *testing.T) {
	judge := &judgeFake{verdict: domain.JudgmentVerdict{
		RequiresDocumentResponse: true,
		ConfidenceScore:          1.7,
		DocumentTypeMentioned:    "Report",
		DocumentReferences:       []string{" Q3 Report ", "ab", "Q3 Report"},
	}}
	classifier := New(DefaultTables(), WithJudgment(judge, time.Second))

	verdict := classifier.Classify(context.Background(), domain.Message{ID: "m1"})
	if verdict.Method != domain.MethodExternalJudgment {
		t.Fatalf("expected external_judgment method, got %s", verdict.Method)
	}
	if verdict.Confidence != 1.0 {
		t.Fatalf("expected confidence clamped to 1.0, got %v", verdict.Confidence)
	}
	if want := []string{"Q3 Report"}; !reflect.DeepEqual(verdict.DocumentReferences, want) {
		t.Fatalf("expected sanitized references %v, got %v", want, verdict.DocumentReferences)
	}
	if want := []string{"report"}; !reflect.DeepEqual(verdict.MatchedSignals, want) {
		t.Fatalf("expected type signal %v, got %v", want, verdict.MatchedSignals)
	}
}

func TestClassifyWithoutJudgeUsesPatterns(t *testing.T) {
	classifier := New(DefaultTables())
	verdict := classifier.Classify(context.Background(), domain.Message{
		Subject: "lunch on friday?",
		Body:    "no work talk, promise",
		Sender:  "sam@example.com",
	})
	if verdict.RequiresResponse {
		t.Fatal("casual mail must not require a document response")
	}
}
