package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coopvale/backoffice/internal/audit"
	"go.uber.org/zap"
)

// MockAuditRunner implements AuditRunner for testing
type MockAuditRunner struct {
	problems  []audit.ProblemReport
	evaluated int
	auditErr  error
	scopes    []audit.Scope
	mu        sync.Mutex
}

func (m *MockAuditRunner) Audit(ctx context.Context, scope audit.Scope) ([]audit.ProblemReport, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scopes = append(m.scopes, scope)
	if m.auditErr != nil {
		return nil, 0, m.auditErr
	}
	return m.problems, m.evaluated, nil
}

// MockEmail implements email.Email for testing
type MockEmail struct {
	sentEmails []SentEmail
	sendErr    error
	mu         sync.Mutex
}

type SentEmail struct {
	Subject    string
	Text       string
	HTML       string
	Recipients []string
}

func (m *MockEmail) Send(subject, text, html string, recipients []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}

	m.sentEmails = append(m.sentEmails, SentEmail{
		Subject:    subject,
		Text:       text,
		HTML:       html,
		Recipients: recipients,
	})
	return nil
}

func (m *MockEmail) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sentEmails)
}

func duplicateProblem() audit.ProblemReport {
	return audit.ProblemReport{
		Tipo:         audit.ProblemDuplicado,
		Arquivo:      "vendas.xlsx",
		ChaveNatural: "NF-001|P-10",
		Ocorrencias:  2,
	}
}

func TestRunAuditJob_WithProblems(t *testing.T) {
	mockAuditor := &MockAuditRunner{
		problems: []audit.ProblemReport{
			duplicateProblem(),
			{
				Tipo:       audit.ProblemContagem,
				Arquivo:    "balancete.xlsx",
				Esperado:   100,
				Encontrado: 97,
			},
		},
		evaluated: 4,
	}
	mockEmail := &MockEmail{}

	scheduler := NewScheduler(mockAuditor, zap.NewNop(), mockEmail, []string{"ops@coopvale.com.br"})
	scheduler.runAuditJob()

	if mockEmail.count() != 1 {
		t.Fatalf("expected 1 email sent, got %d", mockEmail.count())
	}

	mockEmail.mu.Lock()
	email := mockEmail.sentEmails[0]
	mockEmail.mu.Unlock()

	if !containsString(email.Text, "vendas.xlsx") {
		t.Error("email text should contain vendas.xlsx")
	}
	if !containsString(email.Text, "NF-001|P-10") {
		t.Error("email text should contain the duplicate key")
	}
	if !containsString(email.HTML, "<table>") {
		t.Error("HTML should contain table element")
	}
	if !containsString(email.HTML, "balancete.xlsx") {
		t.Error("HTML should contain balancete.xlsx")
	}
	if !containsString(email.Text, "esperadas 100 linhas, encontradas 97") {
		t.Error("email text should detail the count mismatch")
	}
}

func TestRunAuditJob_CleanRun(t *testing.T) {
	mockAuditor := &MockAuditRunner{evaluated: 2}
	mockEmail := &MockEmail{}

	scheduler := NewScheduler(mockAuditor, zap.NewNop(), mockEmail, []string{"ops@coopvale.com.br"})
	scheduler.runAuditJob()

	if mockEmail.count() != 0 {
		t.Errorf("expected 0 emails for a clean audit, got %d", mockEmail.count())
	}
}

func TestRunAuditJob_ScopesRecentImports(t *testing.T) {
	mockAuditor := &MockAuditRunner{}
	mockEmail := &MockEmail{}

	scheduler := NewScheduler(mockAuditor, zap.NewNop(), mockEmail, nil)
	scheduler.AuditWindow = 24 * time.Hour
	scheduler.runAuditJob()

	mockAuditor.mu.Lock()
	defer mockAuditor.mu.Unlock()

	if len(mockAuditor.scopes) != 1 {
		t.Fatalf("expected 1 audit call, got %d", len(mockAuditor.scopes))
	}
	since := mockAuditor.scopes[0].Since
	if since.IsZero() {
		t.Fatal("nightly audit should be scoped by recency")
	}
	if time.Since(since) > 25*time.Hour || time.Since(since) < 23*time.Hour {
		t.Errorf("scope window off: since = %v", since)
	}
}

func TestRunAuditJob_AuditError(t *testing.T) {
	mockAuditor := &MockAuditRunner{auditErr: errors.New("database connection failed")}
	mockEmail := &MockEmail{}

	scheduler := NewScheduler(mockAuditor, zap.NewNop(), mockEmail, []string{"ops@coopvale.com.br"})

	// Should not panic; sends the error alert instead of the report
	scheduler.runAuditJob()

	if mockEmail.count() != 1 {
		t.Fatalf("expected 1 error alert email, got %d", mockEmail.count())
	}

	mockEmail.mu.Lock()
	email := mockEmail.sentEmails[0]
	mockEmail.mu.Unlock()

	if !containsString(email.Subject, "Erro no Scheduler") {
		t.Errorf("unexpected alert subject: %s", email.Subject)
	}
}

func TestSendProblemsEmail_NoRecipients(t *testing.T) {
	mockEmail := &MockEmail{}
	scheduler := NewScheduler(&MockAuditRunner{}, zap.NewNop(), mockEmail, nil)

	scheduler.sendProblemsEmail([]audit.ProblemReport{duplicateProblem()}, 1)

	if mockEmail.count() != 0 {
		t.Errorf("expected 0 emails without recipients, got %d", mockEmail.count())
	}
}

func TestSendProblemsEmail_EmailError(t *testing.T) {
	mockEmail := &MockEmail{sendErr: errors.New("SMTP connection failed")}
	scheduler := NewScheduler(&MockAuditRunner{}, zap.NewNop(), mockEmail, []string{"ops@coopvale.com.br"})

	// Should not panic even if email fails
	scheduler.sendProblemsEmail([]audit.ProblemReport{duplicateProblem()}, 1)

	if mockEmail.count() != 0 {
		t.Errorf("expected 0 successful emails when send fails, got %d", mockEmail.count())
	}
}

// containsString checks if s contains substr
func containsString(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
