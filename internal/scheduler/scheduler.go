package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/coopvale/backoffice/internal/audit"
	"github.com/coopvale/backoffice/internal/email"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AuditRunner defines the interface for running the import audit pass
type AuditRunner interface {
	Audit(ctx context.Context, scope audit.Scope) ([]audit.ProblemReport, int, error)
}

type Scheduler struct {
	cron            *cron.Cron
	auditor         AuditRunner
	logger          *zap.Logger
	email           email.Email
	alertRecipients []string

	// AuditWindow limita a auditoria noturna às importações tocadas nesse
	// intervalo; a varredura completa fica para execução manual via rota.
	AuditWindow time.Duration
}

func NewScheduler(auditor AuditRunner, logger *zap.Logger, e email.Email, alertRecipients []string) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithSeconds()),
		auditor:         auditor,
		logger:          logger,
		email:           e,
		alertRecipients: alertRecipients,
		AuditWindow:     7 * 24 * time.Hour,
	}
}

// Start initializes the scheduler with the nightly audit job
// cronExpr uses 6 fields: seconds, minutes, hours, day of month, month, day of week
// Example: "0 0 3 * * *" runs at 3:00 AM every day
func (s *Scheduler) Start(cronExpr string) error {
	_, err := s.cron.AddFunc(cronExpr, s.runAuditJob)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("cron_expression", cronExpr))

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping scheduler")
	return s.cron.Stop()
}

// runAuditJob audits recent imports and emails the report when anomalies show up
func (s *Scheduler) runAuditJob() {
	s.logger.Info("starting import audit job")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	scope := audit.Scope{Since: time.Now().Add(-s.AuditWindow)}

	problems, evaluated, err := s.auditor.Audit(ctx, scope)
	if err != nil {
		s.notifyError("falha ao executar auditoria de importações", err)
		return
	}

	duration := time.Since(startTime)
	s.logger.Info("import audit job completed",
		zap.Int("importacoes", evaluated),
		zap.Int("problemas", len(problems)),
		zap.Duration("duration", duration),
	)

	if len(problems) > 0 {
		s.sendProblemsEmail(problems, evaluated)
	}
}

// RunNow executes the audit job immediately (for manual triggers)
func (s *Scheduler) RunNow() {
	go s.runAuditJob()
}

// sendProblemsEmail sends an email notification listing every anomaly found
func (s *Scheduler) sendProblemsEmail(problems []audit.ProblemReport, evaluated int) {
	if len(problems) == 0 {
		return
	}

	if len(s.alertRecipients) == 0 {
		s.logger.Warn("no email recipients configured, skipping audit notification",
			zap.Int("problems_count", len(problems)),
		)
		return
	}

	subject := "Anomalias detectadas na auditoria de importações"

	textBuilder := fmt.Sprintf("A auditoria avaliou %d importações e encontrou %d problemas:\n\n", evaluated, len(problems))
	for _, p := range problems {
		textBuilder += "Arquivo: " + p.Arquivo + "\n"
		textBuilder += "  Tipo: " + p.Tipo + "\n"
		textBuilder += "  " + problemDetail(p) + "\n\n"
	}

	htmlBuilder := `<!DOCTYPE html>
<html>
<head>
	<style>
		body { font-family: Arial, sans-serif; }
		table { border-collapse: collapse; width: 100%; margin-top: 20px; }
		th, td { border: 1px solid #ddd; padding: 12px; text-align: left; }
		th { background-color: #4CAF50; color: white; }
		tr:nth-child(even) { background-color: #f2f2f2; }
		h2 { color: #333; }
	</style>
</head>
<body>
	<h2>Anomalias na Auditoria de Importações</h2>
	<p>As importações abaixo apresentaram problemas:</p>
	<table>
		<tr>
			<th>Arquivo</th>
			<th>Tipo</th>
			<th>Detalhe</th>
		</tr>`

	for _, p := range problems {
		htmlBuilder += "<tr>"
		htmlBuilder += "<td>" + p.Arquivo + "</td>"
		htmlBuilder += "<td>" + p.Tipo + "</td>"
		htmlBuilder += "<td>" + problemDetail(p) + "</td>"
		htmlBuilder += "</tr>"
	}

	htmlBuilder += `
	</table>
</body>
</html>`

	if err := s.email.Send(subject, textBuilder, htmlBuilder, s.alertRecipients); err != nil {
		s.logger.Error("failed to send audit notification email",
			zap.Error(err),
			zap.Int("problems_count", len(problems)),
		)
		return
	}

	s.logger.Info("audit notification email sent",
		zap.Int("problems_count", len(problems)),
		zap.Int("recipients_count", len(s.alertRecipients)),
	)
}

func problemDetail(p audit.ProblemReport) string {
	switch p.Tipo {
	case audit.ProblemDuplicado:
		return fmt.Sprintf("chave %s com %d ocorrências", p.ChaveNatural, p.Ocorrencias)
	case audit.ProblemOrfao:
		return fmt.Sprintf("%d linhas órfãs de reprocessamento anterior", p.Ocorrencias)
	case audit.ProblemContagem:
		return fmt.Sprintf("esperadas %d linhas, encontradas %d", p.Esperado, p.Encontrado)
	}
	return ""
}

// notifyError logs the error and sends an email notification to alert recipients
func (s *Scheduler) notifyError(context string, err error) {
	s.logger.Error(context, zap.Error(err))

	if len(s.alertRecipients) == 0 {
		return
	}

	subject := "⚠️ Erro no Scheduler - " + context
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	textBody := fmt.Sprintf("Contexto: %s\nErro: %v\nHorário: %s", context, err, timestamp)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<style>
		body { font-family: Arial, sans-serif; }
		.error-box { background-color: #ffebee; border-left: 4px solid #f44336; padding: 16px; margin: 20px 0; }
		.label { font-weight: bold; color: #333; }
		.value { color: #666; }
	</style>
</head>
<body>
	<h2 style="color: #f44336;">⚠️ Erro no Scheduler</h2>
	<div class="error-box">
		<p><span class="label">Contexto:</span> <span class="value">%s</span></p>
		<p><span class="label">Erro:</span> <span class="value">%v</span></p>
		<p><span class="label">Horário:</span> <span class="value">%s</span></p>
	</div>
</body>
</html>`, context, err, timestamp)

	if sendErr := s.email.Send(subject, textBody, htmlBody, s.alertRecipients); sendErr != nil {
		s.logger.Error("failed to send error notification email",
			zap.Error(sendErr),
			zap.String("original_error_context", context),
		)
	}
}
