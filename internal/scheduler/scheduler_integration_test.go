//go:build integration

package scheduler

import (
	"os"
	"strconv"
	"testing"

	"github.com/coopvale/backoffice/internal/audit"
	"github.com/coopvale/backoffice/internal/email/smtp"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// TestSendRealAlertEmail_Integration sends a real email to verify formatting
// Run with: go test -v -tags=integration ./internal/scheduler/... -run TestSendRealAlertEmail_Integration
//
// Required environment variables:
//   - SMTP_HOST
//   - SMTP_PORT
//   - SMTP_USER
//   - SMTP_PASS
//   - SMTP_FROM
//   - TEST_EMAIL_RECIPIENT (your email to receive the test)
func TestSendRealAlertEmail_Integration(t *testing.T) {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPortStr := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpFrom := os.Getenv("SMTP_FROM")
	recipient := os.Getenv("TEST_EMAIL_RECIPIENT")

	if smtpHost == "" || smtpUser == "" || smtpPass == "" || recipient == "" {
		t.Skip("Skipping integration test: SMTP_HOST, SMTP_USER, SMTP_PASS and TEST_EMAIL_RECIPIENT not set")
	}

	smtpPort, err := strconv.Atoi(smtpPortStr)
	if err != nil {
		smtpPort = 587
	}

	emailClient := smtp.New(smtpFrom, smtpHost, smtpUser, smtpPass, smtpPort)
	logger, _ := zap.NewDevelopment()

	scheduler := &Scheduler{
		logger:          logger,
		email:           emailClient,
		alertRecipients: []string{recipient},
	}

	var importID pgtype.UUID
	_ = importID.Scan("0b211a36-16aa-4b87-9bf5-9f19ad14c6cf")

	problems := []audit.ProblemReport{
		{
			Tipo:         audit.ProblemDuplicado,
			ImportID:     importID,
			Arquivo:      "vendas_julho.xlsx",
			ChaveNatural: "NF-1001|CAFE-500G",
			Ocorrencias:  3,
		},
		{
			Tipo:     audit.ProblemOrfao,
			ImportID: importID,
			Arquivo:  "vendas_julho.xlsx",
		},
		{
			Tipo:       audit.ProblemContagem,
			ImportID:   importID,
			Arquivo:    "contabil_junho.xlsx",
			Esperado:   500,
			Encontrado: 497,
		},
	}

	t.Log("Sending test email to:", recipient)

	scheduler.sendProblemsEmail(problems, 12)

	t.Log("Email sent using scheduler.sendProblemsEmail() - check inbox")
}
