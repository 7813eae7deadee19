package audit

import (
	"context"
	"sort"
	"time"

	"github.com/coopvale/backoffice/internal/imports"
	"github.com/coopvale/backoffice/pkg/yield"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// Store dá à auditoria acesso de leitura aos logs e às linhas importadas.
type Store interface {
	ListLogs(ctx context.Context, scope Scope) ([]imports.ImportLog, error)
	ListRowStubs(ctx context.Context, importID pgtype.UUID) ([]RowStub, error)
}

// Auditor varre importações persistidas atrás de três anomalias: chaves
// naturais duplicadas que sobreviveram a um reprocessamento, linhas órfãs de
// reprocessamentos anteriores e divergência entre o total esperado e o
// persistido. Passo de diagnóstico apenas; nunca altera dados.
type Auditor struct {
	store   Store
	yielder yield.Yielder
	logger  *zap.Logger

	// OrphanWindow: linha criada antes de (updated_at do log - janela) é
	// tratada como sobra provável de um reprocessamento. Heurística, não
	// garantia; por isso o relatório aponta em vez de apagar.
	OrphanWindow time.Duration
}

func NewAuditor(store Store, logger *zap.Logger) *Auditor {
	return &Auditor{
		store:        store,
		yielder:      yield.Cooperative(),
		logger:       logger,
		OrphanWindow: time.Hour,
	}
}

func (a *Auditor) WithYielder(y yield.Yielder) *Auditor {
	a.yielder = y
	return a
}

func (a *Auditor) Audit(ctx context.Context, scope Scope) ([]ProblemReport, int, error) {
	logs, err := a.store.ListLogs(ctx, scope)
	if err != nil {
		return nil, 0, err
	}

	reports := []ProblemReport{}
	for _, log := range logs {
		if err := a.yielder.Yield(ctx); err != nil {
			return nil, 0, err
		}

		stubs, err := a.store.ListRowStubs(ctx, log.ID)
		if err != nil {
			return nil, 0, err
		}

		reports = append(reports, a.auditLog(log, stubs)...)
	}

	a.logger.Info("auditoria concluída",
		zap.Int("importacoes", len(logs)),
		zap.Int("problemas", len(reports)),
	)
	return reports, len(logs), nil
}

func (a *Auditor) auditLog(log imports.ImportLog, stubs []RowStub) []ProblemReport {
	var reports []ProblemReport

	// agrupa por chave natural preservando a ordem de primeira aparição,
	// para que o relatório seja determinístico
	groups := make(map[string][]RowStub, len(stubs))
	order := make([]string, 0, len(stubs))
	for _, stub := range stubs {
		if _, seen := groups[stub.ChaveNatural]; !seen {
			order = append(order, stub.ChaveNatural)
		}
		groups[stub.ChaveNatural] = append(groups[stub.ChaveNatural], stub)
	}

	for _, key := range order {
		members := groups[key]
		if len(members) <= 1 {
			continue
		}
		// mais antiga primeiro: é a candidata natural a sobreviver na limpeza
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].CreatedAt.Before(members[j].CreatedAt)
		})
		reports = append(reports, ProblemReport{
			Tipo:         ProblemDuplicado,
			ImportID:     log.ID,
			Arquivo:      log.Arquivo,
			ChaveNatural: key,
			Ocorrencias:  len(members),
			LinhaIDs:     stubIDs(members),
			CriadasEm:    stubTimes(members),
		})
	}

	if orphans := a.findOrphans(log, stubs); len(orphans) > 0 {
		reports = append(reports, ProblemReport{
			Tipo:        ProblemOrfao,
			ImportID:    log.ID,
			Arquivo:     log.Arquivo,
			Ocorrencias: len(orphans),
			LinhaIDs:    stubIDs(orphans),
			CriadasEm:   stubTimes(orphans),
		})
	}

	if log.TotalLinhas != len(stubs) {
		reports = append(reports, ProblemReport{
			Tipo:       ProblemContagem,
			ImportID:   log.ID,
			Arquivo:    log.Arquivo,
			Esperado:   log.TotalLinhas,
			Encontrado: len(stubs),
		})
	}

	return reports
}

func (a *Auditor) findOrphans(log imports.ImportLog, stubs []RowStub) []RowStub {
	cutoff := log.UpdatedAt.Add(-a.OrphanWindow)
	var orphans []RowStub
	for _, stub := range stubs {
		if stub.CreatedAt.Before(cutoff) {
			orphans = append(orphans, stub)
		}
	}
	sort.SliceStable(orphans, func(i, j int) bool {
		return orphans[i].CreatedAt.Before(orphans[j].CreatedAt)
	})
	return orphans
}

func stubIDs(stubs []RowStub) []pgtype.UUID {
	ids := make([]pgtype.UUID, 0, len(stubs))
	for _, s := range stubs {
		ids = append(ids, s.ID)
	}
	return ids
}

func stubTimes(stubs []RowStub) []time.Time {
	times := make([]time.Time, 0, len(stubs))
	for _, s := range stubs {
		times = append(times, s.CreatedAt)
	}
	return times
}
