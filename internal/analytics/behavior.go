package analytics

import (
	"context"
	"math"
	"sort"

	"github.com/coopvale/backoffice/pkg/yield"
	"go.uber.org/zap"
)

// Classes de frequência, sazonalidade e tendência.
const (
	FreqAlta  = "alta"
	FreqMedia = "media"
	FreqBaixa = "baixa"

	TendenciaCrescendo = "crescendo"
	TendenciaCaindo    = "caindo"
	TendenciaEstavel   = "estavel"

	ProbAlta  = "alta"
	ProbMedia = "media"
	ProbBaixa = "baixa"
)

// Analyzer computa perfis de comportamento a partir das linhas de venda já
// buscadas. O agrupamento roda em lotes limitados com yield cooperativo entre
// eles para não monopolizar o processo durante agregações grandes.
type Analyzer struct {
	yielder yield.Yielder
	logger  *zap.Logger

	RowBatch      int
	CustomerBatch int
}

func NewAnalyzer(logger *zap.Logger) *Analyzer {
	return &Analyzer{
		yielder:       yield.Cooperative(),
		logger:        logger,
		RowBatch:      1000,
		CustomerBatch: 10,
	}
}

func (a *Analyzer) WithYielder(y yield.Yielder) *Analyzer {
	a.yielder = y
	return a
}

// BehaviorProfiles agrupa as linhas por cliente e computa o perfil de cada
// um. Saída ordenada por nome de cliente.
func (a *Analyzer) BehaviorProfiles(ctx context.Context, rows []SaleRow, popularity []BrandShare) ([]ComportamentoCliente, error) {
	grouped, err := a.groupByCustomer(ctx, rows)
	if err != nil {
		return nil, err
	}

	customers := make([]string, 0, len(grouped))
	for c := range grouped {
		customers = append(customers, c)
	}
	sort.Strings(customers)

	profiles := make([]ComportamentoCliente, 0, len(customers))
	for i, customer := range customers {
		if i%a.CustomerBatch == 0 {
			if err := a.yielder.Yield(ctx); err != nil {
				return nil, err
			}
		}
		profiles = append(profiles, a.profile(customer, grouped[customer], popularity))
	}
	return profiles, nil
}

func (a *Analyzer) groupByCustomer(ctx context.Context, rows []SaleRow) (map[string][]SaleRow, error) {
	grouped := make(map[string][]SaleRow)
	for i, row := range rows {
		if i%a.RowBatch == 0 {
			if err := a.yielder.Yield(ctx); err != nil {
				return nil, err
			}
		}
		if row.Cliente == "" {
			continue
		}
		grouped[row.Cliente] = append(grouped[row.Cliente], row)
	}
	return grouped, nil
}

func (a *Analyzer) profile(customer string, rows []SaleRow, popularity []BrandShare) ComportamentoCliente {
	var receitaTotal float64
	porMarca := make(map[string]float64)
	porGrupo := make(map[string]float64)
	porSubgrupo := make(map[string]float64)
	porMes := make(map[string]float64)

	for _, row := range rows {
		receitaTotal += row.Valor
		if row.Marca != "" {
			porMarca[row.Marca] += row.Valor
		}
		if row.Grupo != "" {
			porGrupo[row.Grupo] += row.Valor
		}
		if row.Subgrupo != "" {
			porSubgrupo[row.Subgrupo] += row.Valor
		}
		if !row.Data.IsZero() {
			porMes[row.Data.Format("2006-01")] += row.Valor
		}
	}

	mesesDistintos := len(porMes)
	mediaMensal := safeDiv(receitaTotal, float64(mesesDistintos))
	cv := coefficientOfVariation(porMes, mediaMensal)

	return ComportamentoCliente{
		Cliente:        customer,
		ReceitaTotal:   receitaTotal,
		Marcas:         toParcelas(porMarca, receitaTotal),
		Grupos:         toParcelas(porGrupo, receitaTotal),
		Subgrupos:      toParcelas(porSubgrupo, receitaTotal),
		MesesDistintos: mesesDistintos,
		Frequencia:     frequencyClass(mesesDistintos),
		MediaMensal:    mediaMensal,
		Sazonalidade:   seasonalityClass(cv),
		CoeficienteVar: cv,
		Tendencia:      trend(porMes),
		LTV:            ltv(mediaMensal, mesesDistintos),
		CrossSell:      crossSell(porMarca, popularity),
	}
}

// toParcelas converte os totais em parcelas ordenadas por receita, da maior
// para a menor (desempate alfabético para saída determinística).
func toParcelas(totals map[string]float64, receitaTotal float64) []ParcelaReceita {
	parcelas := make([]ParcelaReceita, 0, len(totals))
	for nome, total := range totals {
		parcelas = append(parcelas, ParcelaReceita{
			Nome:              nome,
			Total:             total,
			PercentualReceita: safeDiv(total, receitaTotal) * 100,
		})
	}
	sort.Slice(parcelas, func(i, j int) bool {
		if parcelas[i].Total != parcelas[j].Total {
			return parcelas[i].Total > parcelas[j].Total
		}
		return parcelas[i].Nome < parcelas[j].Nome
	})
	return parcelas
}

func frequencyClass(mesesDistintos int) string {
	switch {
	case mesesDistintos >= 6:
		return FreqAlta
	case mesesDistintos >= 3:
		return FreqMedia
	default:
		return FreqBaixa
	}
}

// coefficientOfVariation devolve σ/μ da receita mensal, em percentual.
func coefficientOfVariation(porMes map[string]float64, media float64) float64 {
	if len(porMes) == 0 || media == 0 {
		return 0
	}
	var sumSquares float64
	for _, v := range porMes {
		d := v - media
		sumSquares += d * d
	}
	sigma := math.Sqrt(sumSquares / float64(len(porMes)))
	return safeDiv(sigma, media) * 100
}

func seasonalityClass(cv float64) string {
	switch {
	case cv > 50:
		return FreqAlta
	case cv > 25:
		return FreqMedia
	default:
		return FreqBaixa
	}
}

// trend divide o histórico mensal ao meio e compara as somas: acima de +5%
// crescendo, abaixo de -5% caindo, senão estável.
func trend(porMes map[string]float64) string {
	if len(porMes) < 2 {
		return TendenciaEstavel
	}

	months := make([]string, 0, len(porMes))
	for m := range porMes {
		months = append(months, m)
	}
	sort.Strings(months)

	half := len(months) / 2
	var first, second float64
	for _, m := range months[:half] {
		first += porMes[m]
	}
	for _, m := range months[half:] {
		second += porMes[m]
	}

	if first == 0 {
		if second > 0 {
			return TendenciaCrescendo
		}
		return TendenciaEstavel
	}

	variation := (second - first) / first * 100
	switch {
	case variation > 5:
		return TendenciaCrescendo
	case variation < -5:
		return TendenciaCaindo
	default:
		return TendenciaEstavel
	}
}

// ltv projeta o valor anual: média mensal * 12 * fator de frequência,
// limitado a 2.
func ltv(mediaMensal float64, mesesDistintos int) float64 {
	fator := math.Min(float64(mesesDistintos)*1.2, 2)
	return mediaMensal * 12 * fator
}

// crossSell devolve as até 5 marcas globalmente mais populares que o cliente
// ainda não compra, com faixa de probabilidade derivada da popularidade.
func crossSell(porMarca map[string]float64, popularity []BrandShare) []CrossSellCandidate {
	ranked := make([]BrandShare, len(popularity))
	copy(ranked, popularity)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Percentual != ranked[j].Percentual {
			return ranked[i].Percentual > ranked[j].Percentual
		}
		return ranked[i].Marca < ranked[j].Marca
	})

	candidates := []CrossSellCandidate{}
	for _, share := range ranked {
		if len(candidates) == 5 {
			break
		}
		if _, buys := porMarca[share.Marca]; buys {
			continue
		}
		candidates = append(candidates, CrossSellCandidate{
			Marca:         share.Marca,
			Popularidade:  share.Percentual,
			Probabilidade: probabilityBucket(share.Percentual),
		})
	}
	return candidates
}

func probabilityBucket(popularidade float64) string {
	switch {
	case popularidade >= 50:
		return ProbAlta
	case popularidade >= 20:
		return ProbMedia
	default:
		return ProbBaixa
	}
}

// safeDiv evita NaN/Inf: denominador zero devolve 0.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
