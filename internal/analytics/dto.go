package analytics

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Filtros delimita o universo de linhas de venda consideradas pelas
// agregações. Campos vazios não restringem.
type Filtros struct {
	Anos     []int    `json:"anos,omitempty"`
	Meses    []int    `json:"meses,omitempty"`
	Marcas   []string `json:"marcas,omitempty"`
	Clientes []string `json:"clientes,omitempty"`
}

// FilterPreset é um conjunto de filtros nomeado e reutilizável.
type FilterPreset struct {
	ID          pgtype.UUID
	Name        string
	Description string
	Filtros     Filtros
	OwnerUserID pgtype.UUID
	CreatedAt   time.Time
}

// SaleRow é a projeção de uma linha importada do domínio de vendas usada
// pelas agregações.
type SaleRow struct {
	Documento string
	Cliente   string
	Marca     string
	Grupo     string
	Subgrupo  string
	Valor     float64
	Data      time.Time
}

// BrandShare é a popularidade global de uma marca: percentual de clientes
// que a compram.
type BrandShare struct {
	Marca      string  `json:"marca"`
	Percentual float64 `json:"percentual"`
}

// Input DTOs

type CreatePresetInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Filtros     Filtros `json:"filtros"`
}

type UpdatePresetInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Filtros     *Filtros `json:"filtros"`
}

// QueryInput escolhe entre um preset salvo e filtros ad-hoc.
type QueryInput struct {
	PresetID string  `json:"presetId" query:"presetId"`
	Filtros  Filtros `json:"filtros"`
}

// Output DTOs

type PresetOutput struct {
	ID          pgtype.UUID `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Filtros     Filtros     `json:"filtros"`
	CreatedAt   time.Time   `json:"created_at"`
}

func toPresetOutput(p FilterPreset) *PresetOutput {
	return &PresetOutput{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Filtros:     p.Filtros,
		CreatedAt:   p.CreatedAt,
	}
}

// ParcelaReceita é um total com participação percentual na receita.
type ParcelaReceita struct {
	Nome              string  `json:"nome"`
	Total             float64 `json:"total"`
	PercentualReceita float64 `json:"percentualReceita"`
}

// CrossSellCandidate é uma marca globalmente popular que o cliente ainda
// não compra.
type CrossSellCandidate struct {
	Marca         string  `json:"marca"`
	Popularidade  float64 `json:"popularidade"`
	Probabilidade string  `json:"probabilidade"`
}

// ComportamentoCliente é o perfil computado de um cliente; nunca é
// persistido, vive só na resposta (e no cache de curta duração).
type ComportamentoCliente struct {
	Cliente         string               `json:"cliente"`
	ReceitaTotal    float64              `json:"receitaTotal"`
	Marcas          []ParcelaReceita     `json:"marcas"`
	Grupos          []ParcelaReceita     `json:"grupos"`
	Subgrupos       []ParcelaReceita     `json:"subgrupos"`
	MesesDistintos  int                  `json:"mesesDistintos"`
	Frequencia      string               `json:"frequencia"`
	MediaMensal     float64              `json:"mediaMensal"`
	Sazonalidade    string               `json:"sazonalidade"`
	CoeficienteVar  float64              `json:"coeficienteVariacao"`
	Tendencia       string               `json:"tendencia"`
	LTV             float64              `json:"ltv"`
	CrossSell       []CrossSellCandidate `json:"crossSell"`
}

// MesReceita é a receita consolidada de um mês (formato AAAA-MM).
type MesReceita struct {
	Mes     string  `json:"mes"`
	Receita float64 `json:"receita"`
}

// MetricasFinanceiras é o resumo financeiro do universo filtrado.
type MetricasFinanceiras struct {
	ReceitaTotal float64          `json:"receitaTotal"`
	PorMes       []MesReceita     `json:"porMes"`
	TicketMedio  float64          `json:"ticketMedio"`
	TopClientes  []ParcelaReceita `json:"topClientes"`
	TopMarcas    []ParcelaReceita `json:"topMarcas"`
}
