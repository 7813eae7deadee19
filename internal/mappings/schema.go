package mappings

import "github.com/coopvale/backoffice/internal/spreadsheet"

// Domínios de importação suportados. O domínio decide quais campos canônicos
// compõem a chave natural das linhas.
const (
	DominioVendas   = "vendas"
	DominioContabil = "contabil"
)

// CanonicalFields declara o conjunto fixo de campos canônicos e seus tipos.
// A coerção do engine e a montagem da chave natural trabalham apenas sobre
// esses campos.
var CanonicalFields = map[string]spreadsheet.DataType{
	"classificacao": spreadsheet.TypeText,
	"conta":         spreadsheet.TypeText,
	"subconta":      spreadsheet.TypeText,
	"documento":     spreadsheet.TypeText,
	"produto":       spreadsheet.TypeText,
	"cliente":       spreadsheet.TypeText,
	"marca":         spreadsheet.TypeText,
	"grupo":         spreadsheet.TypeText,
	"subgrupo":      spreadsheet.TypeText,
	"quantidade":    spreadsheet.TypeInteger,
	"valor":         spreadsheet.TypeCurrency,
	"data":          spreadsheet.TypeDate,
}

// naturalKeyFields lista, em ordem, os campos que formam a chave natural de
// cada domínio.
var naturalKeyFields = map[string][]string{
	DominioVendas:   {"documento", "produto"},
	DominioContabil: {"classificacao", "conta", "subconta"},
}

// NaturalKeyFields devolve os campos da chave natural do domínio, em ordem.
// Domínio desconhecido devolve nil; o service valida antes de persistir.
func NaturalKeyFields(dominio string) []string {
	return naturalKeyFields[dominio]
}

// IsCanonicalField informa se o nome é um campo canônico conhecido.
func IsCanonicalField(name string) bool {
	_, ok := CanonicalFields[name]
	return ok
}
