package spreadsheet

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Coerce converte o texto cru de uma célula para o tipo canônico declarado.
// Nunca devolve erro: valor inconversível vira célula vazia para que uma
// célula ruim não aborte o lote inteiro.
func Coerce(raw string, dataType DataType) Cell {
	value := strings.TrimSpace(raw)
	if value == "" {
		return EmptyCell()
	}

	switch dataType {
	case TypeInteger:
		return coerceInteger(value)
	case TypeDecimal, TypeCurrency:
		return coerceDecimal(value)
	case TypeDate:
		return coerceDate(value)
	default:
		return TextCell(value)
	}
}

func coerceInteger(value string) Cell {
	cleaned := strings.Builder{}
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '-' {
			cleaned.WriteRune(r)
		}
	}
	n, err := strconv.ParseInt(cleaned.String(), 10, 64)
	if err != nil {
		return EmptyCell()
	}
	return IntegerCell(n)
}

// coerceDecimal aceita os formatos locais ("1.234,56", "R$ 1.234,56") e o
// formato com ponto decimal ("1234.56").
func coerceDecimal(value string) Cell {
	cleaned := integerCleanCurrency(value)
	if cleaned == "" {
		return EmptyCell()
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma:
		// vírgula é o separador decimal; pontos são de milhar
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasDot:
		// sem vírgula: ponto pode ser decimal ("1234.56") ou de milhar
		// ("1.234"); trata como milhar apenas quando o último grupo tem
		// exatamente três dígitos e há mais de um grupo completo
		parts := strings.Split(cleaned, ".")
		last := parts[len(parts)-1]
		if len(parts) > 1 && len(last) == 3 && len(parts[0]) <= 3 {
			allGroups := true
			for _, p := range parts[1:] {
				if len(p) != 3 {
					allGroups = false
					break
				}
			}
			if allGroups {
				cleaned = strings.Join(parts, "")
			}
		}
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return EmptyCell()
	}
	return DecimalCell(f)
}

func integerCleanCurrency(value string) string {
	v := strings.ReplaceAll(value, "R$", "")
	v = strings.ReplaceAll(v, "$", "")
	v = strings.ReplaceAll(v, " ", "")
	v = strings.ReplaceAll(v, " ", "")
	return strings.TrimSpace(v)
}

// excel serial 1 = 1900-01-01, com a base deslocada por conta do bug do ano
// bissexto de 1900 herdado do Lotus
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02/01/06",
	"02-01-2006",
}

// coerceDate materializa sempre em meia-noite UTC para evitar deriva de
// fuso entre gravação e releitura.
func coerceDate(value string) Cell {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return DateCell(atUTCMidnight(t))
		}
	}

	// valor nativo do excel chega como número serial; o teto corta seriais
	// absurdos (acima de ~2118) antes que a multiplicação em Duration estoure
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 && serial < 80000 {
		t := excelEpoch.Add(time.Duration(int64(serial)) * 24 * time.Hour)
		return DateCell(atUTCMidnight(t))
	}

	return EmptyCell()
}

func atUTCMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatCell devolve a representação de preview de uma célula no formato
// local (vírgula decimal, ponto de milhar), estável sob nova coerção.
func FormatCell(c Cell, dataType DataType) string {
	if c.IsEmpty() {
		return ""
	}

	switch dataType {
	case TypeInteger:
		if v, ok := c.AsFloat(); ok {
			return strconv.FormatInt(int64(v), 10)
		}
		return c.AsString()
	case TypeDecimal, TypeCurrency:
		if v, ok := c.AsFloat(); ok {
			return formatDecimalBR(v)
		}
		return c.AsString()
	case TypeDate:
		if c.Kind == KindDate {
			return c.Date.Format("2006-01-02")
		}
		return c.AsString()
	default:
		return c.AsString()
	}
}

func formatDecimalBR(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	dot := strings.Index(s, ".")
	intPart, fracPart := s[:dot], s[dot+1:]

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ".") + "," + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
