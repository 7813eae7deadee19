package yield

import (
	"context"
	"runtime"
)

// Yielder marca os pontos de suspensão cooperativa dentro de laços longos
// (parse de planilhas grandes, agregações sobre milhares de linhas). O
// algoritmo chama Yield a cada lote e a implementação decide se devolve o
// processador ou não.
type Yielder interface {
	Yield(ctx context.Context) error
}

type cooperative struct{}

// Cooperative devolve o processador ao runtime a cada chamada e interrompe o
// laço se o contexto já foi cancelado.
func Cooperative() Yielder {
	return cooperative{}
}

func (cooperative) Yield(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runtime.Gosched()
	return nil
}

type nop struct{}

// Nop nunca cede o processador; usado em testes e em execuções síncronas
// curtas onde o custo do yield não se justifica.
func Nop() Yielder {
	return nop{}
}

func (nop) Yield(ctx context.Context) error {
	return ctx.Err()
}

// Every envolve outro Yielder e só repassa a chamada a cada n invocações,
// definindo a cadência de yield de um laço sem espalhar contadores pelo
// código chamador.
type Every struct {
	N     int
	Inner Yielder
	count int
}

func NewEvery(n int, inner Yielder) *Every {
	if n <= 0 {
		n = 1
	}
	return &Every{N: n, Inner: inner}
}

func (e *Every) Yield(ctx context.Context) error {
	e.count++
	if e.count%e.N != 0 {
		return ctx.Err()
	}
	return e.Inner.Yield(ctx)
}
