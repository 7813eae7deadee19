package email

// Email é o colaborador opaco de entrega de alertas; a geração das mensagens
// acontece no scheduler, a entrega fica atrás desta interface.
type Email interface {
	Send(subject, text, html string, recipients []string) error
}
