package domain

import (
	"errors"
	"fmt"
)

// InsufficientDataError indica que há menos pontos do que o mínimo exigido
// por um detector ou método. É recuperável e distinto de um resultado vazio:
// o chamador deve pedir mais dados em vez de reportar "tudo saudável".
type InsufficientDataError struct {
	Operation string
	Needed    int
	Got       int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("dados insuficientes para %s: necessário %d, encontrado %d", e.Operation, e.Needed, e.Got)
}

// NewInsufficientDataError cria o erro tipado de dados insuficientes
func NewInsufficientDataError(operation string, needed, got int) error {
	return &InsufficientDataError{Operation: operation, Needed: needed, Got: got}
}

// IsInsufficientData verifica se o erro (ou sua cadeia) é de dados insuficientes
func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}

// ErrAnalysisFailed é o único erro agregado do pipeline: todos os
// sub-detectores ou todos os métodos de previsão falharam. Preserva a
// distinção de três vias (saudável / dados insuficientes / quebrado).
var ErrAnalysisFailed = errors.New("todos os métodos de análise falharam")

// ErrAnomalyNotFound indica que a anomalia pedida não existe para o usuário
var ErrAnomalyNotFound = errors.New("anomalia não encontrada")
