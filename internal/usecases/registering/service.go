package registering

import (
	"time"

	"github.com/pkg/errors"
	"github.com/vfg2006/sales-analytics-api/infrastructure/repository"
	"github.com/vfg2006/sales-analytics-api/internal/config"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
	"github.com/vfg2006/sales-analytics-api/pkg/utils"
)

// Erros de validação da entrada de vendas
var (
	ErrMissingProduct = errors.New("nome do produto é obrigatório")
	ErrInvalidAmount  = errors.New("quantidade e preço devem ser positivos")
	ErrInvalidDate    = errors.New("data da venda é inválida")
)

// NewSale é a entrada para registro de uma venda
type NewSale struct {
	Date          time.Time `json:"date"`
	ProductName   string    `json:"product_name"`
	Quantity      float64   `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	TotalAmount   float64   `json:"total_amount"`
	CustomerName  string    `json:"customer_name"`
	Category      string    `json:"category"`
	PaymentMethod string    `json:"payment_method"`
}

// Registrar é o ponto de entrada do registro e consulta de vendas
type Registrar interface {
	RecordSale(userID string, input NewSale) (*domain.SalesRecord, error)
	ListSales(userID string, start, end time.Time) ([]*domain.SalesRecord, error)
}

type Service struct {
	salesRepo repository.SalesRecordRepository
	cfg       *config.Config
}

func NewService(salesRepo repository.SalesRecordRepository, cfg *config.Config) Registrar {
	return &Service{
		salesRepo: salesRepo,
		cfg:       cfg,
	}
}

// RecordSale valida a entrada, gera o ID e persiste a venda. O total é
// derivado de quantidade x preço quando não informado.
func (s *Service) RecordSale(userID string, input NewSale) (*domain.SalesRecord, error) {
	if input.ProductName == "" {
		return nil, ErrMissingProduct
	}
	if input.Quantity <= 0 || input.UnitPrice < 0 {
		return nil, ErrInvalidAmount
	}
	if input.Date.IsZero() {
		return nil, ErrInvalidDate
	}

	id, err := utils.GenerateID()
	if err != nil {
		return nil, errors.Wrap(err, "gerando id da venda")
	}

	totalAmount := input.TotalAmount
	if totalAmount == 0 {
		totalAmount = input.Quantity * input.UnitPrice
	}

	now := time.Now().UTC()
	record := &domain.SalesRecord{
		ID:            id,
		UserID:        userID,
		Date:          input.Date.UTC(),
		ProductName:   input.ProductName,
		Quantity:      input.Quantity,
		UnitPrice:     input.UnitPrice,
		TotalAmount:   utils.RoundWithTwoDecimalPlace(totalAmount),
		CustomerName:  input.CustomerName,
		Category:      input.Category,
		PaymentMethod: input.PaymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.salesRepo.Save(record); err != nil {
		return nil, errors.Wrap(err, "salvando venda")
	}

	return record, nil
}

// ListSales retorna as vendas do período, limitado pelo teto configurado
func (s *Service) ListSales(userID string, start, end time.Time) ([]*domain.SalesRecord, error) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -s.cfg.Analysis.LookbackDays)
	}

	return s.salesRepo.GetByUserAndPeriod(userID, start, end, uint64(s.cfg.Analysis.RecordCap))
}
