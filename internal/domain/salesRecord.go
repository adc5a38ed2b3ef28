package domain

import (
	"time"
)

// SalesRecord representa uma venda registrada pelo usuário.
// O núcleo de análise apenas lê esses registros; a escrita é feita
// pela camada de entrada de dados (manual ou upload de planilha).
type SalesRecord struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Date          time.Time `json:"date"`
	ProductName   string    `json:"product_name"`
	Quantity      float64   `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	TotalAmount   float64   `json:"total_amount"`
	CustomerName  string    `json:"customer_name"`
	Category      string    `json:"category"`
	PaymentMethod string    `json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DailyAggregate é a série diária derivada dos registros de vendas.
// É efêmera: recalculada a cada chamada e compartilhada entre o detector
// de anomalias e o motor de previsão.
type DailyAggregate struct {
	Date             time.Time `json:"date"`
	Revenue          float64   `json:"revenue"`
	Quantity         float64   `json:"quantity"`
	TransactionCount int       `json:"transaction_count"`
	DayOfWeek        int       `json:"day_of_week"`
	WeekOfYear       int       `json:"week_of_year"`
	DaysSinceStart   int       `json:"days_since_start"`
	RevenueMA7       float64   `json:"revenue_ma_7"`
	RevenueMA14      float64   `json:"revenue_ma_14"`
}
