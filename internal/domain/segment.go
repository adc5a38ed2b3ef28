package domain

// CustomerSegment classifica clientes por comportamento de compra
type CustomerSegment string

const (
	SegmentVIP     CustomerSegment = "vip"
	SegmentLoyal   CustomerSegment = "loyal"
	SegmentRegular CustomerSegment = "regular"
	SegmentNew     CustomerSegment = "new"
	SegmentAtRisk  CustomerSegment = "at_risk"
	SegmentDormant CustomerSegment = "dormant"
)

// ProductTier classifica produtos pela matriz receita x frequência
type ProductTier string

const (
	TierStar      ProductTier = "star"      // alta receita, alta frequência
	TierCashCow   ProductTier = "cash_cow"  // alta receita, baixa frequência
	TierPotential ProductTier = "potential" // baixa receita, alta frequência
	TierDog       ProductTier = "dog"       // baixa receita, baixa frequência
)

// CustomerInsight é o resultado da segmentação de um cliente
type CustomerInsight struct {
	CustomerName    string          `json:"customer_name"`
	Segment         CustomerSegment `json:"segment"`
	TotalRevenue    float64         `json:"total_revenue"`
	PurchaseCount   int             `json:"purchase_count"`
	AvgOrderValue   float64         `json:"avg_order_value"`
	LastPurchaseDays int            `json:"last_purchase_days"`
	ChurnRisk       float64         `json:"churn_risk"`
	Recommendations []string        `json:"recommendations"`
}

// ProductInsight é o resultado da classificação de um produto
type ProductInsight struct {
	ProductName     string      `json:"product_name"`
	Tier            ProductTier `json:"tier"`
	TotalRevenue    float64     `json:"total_revenue"`
	SalesCount      int         `json:"sales_count"`
	RevenueShare    float64     `json:"revenue_share"`
	GrowthRate      float64     `json:"growth_rate"`
	Recommendations []string    `json:"recommendations"`
}

// SegmentationReport agrega a inteligência de clientes e produtos
type SegmentationReport struct {
	TotalCustomers  int               `json:"total_customers"`
	TotalProducts   int               `json:"total_products"`
	SegmentCounts   map[string]int    `json:"segment_counts"`
	TierCounts      map[string]int    `json:"tier_counts"`
	TopCustomers    []CustomerInsight `json:"top_customers"`
	TopProducts     []ProductInsight  `json:"top_products"`
	Insights        []string          `json:"insights"`
}
