package fees

import (
	"github.com/shopspring/decimal"
)

// ==================== Etsy 费率常量 ====================

var (
	// ListingFeePerUnit 每件上架费 $0.20
	ListingFeePerUnit = decimal.RequireFromString("0.20")
	// TransactionFeeRate 交易佣金 6.5%
	TransactionFeeRate = decimal.RequireFromString("0.065")
	// ProcessingFeeRate 支付处理费 3%
	ProcessingFeeRate = decimal.RequireFromString("0.03")
	// ProcessingFeeFixed 支付处理固定费 $0.25
	ProcessingFeeFixed = decimal.RequireFromString("0.25")

	hundred = decimal.NewFromInt(100)
)

// Fees 单笔费用拆分
type Fees struct {
	ListingFee     float64 `json:"listing_fee"`
	TransactionFee float64 `json:"transaction_fee"`
	ProcessingFee  float64 `json:"processing_fee"`
	TotalFees      float64 `json:"total_fees"`
}

// Revenue 收入与利润
type Revenue struct {
	GrossRevenue float64 `json:"gross_revenue"`
	Fees         Fees    `json:"fees"`
	NetRevenue   float64 `json:"net_revenue"`
	Profit       float64 `json:"profit"`
	Margin       float64 `json:"margin"`
}

// ComputeFees 计算商品费用
// quantity 的默认值（0 -> 1）由调用方负责，这里不做修正
func ComputeFees(price float64, quantity int, discount float64) Fees {
	subtotal := decimal.NewFromFloat(price).
		Mul(decimal.NewFromInt(int64(quantity))).
		Sub(decimal.NewFromFloat(discount))
	return feesFor(subtotal, quantity).toFloat()
}

// ComputeOrderFees 按订单小计计算费用
// lineCount 为交易行数，每行收取一次上架费
func ComputeOrderFees(subtotal float64, lineCount int) Fees {
	return feesFor(decimal.NewFromFloat(subtotal), lineCount).toFloat()
}

// ComputeNetRevenue 计算净收入、利润与利润率
func ComputeNetRevenue(price float64, quantity int, shipping, cost, discount float64) Revenue {
	gross := clamp(decimal.NewFromFloat(price).
		Mul(decimal.NewFromInt(int64(quantity))).
		Add(decimal.NewFromFloat(shipping)).
		Sub(decimal.NewFromFloat(discount)))

	subtotal := decimal.NewFromFloat(price).
		Mul(decimal.NewFromInt(int64(quantity))).
		Sub(decimal.NewFromFloat(discount))
	f := feesFor(subtotal, quantity)

	net := gross.Sub(f.total)
	profit := net.Sub(decimal.NewFromFloat(cost))

	margin := decimal.Zero
	if gross.IsPositive() {
		margin = profit.Div(gross).Mul(hundred)
	}

	return Revenue{
		GrossRevenue: gross.InexactFloat64(),
		Fees:         f.toFloat(),
		NetRevenue:   net.InexactFloat64(),
		Profit:       profit.InexactFloat64(),
		Margin:       margin.InexactFloat64(),
	}
}

// ==================== 内部计算 ====================

type feeBreakdown struct {
	listing     decimal.Decimal
	transaction decimal.Decimal
	processing  decimal.Decimal
	total       decimal.Decimal
}

// feesFor 费用核心公式，负数小计按 0 处理
func feesFor(subtotal decimal.Decimal, units int) feeBreakdown {
	effective := clamp(subtotal)

	listing := clamp(ListingFeePerUnit.Mul(decimal.NewFromInt(int64(units))))
	transaction := effective.Mul(TransactionFeeRate)
	processing := decimal.Zero
	if effective.IsPositive() {
		processing = effective.Mul(ProcessingFeeRate).Add(ProcessingFeeFixed)
	}

	return feeBreakdown{
		listing:     listing,
		transaction: transaction,
		processing:  processing,
		total:       listing.Add(transaction).Add(processing),
	}
}

func (b feeBreakdown) toFloat() Fees {
	return Fees{
		ListingFee:     b.listing.InexactFloat64(),
		TransactionFee: b.transaction.InexactFloat64(),
		ProcessingFee:  b.processing.InexactFloat64(),
		TotalFees:      b.total.InexactFloat64(),
	}
}

func clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
