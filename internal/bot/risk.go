package bot

import (
	"github.com/shopspring/decimal"

	"kitrader/internal/config"
)

// RiskValidator - валидатор риска перед открытием позиции
//
// Чистая проверка над снимком входных данных: валидатор ничего не
// читает из БД и ничего не мутирует. Все данные собирает движок и
// передает в RiskInput.
//
// Проверки выполняются строго по порядку, возвращается первая
// непройденная причина:
//  1. Экспозиция на токен: открытый размер по токену + новый размер
//     не должен превышать PerTokenExposureCap от капитала кошелька.
//  2. Суммарная экспозиция: весь открытый размер + новый размер не
//     должен превышать TotalExposureCap от капитала.
//  3. Концентрация направления: меньше MaxPerDirection открытых
//     позиций того же направления.
//  4. Волатильность: (max-min)/min по окну последних сэмплов не выше
//     MaxVolatility. Меньше двух сэмплов - проверка проходит.
type RiskValidator struct {
	cfg config.TradingConfig
}

// NewRiskValidator создает валидатор с заданными лимитами
func NewRiskValidator(cfg config.TradingConfig) *RiskValidator {
	return &RiskValidator{cfg: cfg}
}

// RiskInput - снимок данных для проверки риска
type RiskInput struct {
	// Размер новой позиции (SOL)
	Size decimal.Decimal

	// Направление новой позиции (long/short)
	Type string

	// Капитал кошелька: balance + locked
	WalletTotal decimal.Decimal

	// Суммарный размер открытых позиций пользователя по токену
	TokenOpenSize decimal.Decimal

	// Суммарный размер всех открытых позиций пользователя
	TotalOpenSize decimal.Decimal

	// Количество открытых позиций того же направления
	DirectionCount int

	// Последние сэмплы цены токена (окно волатильности)
	PriceWindow []decimal.Decimal
}

// Validate выполняет проверки по порядку.
// Возвращает (true, "") если все прошли, иначе (false, причина).
func (v *RiskValidator) Validate(in RiskInput) (bool, string) {
	// Пустой кошелек: лимит на токен равен нулю, первая же
	// проверка экспозиции не проходит
	if !in.WalletTotal.IsPositive() {
		return false, RiskReasonTokenExposure
	}

	perTokenCap := in.WalletTotal.Mul(decimal.NewFromFloat(v.cfg.PerTokenExposureCap))
	if in.TokenOpenSize.Add(in.Size).GreaterThan(perTokenCap) {
		return false, RiskReasonTokenExposure
	}

	totalCap := in.WalletTotal.Mul(decimal.NewFromFloat(v.cfg.TotalExposureCap))
	if in.TotalOpenSize.Add(in.Size).GreaterThan(totalCap) {
		return false, RiskReasonTotalExposure
	}

	if in.DirectionCount >= v.cfg.MaxPerDirection {
		return false, DirectionLimitReason(in.Type)
	}

	if !v.volatilityOK(in.PriceWindow) {
		return false, RiskReasonVolatility
	}

	return true, ""
}

// volatilityOK проверяет размах цены в окне: (max-min)/min <= MaxVolatility
func (v *RiskValidator) volatilityOK(window []decimal.Decimal) bool {
	if len(window) < 2 {
		// Недостаточно истории - не блокируем торговлю
		return true
	}

	min, max := window[0], window[0]
	for _, p := range window[1:] {
		if p.LessThan(min) {
			min = p
		}
		if p.GreaterThan(max) {
			max = p
		}
	}

	if !min.IsPositive() {
		return false
	}

	ratio := max.Sub(min).Div(min)
	return ratio.LessThanOrEqual(decimal.NewFromFloat(v.cfg.MaxVolatility))
}
