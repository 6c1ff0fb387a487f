package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"api_pos/internal/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service coordinates sale creation and reversal on a Storage backend.
type Service struct {
	storage  Storage
	verifier CredentialVerifier
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a new Service. A nil notifier disables sale notifications.
func NewService(storage Storage, verifier CredentialVerifier, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	return &Service{
		storage:  storage,
		verifier: verifier,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateSale registers a sale as a single all-or-nothing unit of work: stock check,
// sale and items, optional credit, ledger income, stock decrement and visit link.
// The notification is sent only after the commit and never fails the sale.
func (s *Service) CreateSale(ctx context.Context, in CreateSaleInput) (*Sale, error) {
	if err := validateSaleInput(in); err != nil {
		return nil, err
	}

	var (
		sale     *Sale
		customer *Customer
	)
	start := time.Now()
	err := s.storage.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		sale, customer, err = s.createSaleTx(ctx, tx, in)
		return err
	})
	metrics.SaleTxDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		err = asTransactionFailure(err)
		metrics.SalesFailed.WithLabelValues(failureReason(err)).Inc()
		s.logger.Error("failed to create sale",
			zap.Int64("customer_id", in.CustomerID),
			zap.Int64("salesperson_id", in.SalespersonID),
			zap.Int64("business_unit_id", in.BusinessUnitID),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.SalesCreated.WithLabelValues(string(sale.PaymentMethod)).Inc()
	s.logger.Info("sale created",
		zap.Int64("sale_id", sale.ID),
		zap.String("payment_method", string(sale.PaymentMethod)),
		zap.String("discounted_amount", sale.DiscountedAmount.String()),
	)

	s.notifySale(context.WithoutCancel(ctx), sale, customer)
	return sale, nil
}

func (s *Service) createSaleTx(ctx context.Context, tx Tx, in CreateSaleInput) (*Sale, *Customer, error) {
	// 1. Verificar producto y stock de cada línea
	products := make(map[int64]*Product, len(in.Items))
	for _, item := range in.Items {
		product, err := tx.Catalog().Product(ctx, item.ProductID)
		if err != nil {
			return nil, nil, fmt.Errorf("product %d: %w", item.ProductID, err)
		}
		ok, err := tx.Stock().CheckAvailable(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, nil, fmt.Errorf("stock for product %d: %w", item.ProductID, err)
		}
		if !ok {
			return nil, nil, fmt.Errorf("%w: product %d, requested %d", ErrInsufficientStock, item.ProductID, item.Quantity)
		}
		products[product.ID] = product
	}

	// 2. Crear la venta con sus líneas
	sale := &Sale{
		CustomerID:       in.CustomerID,
		SalespersonID:    in.SalespersonID,
		BusinessUnitID:   in.BusinessUnitID,
		PaymentMethod:    in.Payment.Method(),
		Amount:           in.Amount,
		Discount:         in.Discount,
		DiscountedAmount: in.DiscountedAmount,
		Items:            make([]SaleLineItem, 0, len(in.Items)),
	}
	for _, item := range in.Items {
		sale.Items = append(sale.Items, SaleLineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Product:   products[item.ProductID],
		})
	}
	if err := tx.Sales().Create(ctx, sale); err != nil {
		return nil, nil, fmt.Errorf("failed to save sale: %w", err)
	}

	// 3. Validar cliente
	customer, err := tx.Catalog().Customer(ctx, in.CustomerID)
	if err != nil {
		return nil, nil, fmt.Errorf("customer %d: %w", in.CustomerID, err)
	}

	// 4. Ingreso reconocido según el método de pago
	var increment decimal.Decimal
	switch p := in.Payment.(type) {
	case CashPayment:
		increment = sale.DiscountedAmount
	case CreditPayment:
		terms, err := ComputeCredit(sale.DiscountedAmount, p.InitialPayment, p.InterestPercent, p.Installments)
		if err != nil {
			return nil, nil, err
		}
		credit := newCredit(sale, p, terms)
		if err := tx.Credits().Create(ctx, credit); err != nil {
			return nil, nil, fmt.Errorf("failed to save credit for sale %d: %w", sale.ID, err)
		}
		if err := tx.Sales().UpdateAmount(ctx, sale.ID, terms.TotalWithInterest); err != nil {
			return nil, nil, fmt.Errorf("failed to update amount of sale %d: %w", sale.ID, err)
		}
		sale.CreditID = &credit.ID
		sale.Amount = terms.TotalWithInterest
		increment = p.InitialPayment
	default:
		return nil, nil, fmt.Errorf("%w: unsupported payment %T", ErrInvalidSale, in.Payment)
	}

	// 5. Actualizar ingresos de la empresa
	if increment.IsPositive() {
		if err := tx.Ledger().ApplyIncome(ctx, in.BusinessUnitID, increment); err != nil {
			return nil, nil, fmt.Errorf("ledger of business unit %d: %w", in.BusinessUnitID, err)
		}
	}

	// 6. Descontar stock; la condición del update es la única garantía real
	for _, item := range in.Items {
		ok, err := tx.Stock().ConditionalDecrement(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, nil, fmt.Errorf("decrement stock of product %d: %w", item.ProductID, err)
		}
		if !ok {
			return nil, nil, fmt.Errorf("%w: product %d, requested %d", ErrInsufficientStock, item.ProductID, item.Quantity)
		}
	}

	// 7. Registro de visita
	if in.VisitID != nil {
		if err := tx.Visits().LinkSale(ctx, *in.VisitID, sale.ID); err != nil {
			return nil, nil, fmt.Errorf("open visit %d: %w", *in.VisitID, err)
		}
		sale.VisitID = in.VisitID
	}

	return sale, customer, nil
}

// notifySale resolves the salesperson and hands the event to the notifier.
// Every failure here is logged and swallowed: the sale is already committed.
// ctx must not be tied to the request, which may end right after the commit.
func (s *Service) notifySale(ctx context.Context, sale *Sale, customer *Customer) {
	if s.notifier == nil {
		return
	}

	var seller *User
	err := s.storage.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		seller, err = tx.Catalog().User(ctx, sale.SalespersonID)
		return err
	})
	if err != nil {
		metrics.Notifications.WithLabelValues("skipped").Inc()
		s.logger.Warn("salesperson not resolved, sale notification skipped",
			zap.Int64("sale_id", sale.ID), zap.Int64("salesperson_id", sale.SalespersonID), zap.Error(err))
		return
	}

	n := Notification{
		Message: fmt.Sprintf("%s ha registrado una venta de Q%s para el cliente %s.",
			seller.Name, sale.DiscountedAmount.StringFixed(2), customer.Name),
		SenderID: seller.ID,
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("failed to emit sale notification", zap.Int64("sale_id", sale.ID), zap.Error(err))
	}
}

// RemoveSale deletes a sale and reverses its ledger effect once the administrator
// credential checks out. Stock is not restored.
func (s *Service) RemoveSale(ctx context.Context, in RemoveSaleInput) error {
	err := s.storage.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		user, err := tx.Catalog().User(ctx, in.UserID)
		if err != nil {
			return fmt.Errorf("user %d: %w", in.UserID, err)
		}
		if !s.verifier.Verify(user.CredentialHash, in.AdminPassword) {
			return fmt.Errorf("%w: user %d", ErrUnauthorized, in.UserID)
		}

		sale, err := tx.Sales().Get(ctx, in.SaleID)
		if err != nil {
			return fmt.Errorf("sale %d: %w", in.SaleID, err)
		}
		if err := tx.Sales().Delete(ctx, sale.ID); err != nil {
			return fmt.Errorf("failed to delete sale %d: %w", sale.ID, err)
		}
		if err := tx.Ledger().ReverseIncome(ctx, in.BusinessUnitID, sale.DiscountedAmount); err != nil {
			return fmt.Errorf("ledger of business unit %d: %w", in.BusinessUnitID, err)
		}
		return nil
	})
	if err != nil {
		err = asTransactionFailure(err)
		metrics.SaleReversals.WithLabelValues(failureReason(err)).Inc()
		s.logger.Warn("sale reversal rejected",
			zap.Int64("sale_id", in.SaleID), zap.Int64("user_id", in.UserID), zap.Error(err))
		return err
	}

	metrics.SaleReversals.WithLabelValues("ok").Inc()
	s.logger.Info("sale removed",
		zap.Int64("sale_id", in.SaleID),
		zap.Int64("user_id", in.UserID),
		zap.Int64("business_unit_id", in.BusinessUnitID),
	)
	return nil
}

// GetSale returns a sale with its items and their products.
func (s *Service) GetSale(ctx context.Context, id int64) (*Sale, error) {
	var sale *Sale
	err := s.storage.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		sale, err = tx.Sales().Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, asTransactionFailure(fmt.Errorf("sale %d: %w", id, err))
	}
	return sale, nil
}

// ListSales returns sales newest first, filtered by salesperson and/or customer.
func (s *Service) ListSales(ctx context.Context, filter SaleFilter) ([]*Sale, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	var result []*Sale
	err := s.storage.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		result, err = tx.Sales().List(ctx, filter)
		return err
	})
	if err != nil {
		s.logger.Error("failed to list sales", zap.Error(err))
		return nil, asTransactionFailure(err)
	}

	s.logger.Debug("sales search completed",
		zap.Int64("salesperson_filter", filter.SalespersonID),
		zap.Int64("customer_filter", filter.CustomerID),
		zap.Int("results_count", len(result)),
	)
	return result, nil
}

func validateSaleInput(in CreateSaleInput) error {
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: at least one product is required", ErrInvalidSale)
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity for product %d must be greater than zero", ErrInvalidSale, item.ProductID)
		}
	}
	if in.Payment == nil {
		return fmt.Errorf("%w: payment method is required", ErrInvalidSale)
	}

	type field struct {
		name  string
		value decimal.Decimal
	}
	money := []field{
		{"amount", in.Amount},
		{"discount", in.Discount},
		{"discounted amount", in.DiscountedAmount},
	}
	for _, item := range in.Items {
		money = append(money, field{fmt.Sprintf("unit price of product %d", item.ProductID), item.UnitPrice})
	}
	if p, ok := in.Payment.(CreditPayment); ok {
		if p.InterestPercent.IsNegative() {
			return fmt.Errorf("%w: interest must not be negative", ErrInvalidSale)
		}
		money = append(money, field{"initial payment", p.InitialPayment})
	}
	for _, f := range money {
		if err := validateMoney(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// validateMoney accepts non-negative amounts in whole cents.
func validateMoney(name string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidSale, name)
	}
	if !v.Equal(v.Round(2)) {
		return fmt.Errorf("%w: %s has fractions of a cent", ErrInvalidSale, name)
	}
	return nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInvalidInstallments):
		return "invalid_installments"
	case errors.Is(err, ErrInvalidCreditTerms):
		return "invalid_credit_terms"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidSale):
		return "invalid_request"
	default:
		return "transaction_failure"
	}
}
