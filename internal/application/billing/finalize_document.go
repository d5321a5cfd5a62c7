package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/application/sequence"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// UseCase coordina la finalización de documentos como una sola unidad
// atómica: asignar consecutivo → consumir inventario por línea → persistir
// documento y emisión del número. Cualquier falla revierte todo; el
// consecutivo se libera con el rollback (reserva-al-commit), nunca se
// reutiliza en silencio para otro documento.
type UseCase struct {
	txRunner     ledger.TxRunner
	ledgerUC     *ledger.UseCase
	sequenceUC   *sequence.UseCase
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	documentRepo repository.DocumentRepository
}

// NewUseCase construye el coordinador.
func NewUseCase(
	txRunner ledger.TxRunner,
	ledgerUC *ledger.UseCase,
	sequenceUC *sequence.UseCase,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	documentRepo repository.DocumentRepository,
) *UseCase {
	return &UseCase{
		txRunner:     txRunner,
		ledgerUC:     ledgerUC,
		sequenceUC:   sequenceUC,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		documentRepo: documentRepo,
	}
}

// LineInput línea de documento a finalizar.
type LineInput struct {
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
}

// FinalizeInput entrada de FinalizeDocument.
type FinalizeInput struct {
	CustomerID     string
	Prefix         string // prefijo del scope de numeración, ej. "INV"
	Lines          []LineInput
	IdempotencyKey string
	CreatedBy      string
}

func (in FinalizeInput) validate() error {
	if in.CustomerID == "" || in.Prefix == "" || len(in.Lines) == 0 {
		return domain.ErrInvalidInput
	}
	for _, l := range in.Lines {
		if l.ProductID == "" || l.LocationID == "" {
			return domain.ErrInvalidInput
		}
		if !l.Quantity.IsPositive() || l.UnitPrice.IsNegative() {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

// DocumentDetail documento con líneas y pagos (valor de solo lectura que
// consumen renderizado/correo y reporting).
type DocumentDetail struct {
	Document *entity.Document
	Lines    []*entity.DocumentLine
	Payments []*entity.Payment
}

// FinalizeDocument finaliza el documento: todo o nada. Retry seguro con la
// misma idempotency key; la cancelación del caller después de iniciada la
// llamada no deja efecto parcial observable.
func (uc *UseCase) FinalizeDocument(ctx context.Context, tenantID string, in FinalizeInput) (*entity.Document, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	// Validación de catálogo fuera de la transacción (lecturas sin bloqueo)
	for _, l := range in.Lines {
		product, err := uc.productRepo.GetByID(ctx, tenantID, l.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrNotFound
		}
		if product.TenantID != tenantID {
			return nil, domain.ErrTenantIsolation
		}
		if !product.IsActive {
			return nil, domain.ErrConflict
		}
		location, err := uc.locationRepo.GetByID(ctx, tenantID, l.LocationID)
		if err != nil {
			return nil, err
		}
		if location == nil {
			return nil, domain.ErrNotFound
		}
	}

	now := time.Now()
	scopeKey := uc.sequenceUC.ScopeKey(in.Prefix, now)
	documentID := uuid.New().String()
	var doc *entity.Document

	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		// Retry seguro: documento ya finalizado con esta clave
		if in.IdempotencyKey != "" {
			prev, err := r.Documents.GetByIdempotencyKey(ctx, tenantID, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if prev != nil {
				doc = prev
				return nil
			}
		}

		// 1) Consecutivo: lock de fila solo durante el incremento; si la tx
		// aborta más adelante, el número se libera con el rollback.
		number, err := uc.sequenceUC.AllocateInTx(ctx, r, tenantID, scopeKey)
		if err != nil {
			return err
		}

		// 2) Por línea: consumir valoración y asentar la salida en el kardex
		var lines []*entity.DocumentLine
		netTotal, costTotal := decimal.Zero, decimal.Zero
		for _, l := range in.Lines {
			mov, err := uc.ledgerUC.AppendInTx(ctx, r, tenantID, ledger.AppendInput{
				ProductID:  l.ProductID,
				LocationID: l.LocationID,
				Type:       entity.MovementTypeOUT,
				RefType:    entity.RefTypeInvoice,
				RefID:      documentID,
				Quantity:   l.Quantity.Neg(),
				CreatedBy:  in.CreatedBy,
			}, now)
			if err != nil {
				return err
			}
			subtotal := l.Quantity.Mul(l.UnitPrice)
			netTotal = netTotal.Add(subtotal)
			costTotal = costTotal.Add(mov.TotalCost.Neg())
			lines = append(lines, &entity.DocumentLine{
				ID:         uuid.New().String(),
				DocumentID: documentID,
				TenantID:   tenantID,
				ProductID:  l.ProductID,
				LocationID: l.LocationID,
				Quantity:   l.Quantity,
				UnitPrice:  l.UnitPrice,
				UnitCost:   mov.UnitCost,
				Subtotal:   subtotal,
			})
		}

		// 3) Documento finalizado + registro de emisión del consecutivo
		doc = &entity.Document{
			ID:             documentID,
			TenantID:       tenantID,
			CustomerID:     in.CustomerID,
			Prefix:         in.Prefix,
			ScopeKey:       scopeKey,
			Number:         number,
			Status:         entity.DocumentStatusFinalized,
			NetTotal:       netTotal,
			CostTotal:      costTotal,
			IdempotencyKey: in.IdempotencyKey,
			FinalizedAt:    now,
			CreatedAt:      now,
			UpdatedAt:      now,
			CreatedBy:      in.CreatedBy,
		}
		if err := r.Documents.Create(ctx, doc, lines); err != nil {
			return err
		}
		return r.Sequences.CreateDocumentNumber(ctx, &entity.DocumentNumber{
			TenantID:   tenantID,
			ScopeKey:   scopeKey,
			Value:      number,
			DocumentID: documentID,
			Status:     entity.DocumentNumberConsumed,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// VoidDocument anula un documento no pagado: marca VOIDED, marca la emisión
// del consecutivo como VOIDED (rastro de auditoría, nunca se reutiliza) y
// asienta movimientos IN compensatorios que devuelven el stock consumido al
// costo con que salió. PAID es terminal: no se anula ni se elimina.
func (uc *UseCase) VoidDocument(ctx context.Context, tenantID, documentID, requestedBy string) (*entity.Document, error) {
	if tenantID == "" || documentID == "" {
		return nil, domain.ErrInvalidInput
	}
	var voided *entity.Document
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		doc, err := r.Documents.GetForUpdate(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if doc.TenantID != tenantID {
			return domain.ErrTenantIsolation
		}
		if doc.Terminal() || doc.Status == entity.DocumentStatusPartiallyPaid {
			return domain.ErrDocumentPaid
		}
		if !doc.CanVoid() {
			return domain.ErrConflict
		}
		// Un pago registrado bloquea la anulación aunque el estado no haya
		// transicionado todavía
		payments, err := r.Documents.ListPayments(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		if len(payments) > 0 {
			return domain.ErrDocumentPaid
		}

		if doc.Status == entity.DocumentStatusFinalized {
			lines, err := r.Documents.GetLines(ctx, tenantID, documentID)
			if err != nil {
				return err
			}
			now := time.Now()
			for _, l := range lines {
				unitCost := l.UnitCost
				if _, err := uc.ledgerUC.AppendInTx(ctx, r, tenantID, ledger.AppendInput{
					ProductID:  l.ProductID,
					LocationID: l.LocationID,
					Type:       entity.MovementTypeIN,
					RefType:    entity.RefTypeVoid,
					RefID:      documentID,
					Quantity:   l.Quantity,
					UnitCost:   &unitCost,
					CreatedBy:  requestedBy,
				}, now); err != nil {
					return err
				}
			}
			if err := r.Sequences.UpdateDocumentNumberStatus(ctx, tenantID, doc.ScopeKey, doc.Number, entity.DocumentNumberVoided); err != nil {
				return err
			}
		}
		if err := r.Documents.UpdateStatus(ctx, tenantID, documentID, entity.DocumentStatusVoided); err != nil {
			return err
		}
		doc.Status = entity.DocumentStatusVoided
		voided = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voided, nil
}

// RegisterPayment registra un pago y recalcula el estado derivado del
// documento desde la suma de sus pagos (referencia unidireccional).
func (uc *UseCase) RegisterPayment(ctx context.Context, tenantID, documentID string, amount decimal.Decimal, receivedAt time.Time) (*entity.Document, error) {
	if tenantID == "" || documentID == "" || !amount.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	var updated *entity.Document
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		doc, err := r.Documents.GetForUpdate(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if doc.Terminal() {
			return domain.ErrDocumentPaid
		}
		switch doc.Status {
		case entity.DocumentStatusFinalized, entity.DocumentStatusPartiallyPaid:
			// admite pagos
		default:
			return domain.ErrConflict
		}

		now := time.Now()
		if err := r.Documents.CreatePayment(ctx, &entity.Payment{
			ID:         uuid.New().String(),
			TenantID:   tenantID,
			DocumentID: documentID,
			Amount:     amount,
			ReceivedAt: receivedAt,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		payments, err := r.Documents.ListPayments(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		paid := decimal.Zero
		for _, p := range payments {
			paid = paid.Add(p.Amount)
		}
		status := entity.DocumentStatusPartiallyPaid
		if paid.GreaterThanOrEqual(doc.NetTotal) {
			status = entity.DocumentStatusPaid
		}
		if status != doc.Status {
			if err := r.Documents.UpdateStatus(ctx, tenantID, documentID, status); err != nil {
				return err
			}
			doc.Status = status
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetDocument documento con líneas y pagos (solo lectura).
func (uc *UseCase) GetDocument(ctx context.Context, tenantID, documentID string) (*DocumentDetail, error) {
	if tenantID == "" || documentID == "" {
		return nil, domain.ErrInvalidInput
	}
	doc, err := uc.documentRepo.GetByID(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.TenantID != tenantID {
		return nil, domain.ErrTenantIsolation
	}
	lines, err := uc.documentRepo.GetLines(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	payments, err := uc.documentRepo.ListPayments(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{Document: doc, Lines: lines, Payments: payments}, nil
}
