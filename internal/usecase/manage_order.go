package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/quote-payments/internal/entity"
	"github.com/xavierca1/quote-payments/internal/logger"
)

var allowedDocumentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// OrderMaintenanceUseCase covers the staff edits made after fulfillment.
type OrderMaintenanceUseCase struct {
	Orders entity.OrderRepositoryInterface
	Store  DocumentStore
	Now    func() time.Time
}

// NewOrderMaintenanceUseCase accepts a nil store; attachments then fail with CONFIG_ERROR.
func NewOrderMaintenanceUseCase(orders entity.OrderRepositoryInterface, store DocumentStore) *OrderMaintenanceUseCase {
	return &OrderMaintenanceUseCase{Orders: orders, Store: store, Now: time.Now}
}

func (uc *OrderMaintenanceUseCase) Get(ctx context.Context, orderID int64) (*entity.Order, error) {
	return uc.findOrder(ctx, orderID)
}

func (uc *OrderMaintenanceUseCase) AttachDocument(ctx context.Context, input AttachDocumentInput) (*AttachDocumentOutput, error) {
	if uc.Store == nil {
		return nil, &TechnicalError{Code: CodeConfig, Message: "document storage is not configured"}
	}
	ext, ok := allowedDocumentTypes[input.ContentType]
	if !ok {
		return nil, validationError("file: must be a PDF, JPEG or PNG document")
	}
	if input.Body == nil {
		return nil, validationError("file: is required")
	}

	if _, err := uc.findOrder(ctx, input.OrderID); err != nil {
		return nil, err
	}

	key := documentKey(input.OrderID, input.FileName, ext, uc.Now())
	location, err := uc.Store.Put(ctx, key, input.ContentType, input.Body)
	if err != nil {
		return nil, &TechnicalError{Code: CodeStorage, Message: "failed to store document", Err: err}
	}

	if err := uc.Orders.AppendDocumentPath(ctx, input.OrderID, location); err != nil {
		return nil, orderWriteError(err)
	}

	logger.Infow("document attached", "order_id", input.OrderID, "path", location)
	return &AttachDocumentOutput{OrderID: input.OrderID, Path: location}, nil
}

// ReplaceServices swaps the services descriptor. The quote reference
// recorded at fulfillment survives any replacement.
func (uc *OrderMaintenanceUseCase) ReplaceServices(ctx context.Context, orderID int64, services entity.OrderServices) (*entity.Order, error) {
	if services == nil {
		return nil, validationError("services: must be a JSON object")
	}

	o, err := uc.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next := entity.OrderServices{}
	for k, v := range services {
		next[k] = v
	}
	delete(next, entity.ServicesOriginalQuoteKey)
	if original := o.Services.OriginalQuoteID(); original != "" {
		next[entity.ServicesOriginalQuoteKey] = original
	}

	if err := uc.Orders.UpdateServices(ctx, orderID, next); err != nil {
		return nil, orderWriteError(err)
	}
	o.Services = next
	return o, nil
}

func (uc *OrderMaintenanceUseCase) UpdateUrgency(ctx context.Context, orderID int64, urgency entity.Urgency) (*entity.Order, error) {
	if !urgency.Valid() {
		return nil, validationError("urgency: must be one of: standard, rush, express")
	}

	o, err := uc.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := uc.Orders.UpdateUrgency(ctx, orderID, urgency); err != nil {
		return nil, orderWriteError(err)
	}
	o.Urgency = urgency
	return o, nil
}

func (uc *OrderMaintenanceUseCase) findOrder(ctx context.Context, id int64) (*entity.Order, error) {
	if id <= 0 {
		return nil, validationError("order id must be a positive integer")
	}
	o, err := uc.Orders.FindByID(ctx, id)
	if errors.Is(err, entity.ErrOrderNotFound) {
		return nil, &DomainError{Code: CodeOrderNotFound, Message: "order not found"}
	}
	if err != nil {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to load order", Err: err}
	}
	return o, nil
}

func orderWriteError(err error) error {
	if errors.Is(err, entity.ErrOrderNotFound) {
		return &DomainError{Code: CodeOrderNotFound, Message: "order not found"}
	}
	return &TechnicalError{Code: CodeDatabase, Message: "failed to update order", Err: err}
}

// documentKey keeps the caller's base name for readability; the uuid prefix
// makes keys unique per upload.
func documentKey(orderID int64, fileName, ext string, now time.Time) string {
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(fileName, "\\", "/")), path.Ext(fileName))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, base)
	if base == "" || base == "." || base == "-" {
		base = "document"
	}
	return fmt.Sprintf("orders/%d/%s/%s-%s%s", orderID, now.UTC().Format("20060102"), uuid.New().String()[:8], base, ext)
}
