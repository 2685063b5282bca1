package repository

import (
	"context"

	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

// DocumentRepository puerto hacia los documentos comerciales remotos (RFQ, cotización, PO, SO).
type DocumentRepository interface {
	Get(ctx context.Context, docType status.DocumentType, id string) (*entity.Document, error)
	UpdateStatus(ctx context.Context, docType status.DocumentType, id string, s status.State) error
}
