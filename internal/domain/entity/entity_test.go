package entity_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDocument_RecalculateTotals(t *testing.T) {
	doc := &entity.Document{
		Type:    status.TypeSalesOrder,
		TaxRate: dec("10"),
		Items: []entity.DocumentItem{
			{ItemID: "A", Quantity: dec("2"), UnitPrice: dec("100"), Discount: dec("0")},
			{ItemID: "B", Quantity: dec("1"), UnitPrice: dec("50"), Discount: dec("20")},
		},
	}
	doc.RecalculateTotals()

	assert.True(t, dec("240").Equal(doc.Subtotal), "subtotal: %s", doc.Subtotal)
	assert.True(t, dec("24").Equal(doc.Tax), "tax: %s", doc.Tax)
	assert.True(t, dec("264").Equal(doc.Total), "total: %s", doc.Total)
}

func TestDocument_IsTerminal(t *testing.T) {
	doc := &entity.Document{Type: status.TypePurchaseOrder, Status: status.Completed}
	assert.True(t, doc.IsTerminal())
	doc.Status = status.InTransit
	assert.False(t, doc.IsTerminal())
}

func TestTicket_Validate(t *testing.T) {
	neg := dec("-1")
	cases := []struct {
		name   string
		ticket entity.Ticket
		ok     bool
	}{
		{"salida válida", entity.Ticket{ID: "1", Type: status.TypeIssueTicket, WarehouseID: "W",
			Details: []entity.TicketDetail{{ItemID: "I", Quantity: dec("5")}}}, true},
		{"salida sin bodega", entity.Ticket{ID: "1", Type: status.TypeIssueTicket}, false},
		{"cantidad negativa", entity.Ticket{ID: "1", Type: status.TypeIssueTicket, WarehouseID: "W",
			Details: []entity.TicketDetail{{ItemID: "I", Quantity: dec("-5")}}}, false},
		{"cantidad real negativa", entity.Ticket{ID: "1", Type: status.TypeIssueTicket, WarehouseID: "W",
			Details: []entity.TicketDetail{{ItemID: "I", Quantity: dec("5"), ActualQuantity: &neg}}}, false},
		{"traslado misma bodega", entity.Ticket{ID: "1", Type: status.TypeTransferTicket,
			FromWarehouseID: "W", ToWarehouseID: "W"}, false},
		{"traslado válido", entity.Ticket{ID: "1", Type: status.TypeTransferTicket,
			FromWarehouseID: "W1", ToWarehouseID: "W2"}, true},
		{"no es ticket", entity.Ticket{ID: "1", Type: status.TypeSalesOrder, WarehouseID: "W"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ticket.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			}
		})
	}
}

func TestTicketDetail_EffectiveQuantity(t *testing.T) {
	actual := dec("3")
	assert.True(t, dec("5").Equal(entity.TicketDetail{Quantity: dec("5")}.EffectiveQuantity()))
	assert.True(t, actual.Equal(entity.TicketDetail{Quantity: dec("5"), ActualQuantity: &actual}.EffectiveQuantity()))
}

func TestTicket_CloneNoCompartePunteros(t *testing.T) {
	actual := dec("3")
	orig := &entity.Ticket{ID: "1", Details: []entity.TicketDetail{{ItemID: "I", ActualQuantity: &actual}}}
	c := orig.Clone()
	*c.Details[0].ActualQuantity = dec("9")
	c.Details[0].ItemID = "J"

	assert.True(t, dec("3").Equal(*orig.Details[0].ActualQuantity))
	assert.Equal(t, "I", orig.Details[0].ItemID)
}

func TestFulfillmentRun_Record(t *testing.T) {
	run := &entity.FulfillmentRun{}
	run.Record(entity.StepRecord{Name: "a", Outcome: entity.StepFailed})
	run.Record(entity.StepRecord{Name: "b", Outcome: entity.StepOK})
	run.Record(entity.StepRecord{Name: "a", Outcome: entity.StepOK})

	require.Len(t, run.Steps, 2)
	assert.Equal(t, "a", run.Steps[0].Name)
	assert.Equal(t, 2, run.Steps[0].Attempts)
	assert.True(t, run.Succeeded("a"))
	assert.True(t, run.Succeeded("b"))
	assert.False(t, run.Succeeded("c"))
}

func TestFulfillmentRun_Resumable(t *testing.T) {
	now := time.Now()
	lease := now.Add(-5 * time.Minute)

	failed := &entity.FulfillmentRun{State: status.RunFailed, UpdatedAt: now}
	assert.True(t, failed.Resumable(time.Time{}))

	done := &entity.FulfillmentRun{State: status.RunDone, UpdatedAt: now.Add(-time.Hour)}
	assert.False(t, done.Resumable(lease))

	active := &entity.FulfillmentRun{State: status.RunDeliveryCreated, UpdatedAt: now}
	assert.False(t, active.Resumable(lease))

	abandoned := &entity.FulfillmentRun{State: status.RunStarted, UpdatedAt: now.Add(-time.Hour)}
	assert.True(t, abandoned.Resumable(lease))
	assert.False(t, abandoned.Resumable(time.Time{}), "sin plazo no se toman corridas en curso")
}
