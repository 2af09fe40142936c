package commands

import (
	"errors"
	"fmt"
	"maps"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// OrderLine is one requested line of a new order.
type OrderLine struct {
	ProductID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Weight      decimal.Decimal
	Metadata    map[string]any
}

// CreateOrderCommand converts an accepted RFQ into a proforma order.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(
//	    kernel.NewUUID(),
//	    order.Source{RequestID: "rfq-42", BuyerID: "buyer-1", Currency: "usd"},
//	    "seller-7", "", lines, nil, "buyer-1",
//	)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	snapshot, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct {
	orderID  kernel.UUID
	source   order.Source
	sellerID string
	currency string
	items    []order.Item
	metadata map[string]any
	actor    string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the order id, every line and the width of
// each identifier. Blank seller, buyer or request id and a missing line are
// caught when the order is built.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	source order.Source,
	sellerID, currency string,
	lines []OrderLine,
	metadata map[string]any,
	actor string,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		source:   source,
		sellerID: sellerID,
		currency: currency,
		metadata: maps.Clone(metadata),
		actor:    actor,
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setItems(lines),
		checkLength("request id", source.RequestID, maxIdentifierLength),
		checkLength("buyer id", source.BuyerID, maxIdentifierLength),
		checkLength("seller id", sellerID, maxIdentifierLength),
		checkLength("actor", actor, maxIdentifierLength),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) Source() order.Source {
	return c.source
}

func (c CreateOrderCommand) SellerID() string {
	return c.sellerID
}

func (c CreateOrderCommand) Currency() string {
	return c.currency
}

func (c CreateOrderCommand) Items() []order.Item {
	return append([]order.Item(nil), c.items...)
}

func (c CreateOrderCommand) Metadata() map[string]any {
	return maps.Clone(c.metadata)
}

func (c CreateOrderCommand) Actor() string {
	return c.actor
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setItems(lines []OrderLine) error {
	var problems []error
	items := make([]order.Item, 0, len(lines))
	for i, line := range lines {
		if err := checkLength("product id", line.ProductID, maxIdentifierLength); err != nil {
			problems = append(problems, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		item, err := order.NewItem(
			kernel.NewUUID(),
			line.ProductID,
			line.Description,
			line.Quantity,
			line.UnitPrice,
			line.Weight,
			line.Metadata,
		)
		if err != nil {
			problems = append(problems, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		items = append(items, item)
	}
	c.items = items
	return errors.Join(problems...)
}
