package domain

import "time"

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderCreated   OrderStatus = "created"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
)

// CanTransitionTo reports whether an order in status s may move to next.
// created -> paid, created -> cancelled and paid -> cancelled are allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderCreated:
		return next == OrderPaid || next == OrderCancelled
	case OrderPaid:
		return next == OrderCancelled
	}
	return false
}

// Order is a key duplication order submitted by a customer
type Order struct {
	ID                   string      `json:"id"`
	Number               string      `json:"numeroCommande"`
	CustomerName         string      `json:"nom"`
	PostalAddress        string      `json:"adressePostale"`
	Keys                 []string    `json:"cle"`
	KeyNumbers           []string    `json:"numeroCle"`
	PropertyCardNumber   string      `json:"propertyCardNumber,omitempty"`
	Phone                string      `json:"telephone"`
	Email                string      `json:"adresseMail"`
	DeliveryTypes        []string    `json:"typeLivraison"`
	ShippingMethod       string      `json:"shippingMethod"`
	DeliveryType         string      `json:"deliveryType"`
	FrontPhoto           string      `json:"urlPhotoRecto,omitempty"`
	BackPhoto            string      `json:"urlPhotoVerso,omitempty"`
	IDCardFront          string      `json:"idCardFront,omitempty"`
	IDCardBack           string      `json:"idCardBack,omitempty"`
	ProofOfAddress       string      `json:"domicileJustificatif,omitempty"`
	Status               OrderStatus `json:"status"`
	Price                float64     `json:"prix"`
	IsMasterKey          *bool       `json:"isCleAPasse"`
	HasPropertyCard      bool        `json:"hasCartePropriete"`
	OwnershipAttestation *bool       `json:"attestationPropriete"`
	City                 string      `json:"ville"`
	Quantity             int         `json:"quantity"`
	CreatedAt            time.Time   `json:"dateCommande"`
}

// WithoutAttachments returns a copy of the order stripped of uploaded file payloads
func (o Order) WithoutAttachments() Order {
	o.FrontPhoto = ""
	o.BackPhoto = ""
	o.IDCardFront = ""
	o.IDCardBack = ""
	return o
}

// OrderPatch carries a partial order update; nil fields are left untouched
type OrderPatch struct {
	CustomerName   *string  `json:"nom"`
	PostalAddress  *string  `json:"adressePostale"`
	Phone          *string  `json:"telephone"`
	Email          *string  `json:"adresseMail"`
	ShippingMethod *string  `json:"shippingMethod"`
	DeliveryType   *string  `json:"deliveryType"`
	City           *string  `json:"ville"`
	Quantity       *int     `json:"quantity"`
	Price          *float64 `json:"prix"`
}

// Apply copies every non-nil patch field onto order
func (p OrderPatch) Apply(order *Order) {
	if p.CustomerName != nil {
		order.CustomerName = *p.CustomerName
	}
	if p.PostalAddress != nil {
		order.PostalAddress = *p.PostalAddress
	}
	if p.Phone != nil {
		order.Phone = *p.Phone
	}
	if p.Email != nil {
		order.Email = *p.Email
	}
	if p.ShippingMethod != nil {
		order.ShippingMethod = *p.ShippingMethod
	}
	if p.DeliveryType != nil {
		order.DeliveryType = *p.DeliveryType
	}
	if p.City != nil {
		order.City = *p.City
	}
	if p.Quantity != nil {
		order.Quantity = *p.Quantity
	}
	if p.Price != nil {
		order.Price = *p.Price
	}
}

// OrderEvent is pushed to realtime subscribers whenever an order changes
type OrderEvent struct {
	Type  string `json:"type"`
	Order Order  `json:"order"`
}
