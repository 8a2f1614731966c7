package service

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/Skotchmaster/storefront/internal/ids"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/money"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type DraftItem struct {
	ProductID string
	Name      string
	Price     float64
	Quantity  int
	Size      string
	Color     string
	Image     string
}

// OrderDraft is a checkout payload that passed validation.
type OrderDraft struct {
	CustomerInfo    models.CustomerInfo
	Items           []DraftItem
	ShippingAddress models.ShippingAddress
	PaymentMethod   models.PaymentMethod
	Subtotal        float64
	Shipping        float64
	Tax             float64
	Discount        float64
	Total           float64
	Notes           string
}

func (d *OrderDraft) ProductIDs() []string {
	seen := make(map[string]bool, len(d.Items))
	out := make([]string, 0, len(d.Items))
	for _, it := range d.Items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			out = append(out, it.ProductID)
		}
	}
	return out
}

func required(ve *ValidationError, field, label, value string) string {
	if ve.Has(field) {
		return ""
	}
	v := strings.TrimSpace(value)
	if v == "" {
		ve.Add(field, label+" is required", value)
	}
	return v
}

// amount checks an optional or required non-negative number.
func amount(ve *ValidationError, field string, n transport.Number, mandatory bool) (float64, bool) {
	if !n.Present {
		if mandatory {
			ve.Add(field, field+" is required", nil)
			return 0, false
		}
		return 0, true
	}
	if !n.Valid || n.Value < 0 {
		ve.Add(field, field+" must be a number >= 0", n.Raw)
		return 0, false
	}
	return money.Round(n.Value), true
}

// ValidateOrder checks a checkout payload and returns the normalized draft.
// All violations are collected; the result depends on the payload only.
func ValidateOrder(req transport.CheckoutRequest) (*OrderDraft, error) {
	ve := &ValidationError{}
	d := &OrderDraft{}

	for _, te := range req.TypeErrors {
		ve.Add(te.Field, te.Field+" must be "+te.Expected, te.Value)
	}

	d.CustomerInfo.Name = required(ve, "customerInfo.name", "Customer name", req.CustomerInfo.Name)
	email := required(ve, "customerInfo.email", "Customer email", req.CustomerInfo.Email)
	if email != "" {
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			ve.Add("customerInfo.email", "Customer email is invalid", req.CustomerInfo.Email)
		}
	}
	d.CustomerInfo.Email = strings.ToLower(email)
	d.CustomerInfo.Phone = strings.TrimSpace(req.CustomerInfo.Phone)

	linesOK := len(req.Items) > 0
	if len(req.Items) == 0 && !ve.Has("items") {
		ve.Add("items", "items array required, at least 1 item", nil)
	}
	for i, it := range req.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		item := DraftItem{}
		if ve.Has(fmt.Sprintf("items[%d]", i)) {
			linesOK = false
			d.Items = append(d.Items, item)
			continue
		}

		rawID := it.Product
		if strings.TrimSpace(rawID) == "" {
			rawID = it.ProductID
		}
		switch {
		case ve.Has(prefix + "product"):
		case strings.TrimSpace(rawID) == "":
			ve.Add(prefix+"product", "Product ID is required", nil)
		default:
			if id, ok := ids.Normalize(rawID); !ok {
				ve.Add(prefix+"product", "Invalid product ID format", rawID)
			} else {
				item.ProductID = id
			}
		}

		item.Name = required(ve, prefix+"name", "Item name", it.Name)

		switch {
		case !it.Price.Present:
			ve.Add(prefix+"price", "Item price is required", nil)
			linesOK = false
		case !it.Price.Valid || it.Price.Value < 0:
			ve.Add(prefix+"price", "Item price must be a number >= 0", it.Price.Raw)
			linesOK = false
		default:
			item.Price = money.Round(it.Price.Value)
		}

		qty, isInt := it.Quantity.Int()
		switch {
		case !it.Quantity.Present:
			ve.Add(prefix+"quantity", "Item quantity is required", nil)
			linesOK = false
		case !isInt || qty < 1:
			ve.Add(prefix+"quantity", "Item quantity must be an integer >= 1", it.Quantity.Raw)
			linesOK = false
		default:
			item.Quantity = qty
		}

		item.Size = required(ve, prefix+"size", "Item size", it.Size)
		item.Color = required(ve, prefix+"color", "Item color", it.Color)
		item.Image = strings.TrimSpace(it.Image)
		d.Items = append(d.Items, item)
	}

	sa := req.ShippingAddress
	d.ShippingAddress = models.ShippingAddress{
		FullName: required(ve, "shippingAddress.fullName", "Full name", sa.FullName),
		Address:  required(ve, "shippingAddress.address", "Address", sa.Address),
		City:     required(ve, "shippingAddress.city", "City", sa.City),
		State:    required(ve, "shippingAddress.state", "State", sa.State),
		ZipCode:  required(ve, "shippingAddress.zipCode", "Zip code", sa.ZipCode),
		Country:  strings.TrimSpace(sa.Country),
		Phone:    required(ve, "shippingAddress.phone", "Phone", sa.Phone),
	}

	switch pm := models.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.PaymentMethod))); {
	case ve.Has("paymentMethod"):
	case pm == models.PaymentCOD || pm == models.PaymentCard:
		d.PaymentMethod = pm
	default:
		ve.Add("paymentMethod", "Payment method must be COD or CARD", req.PaymentMethod)
	}

	var ok [5]bool
	d.Subtotal, ok[0] = amount(ve, "subtotal", req.Subtotal, true)
	d.Total, ok[1] = amount(ve, "total", req.Total, true)
	d.Shipping, ok[2] = amount(ve, "shipping", req.Shipping, false)
	d.Tax, ok[3] = amount(ve, "tax", req.Tax, false)
	d.Discount, ok[4] = amount(ve, "discount", req.Discount, false)
	amountsOK := ok[0] && ok[1] && ok[2] && ok[3] && ok[4]

	if amountsOK && linesOK {
		lines := make([]float64, 0, len(d.Items))
		for _, it := range d.Items {
			lines = append(lines, money.Line(it.Price, it.Quantity))
		}
		if sum := money.Sum(lines...); !money.Equal(sum, d.Subtotal) {
			ve.Add("subtotal", fmt.Sprintf("Subtotal must equal the sum of item lines (%.2f)", sum), req.Subtotal.Raw)
		}
	}
	if amountsOK {
		if want := money.Total(d.Subtotal, d.Shipping, d.Tax, d.Discount); !money.Equal(want, d.Total) {
			ve.Add("total", fmt.Sprintf("Total must equal subtotal + shipping + tax - discount (%.2f)", want), req.Total.Raw)
		}
	}

	d.Notes = strings.TrimSpace(req.Notes)

	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return d, nil
}
