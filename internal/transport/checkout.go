package transport

import (
	"encoding/json"
	"fmt"
)

// TypeError records a checkout field whose JSON type was wrong.
type TypeError struct {
	Field    string
	Expected string
	Value    any
}

type lenient struct {
	errs []TypeError
}

func (d *lenient) bad(path, expected string, raw json.RawMessage) {
	var v any
	_ = json.Unmarshal(raw, &v)
	d.errs = append(d.errs, TypeError{Field: path, Expected: expected, Value: v})
}

// object decodes obj[key] as a JSON object. A missing or null key yields nil.
func (d *lenient) object(obj map[string]json.RawMessage, key, path string) map[string]json.RawMessage {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		d.bad(path, "an object", raw)
		return nil
	}
	return out
}

func (d *lenient) str(obj map[string]json.RawMessage, key, path string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		d.bad(path, "a string", raw)
		return ""
	}
	return s
}

func (d *lenient) number(obj map[string]json.RawMessage, key string) Number {
	var n Number
	if raw, ok := obj[key]; ok {
		_ = n.UnmarshalJSON(raw)
	}
	return n
}

// UnmarshalJSON only fails when the body is not JSON or not an object.
// Fields of the wrong type are left empty and listed in TypeErrors so
// validation can report them next to every other problem.
func (r *CheckoutRequest) UnmarshalJSON(b []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(b, &top); err != nil {
		return err
	}
	*r = CheckoutRequest{}
	d := &lenient{}

	ci := d.object(top, "customerInfo", "customerInfo")
	r.CustomerInfo = CustomerInfo{
		Name:  d.str(ci, "name", "customerInfo.name"),
		Email: d.str(ci, "email", "customerInfo.email"),
		Phone: d.str(ci, "phone", "customerInfo.phone"),
	}

	if raw, ok := top["items"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			d.bad("items", "an array", raw)
		}
		for i, itemRaw := range items {
			prefix := fmt.Sprintf("items[%d]", i)
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(itemRaw, &obj); err != nil || obj == nil {
				d.bad(prefix, "an object", itemRaw)
				r.Items = append(r.Items, CheckoutItem{})
				continue
			}
			r.Items = append(r.Items, CheckoutItem{
				Product:   d.str(obj, "product", prefix+".product"),
				ProductID: d.str(obj, "productId", prefix+".product"),
				Name:      d.str(obj, "name", prefix+".name"),
				Price:     d.number(obj, "price"),
				Quantity:  d.number(obj, "quantity"),
				Size:      d.str(obj, "size", prefix+".size"),
				Color:     d.str(obj, "color", prefix+".color"),
				Image:     d.str(obj, "image", prefix+".image"),
			})
		}
	}

	sa := d.object(top, "shippingAddress", "shippingAddress")
	r.ShippingAddress = ShippingAddress{
		FullName: d.str(sa, "fullName", "shippingAddress.fullName"),
		Address:  d.str(sa, "address", "shippingAddress.address"),
		City:     d.str(sa, "city", "shippingAddress.city"),
		State:    d.str(sa, "state", "shippingAddress.state"),
		ZipCode:  d.str(sa, "zipCode", "shippingAddress.zipCode"),
		Country:  d.str(sa, "country", "shippingAddress.country"),
		Phone:    d.str(sa, "phone", "shippingAddress.phone"),
	}

	r.PaymentMethod = d.str(top, "paymentMethod", "paymentMethod")
	r.Subtotal = d.number(top, "subtotal")
	r.Shipping = d.number(top, "shipping")
	r.Tax = d.number(top, "tax")
	r.Discount = d.number(top, "discount")
	r.Total = d.number(top, "total")
	r.Notes = d.str(top, "notes", "notes")

	r.TypeErrors = d.errs
	return nil
}
