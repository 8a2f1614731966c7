package export

import (
	"io"
	"strings"
	"time"

	"github.com/tealeg/xlsx"

	"github.com/Skotchmaster/storefront/internal/models"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var orderHeaders = []string{
	"Order Number", "Created At", "Status", "Payment Method", "Payment Status",
	"Customer", "Email", "Phone", "Items", "Products",
	"Subtotal", "Shipping", "Tax", "Discount", "Total",
	"City", "Country", "Tracking Number",
}

// OrdersWorkbook collects orders into a single sheet.
type OrdersWorkbook struct {
	file  *xlsx.File
	sheet *xlsx.Sheet
	rows  int
}

func NewOrdersWorkbook() (*OrdersWorkbook, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, err
	}

	headerRow := sheet.AddRow()
	for _, h := range orderHeaders {
		headerRow.AddCell().SetValue(h)
	}
	return &OrdersWorkbook{file: file, sheet: sheet}, nil
}

func (w *OrdersWorkbook) Add(orders []models.Order) error {
	for _, o := range orders {
		names := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			names = append(names, it.Name)
		}

		row := w.sheet.AddRow()
		row.AddCell().SetValue(o.OrderNumber)
		row.AddCell().SetValue(o.CreatedAt.UTC().Format(time.DateTime))
		row.AddCell().SetValue(string(o.Status))
		row.AddCell().SetValue(string(o.PaymentMethod))
		row.AddCell().SetValue(string(o.PaymentStatus))
		row.AddCell().SetValue(o.CustomerInfo.Name)
		row.AddCell().SetValue(o.CustomerInfo.Email)
		row.AddCell().SetValue(o.CustomerInfo.Phone)
		row.AddCell().SetValue(o.TotalItems())
		row.AddCell().SetValue(strings.Join(names, ", "))
		row.AddCell().SetValue(o.Subtotal)
		row.AddCell().SetValue(o.Shipping)
		row.AddCell().SetValue(o.Tax)
		row.AddCell().SetValue(o.Discount)
		row.AddCell().SetValue(o.Total)
		row.AddCell().SetValue(o.ShippingAddress.City)
		row.AddCell().SetValue(o.ShippingAddress.Country)
		row.AddCell().SetValue(o.TrackingNumber)
		w.rows++
	}
	return nil
}

func (w *OrdersWorkbook) Rows() int { return w.rows }

func (w *OrdersWorkbook) Write(out io.Writer) error {
	return w.file.Write(out)
}
