// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/checkout"
)

// Estimated delivery is shown this many days after the order date
const deliveryDays = 5

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

var confirmationTemplate = template.Must(template.New("confirmation").Funcs(template.FuncMap{
	"money": func(currency string, amount decimal.Decimal) string {
		if symbol, ok := currencySymbols[currency]; ok {
			return symbol + amount.StringFixed(2)
		}
		return currency + " " + amount.StringFixed(2)
	},
}).Parse(orderConfirmationTemplate))

// Service handles PDF generation
type Service struct {
	config *config.Config
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
	}
}

// ConfirmationData represents the data passed to the confirmation template
type ConfirmationData struct {
	Order             *checkout.Order
	Company           config.CompanyConfig
	OrderDate         string
	EstimatedDelivery string
}

// OrderConfirmation renders the order confirmation page as a PDF
func (s *Service) OrderConfirmation(order *checkout.Order) (*bytes.Buffer, error) {
	htmlContent, err := s.OrderConfirmationHTML(order)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.Title.Set(fmt.Sprintf("Order %s", order.OrderNumber))

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.Encoding.Set("utf-8")
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// OrderConfirmationHTML renders the confirmation page as HTML
func (s *Service) OrderConfirmationHTML(order *checkout.Order) (string, error) {
	data := ConfirmationData{
		Order:             order,
		Company:           s.config.Company,
		OrderDate:         order.CreatedAt.Format("January 2, 2006"),
		EstimatedDelivery: order.CreatedAt.Add(deliveryDays * 24 * time.Hour).Format("Monday, January 2, 2006"),
	}

	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

const orderConfirmationTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Order {{.Order.OrderNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { display: flex; justify-content: space-between; margin-bottom: 30px; border-bottom: 2px solid #eee; padding-bottom: 20px; }
        .title { font-size: 28px; font-weight: bold; color: #16a34a; margin-bottom: 10px; }
        .section-title { font-size: 16px; font-weight: bold; margin-bottom: 10px; color: #374151; }
        .columns { display: flex; justify-content: space-between; margin-bottom: 30px; }
        .columns > div { flex: 1; margin-right: 20px; }
        .items-table { width: 100%; border-collapse: collapse; margin-bottom: 30px; }
        .items-table th, .items-table td { border: 1px solid #ddd; padding: 12px 8px; text-align: left; }
        .items-table th { background-color: #f8f9fa; }
        .num { text-align: right; width: 90px; }
        .totals { float: right; width: 300px; }
        .totals table { width: 100%; border-collapse: collapse; }
        .totals td { padding: 8px; border-bottom: 1px solid #eee; text-align: right; }
        .total-row { font-size: 18px; font-weight: bold; }
        .badge { display: inline-block; padding: 4px 8px; border-radius: 4px; font-size: 12px; font-weight: bold; text-transform: uppercase; background-color: #dcfce7; color: #166534; }
        .footer { margin-top: 50px; padding-top: 20px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <div>
            <h1>{{.Company.Name}}</h1>
            <p>{{.Company.Address}}</p>
            <p>{{.Company.Email}}</p>
            <p>{{.Company.Website}}</p>
        </div>
        <div style="text-align: right;">
            <div class="title">Order Confirmed!</div>
            <p><strong>Order #:</strong> {{.Order.OrderNumber}}</p>
            <p><strong>Placed on:</strong> {{.OrderDate}}</p>
            <p><span class="badge">{{.Order.PaymentStatus}}</span> {{.Order.PaymentMethod}}</p>
        </div>
    </div>

    <div class="columns">
        <div>
            <div class="section-title">Delivery Address</div>
            {{with .Order.ShippingAddress}}
            <p><strong>{{.FullName}}</strong></p>
            <p>{{.AddressLine1}}</p>
            {{if .AddressLine2}}<p>{{.AddressLine2}}</p>{{end}}
            <p>{{.City}}, {{.State}} {{.PostalCode}}</p>
            <p>{{.Country}}</p>
            <p>{{.Phone}}</p>
            {{end}}
        </div>
        <div>
            <div class="section-title">Estimated Delivery</div>
            <p>{{.EstimatedDelivery}}</p>
        </div>
    </div>

    <table class="items-table">
        <thead>
            <tr>
                <th>Item</th>
                <th>SKU</th>
                <th class="num">Qty</th>
                <th class="num">Price</th>
                <th class="num">Total</th>
            </tr>
        </thead>
        <tbody>
            {{$currency := .Order.Currency}}
            {{range .Order.Items}}
            <tr>
                <td><strong>{{.Name}}</strong>{{if .VariantName}}<br><small>{{.VariantName}}</small>{{end}}</td>
                <td>{{.SKU}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{money $currency .Price}}</td>
                <td class="num">{{money $currency .Total}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="totals">
        <table>
            <tr><td>Subtotal:</td><td>{{money .Order.Currency .Order.Subtotal}}</td></tr>
            <tr><td>Shipping:</td><td>{{money .Order.Currency .Order.ShippingAmount}}</td></tr>
            <tr><td>Tax:</td><td>{{money .Order.Currency .Order.TaxAmount}}</td></tr>
            <tr class="total-row"><td>Total:</td><td>{{money .Order.Currency .Order.TotalAmount}}</td></tr>
        </table>
    </div>

    <div style="clear: both;"></div>

    <div class="footer">
        <p>Thank you for your purchase!</p>
        <p>If you have any questions about this order, please contact us at {{.Company.Email}}</p>
    </div>
</body>
</html>
`
