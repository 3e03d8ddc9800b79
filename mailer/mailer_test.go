package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/ajebo/storefront-api/config"
	"github.com/ajebo/storefront-api/models"
)

func testConfig() config.SMTPConfig {
	return config.SMTPConfig{
		Host:       "smtp.example.com",
		Port:       587,
		User:       "mailer",
		Password:   "secret",
		From:       "shop@example.com",
		AdminEmail: "admin@example.com",
	}
}

func paidOrder() *models.Order {
	return &models.Order{
		Reference:    "ord-123",
		TotalAmount:  1000000,
		ShipFullName: "Ada Obi",
		ShipPhone:    "08031234567",
		ShipLine1:    "12 Admiralty Way",
		ShipCity:     "Lekki",
		ShipState:    "Lagos",
		Items: []models.OrderItem{
			{ProductName: "Ankara Tote", UnitPrice: 500000, Quantity: 2},
		},
	}
}

func TestFormatNaira(t *testing.T) {
	assert.Equal(t, "₦10,000.00", FormatNaira(1000000))
	assert.Equal(t, "₦0.50", FormatNaira(50))
	assert.Equal(t, "₦1,234,567.89", FormatNaira(123456789))
	assert.Equal(t, "-₦1.00", FormatNaira(-100))
}

func TestSendOrderPaid(t *testing.T) {
	s := New(testConfig())
	var sent *mail.Msg
	s.send = func(_ context.Context, msg *mail.Msg) error {
		sent = msg
		return nil
	}

	require.NoError(t, s.SendOrderPaid(context.Background(), paidOrder()))
	require.NotNil(t, sent)

	assert.Equal(t, []string{"New paid order ord-123 (₦10,000.00)"}, sent.GetGenHeader(mail.HeaderSubject))

	var buf bytes.Buffer
	_, err := sent.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "admin@example.com")
}

func TestOrderText(t *testing.T) {
	text := orderText(paidOrder())
	assert.Contains(t, text, "Order ord-123 has been paid.")
	assert.Contains(t, text, "- Ankara Tote x2 @ ₦5,000.00")
	assert.Contains(t, text, "Lekki, Lagos")
	assert.NotContains(t, text, "Landmark")
}

func TestSendOrderPaidDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Host = ""
	s := New(cfg)
	s.send = func(context.Context, *mail.Msg) error { return errors.New("must not send") }

	assert.False(t, s.Enabled())
	assert.NoError(t, s.SendOrderPaid(context.Background(), paidOrder()))
}

func TestSendOrderPaidError(t *testing.T) {
	s := New(testConfig())
	s.send = func(context.Context, *mail.Msg) error { return errors.New("dial tcp: refused") }
	assert.Error(t, s.SendOrderPaid(context.Background(), paidOrder()))
}
