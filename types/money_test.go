package types

import (
	"encoding/json"
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"RUB", RUB(199000), 199000, "rub", "1990.00 ₽"},
		{"USD", USD(4900), 4900, "usd", "$49.00"},
		{"EUR", EUR(19900), 19900, "eur", "€199.00"},
		{"Zero RUB", Zero("RUB"), 0, "rub", "0.00 ₽"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyFormatMajor(t *testing.T) {
	tests := []struct {
		money    Money
		expected string
	}{
		{RUB(199000), "1990.00"},
		{USD(1), "0.01"},
		{USD(0), "0.00"},
		{USD(-4900), "-49.00"},
		{Money{Amount: 100, Currency: "jpy"}, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.money.FormatMajor(); got != tt.expected {
				t.Errorf("FormatMajor: got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestMoneyMajor(t *testing.T) {
	if got := RUB(299000).Major(); got != 2990 {
		t.Errorf("Major: got %d, want 2990", got)
	}
	if got := RUB(299000).CurrencyCode(); got != "RUB" {
		t.Errorf("CurrencyCode: got %s, want RUB", got)
	}
}

func TestMoneyAdd(t *testing.T) {
	if got := RUB(100).Add(RUB(250)); !got.Equal(RUB(350)) {
		t.Errorf("Add: got %v, want %v", got, RUB(350))
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	_ = RUB(100).Add(USD(100))
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(RUB(199000))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	expected := `{"amount":199000,"currency":"rub","display":"1990.00 ₽"}`
	if string(data) != expected {
		t.Errorf("JSON: got %s, want %s", string(data), expected)
	}
}
