package receipt_test

import (
	"strings"
	"testing"

	"github.com/matchacafe/api/internal/ledger"
	"github.com/matchacafe/api/internal/receipt"
	"github.com/shopspring/decimal"
)

func sampleOrder() ledger.Order {
	return ledger.Order{
		OrderID:     "ORD-20250314093000-nam-9999",
		CreatedAt:   "2025-03-14T09:30:00Z",
		Name:        "Nam",
		Phone:       "0899999999",
		Menu:        "clear matcha (50 บาท)",
		Sweetness:   "หวานปกติ",
		Temperature: "เย็น",
		Price:       decimal.NewFromInt(50),
		DeliveryFee: decimal.Zero,
		TotalPrice:  decimal.NewFromInt(50),
		SlipFile:    "slip_abc.jpg",
	}
}

func TestRenderContainsAllFields(t *testing.T) {
	doc, err := receipt.Render(sampleOrder())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(doc)

	for _, want := range []string{
		"ORD-20250314093000-nam-9999",
		"Nam",
		"0899999999",
		"clear matcha (50 บาท)",
		"หวานปกติ",
		"เย็น",
		"50.00",
		"ขอบคุณ",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("receipt missing %q", want)
		}
	}
}

func TestRenderOptionalRows(t *testing.T) {
	o := sampleOrder()
	doc, err := receipt.Render(o)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(doc), "Delivery fee") {
		t.Error("zero-fee receipt should omit the delivery row")
	}
	if strings.Contains(string(doc), ">Note<") {
		t.Error("empty note should omit the note row")
	}

	o.Note = "extra ice"
	o.DeliveryFee = decimal.NewFromInt(5)
	o.TotalPrice = decimal.NewFromInt(55)
	doc, err = receipt.Render(o)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(doc)
	if !strings.Contains(html, "extra ice") {
		t.Error("note row missing")
	}
	if !strings.Contains(html, "5.00") || !strings.Contains(html, "55.00") {
		t.Error("delivery fee breakdown missing")
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	o := sampleOrder()
	o.Note = `<script>alert("x")</script>`
	doc, err := receipt.Render(o)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(doc), "<script>") {
		t.Error("note was not escaped")
	}
}

func TestFilename(t *testing.T) {
	if got := receipt.Filename("ORD-1"); got != "receipt_ORD-1.html" {
		t.Errorf("filename: got %q", got)
	}
}
