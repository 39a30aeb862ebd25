package catalog

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Sweetness levels offered for every drink. The labels are what the
// stand prints on cups, so they stay in Thai.
const (
	SweetnessLow    = "หวานน้อย"
	SweetnessNormal = "หวานปกติ"
	SweetnessHigh   = "หวานมาก"
)

// Temperature options.
const (
	TempHot  = "ร้อน"
	TempCold = "เย็น"
)

var ErrUnknownItem = errors.New("menu item not in catalog")

// Item is one orderable drink with its fixed price.
type Item struct {
	Name  string
	Price decimal.Decimal
}

// Catalog is the menu a wizard instance sells from. It is plain data so
// a stand can run a different drink list without code changes.
type Catalog struct {
	items       []Item
	sweetness   []string
	temperature []string
	defSweet    string
	defTemp     string
}

// New builds a catalog from an ordered item list. Item order is
// preserved and drives the form's display order. The form defaults are
// named explicitly; an empty default falls back to the first option.
func New(items []Item, sweetness, temperature []string, defaultSweetness, defaultTemperature string) *Catalog {
	return &Catalog{
		items:       items,
		sweetness:   sweetness,
		temperature: temperature,
		defSweet:    defaultSweetness,
		defTemp:     defaultTemperature,
	}
}

// Default returns the canonical matcha stand menu.
func Default() *Catalog {
	return New(
		[]Item{
			{Name: "matcha oat milk (60 บาท)", Price: decimal.NewFromInt(60)},
			{Name: "matcha fresh milk (60 บาท)", Price: decimal.NewFromInt(60)},
			{Name: "clear matcha (50 บาท)", Price: decimal.NewFromInt(50)},
			{Name: "coconut matcha (60 บาท)", Price: decimal.NewFromInt(60)},
		},
		[]string{SweetnessLow, SweetnessNormal, SweetnessHigh},
		[]string{TempHot, TempCold},
		SweetnessNormal,
		TempCold,
	)
}

// Price looks up the fixed price of a menu item.
func (c *Catalog) Price(name string) (decimal.Decimal, error) {
	for _, it := range c.items {
		if it.Name == name {
			return it.Price, nil
		}
	}
	return decimal.Zero, ErrUnknownItem
}

func (c *Catalog) ValidMenu(name string) bool {
	_, err := c.Price(name)
	return err == nil
}

func (c *Catalog) ValidSweetness(level string) bool {
	return contains(c.sweetness, level)
}

func (c *Catalog) ValidTemperature(temp string) bool {
	return contains(c.temperature, temp)
}

// Items returns the menu in display order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) SweetnessLevels() []string {
	out := make([]string, len(c.sweetness))
	copy(out, c.sweetness)
	return out
}

func (c *Catalog) Temperatures() []string {
	out := make([]string, len(c.temperature))
	copy(out, c.temperature)
	return out
}

// DefaultSweetness is the pre-selected level on the order form.
func (c *Catalog) DefaultSweetness() string {
	if c.defSweet != "" {
		return c.defSweet
	}
	if len(c.sweetness) > 0 {
		return c.sweetness[0]
	}
	return ""
}

// DefaultTemperature is the pre-selected temperature on the order form.
func (c *Catalog) DefaultTemperature() string {
	if c.defTemp != "" {
		return c.defTemp
	}
	if len(c.temperature) > 0 {
		return c.temperature[0]
	}
	return ""
}

// DefaultMenu is the pre-selected drink on the order form.
func (c *Catalog) DefaultMenu() string {
	if len(c.items) == 0 {
		return ""
	}
	return c.items[0].Name
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
