// Package sales loads monthly per-product demand from the sales schema
// (marcas, productos, ventas). The schema lives either in the application
// PostgreSQL database or in an external MySQL/MariaDB database.
package sales

import (
	"context"
	"fmt"

	"github.com/JaimeStill/verne/pkg/abcxyz"
)

// System defines the public contract for the sales loader.
type System interface {
	// Load aggregates sales per product and month over the trailing window
	// ending at the month of the latest sale, or the current month when no
	// sales exist. Every catalog product is present, zero-filled when it
	// sold nothing in the window.
	Load(ctx context.Context) (*abcxyz.Dataset, error)
	// Precheck reports whether the sales data can support a run.
	Precheck(ctx context.Context) (*Precheck, error)
	// Source adapts Load for abcxyz.Runner.
	Source() abcxyz.Source
}

// Precheck is the readiness report for a database-backed run.
type Precheck struct {
	OK       bool     `json:"ok"`
	Reasons  []string `json:"reasons"`
	Window   []string `json:"window"`
	Months   int      `json:"months"`
	Products int      `json:"products"`
	Sales    int      `json:"sales"`
}

// Counts are the raw figures a Precheck is evaluated from.
type Counts struct {
	Products int
	Sales    int
	Months   int
}

// Evaluate turns counts over window into a Precheck. A run needs at least
// one catalog product and minMonths distinct months carrying sales.
func (c Counts) Evaluate(window []string, minMonths int) *Precheck {
	p := &Precheck{
		Reasons:  []string{},
		Window:   window,
		Months:   c.Months,
		Products: c.Products,
		Sales:    c.Sales,
	}
	if p.Window == nil {
		p.Window = []string{}
	}

	if c.Products == 0 {
		p.Reasons = append(p.Reasons, "no products registered")
	}

	switch {
	case len(window) == 0 || c.Sales == 0:
		p.Reasons = append(p.Reasons, "no sales recorded in the analysis window")
	case c.Months < minMonths:
		p.Reasons = append(p.Reasons, fmt.Sprintf(
			"sales cover %d of the %d months required", c.Months, minMonths,
		))
	}

	p.OK = len(p.Reasons) == 0
	return p
}
