// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package fixture

import (
	"fmt"
	"strings"
	"time"
)

// Options sizes the generated data set.
type Options struct {
	Customers int
	Products  int
	Orders    int
	// Reset drops existing fixture tables before loading.
	Reset bool
}

// DefaultOptions returns the classroom data set size.
func DefaultOptions() Options {
	return Options{Customers: 10, Products: 10, Orders: 10}
}

func (o Options) validate() error {
	if o.Customers <= 0 || o.Products <= 0 || o.Orders < 0 {
		return fmt.Errorf("fixture needs at least one customer and product, got customers=%d products=%d orders=%d",
			o.Customers, o.Products, o.Orders)
	}
	return nil
}

var (
	baseCustomers = []struct{ name, region string }{
		{"John Doe", "North America"},
		{"Jane Smith", "Europe"},
		{"Bob Johnson", "Asia"},
		{"Alice Brown", "North America"},
		{"Charlie Wilson", "Europe"},
		{"Diana Davis", "Asia"},
		{"Eve Miller", "North America"},
		{"Frank Garcia", "Europe"},
		{"Grace Lee", "Asia"},
		{"Henry Taylor", "North America"},
	}
	baseProducts = []struct {
		name, category string
		price          int64
	}{
		{"Laptop Pro", "Electronics", 150000},
		{"Wireless Mouse", "Electronics", 5000},
		{"Programming Book", "Books", 3000},
		{"Coffee Mug", "Accessories", 1500},
		{"Desk Lamp", "Furniture", 8000},
		{"Notebook", "Stationery", 800},
		{"USB Cable", "Electronics", 1200},
		{"Water Bottle", "Accessories", 2000},
		{"Keyboard", "Electronics", 12000},
		{"Monitor Stand", "Furniture", 6000},
	}
	regions        = []string{"North America", "Europe", "Asia", "South America"}
	categories     = []string{"Electronics", "Books", "Accessories", "Furniture", "Stationery"}
	statuses       = []string{"delivered", "shipped", "pending"}
	paymentMethods = []string{"credit_card", "paypal", "debit_card"}
	refundReasons  = []string{"Customer requested cancellation", "Product defect"}

	firstOrderDate = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
)

// dataset is the generated rows per table, in column order.
type dataset map[string][][]any

func generate(o Options) dataset {
	d := dataset{}

	prices := make([]int64, o.Products)
	for i := 0; i < o.Customers; i++ {
		id := i + 1
		name, region := fmt.Sprintf("Customer %d", id), regions[i%len(regions)]
		if i < len(baseCustomers) {
			name, region = baseCustomers[i].name, baseCustomers[i].region
		}
		email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"
		d["customers"] = append(d["customers"], []any{id, name, email, region})
	}

	for i := 0; i < o.Products; i++ {
		id := i + 1
		name, category, price := fmt.Sprintf("Product %d", id), categories[i%len(categories)], int64(1000+(i*737)%20000)
		if i < len(baseProducts) {
			name, category, price = baseProducts[i].name, baseProducts[i].category, baseProducts[i].price
		}
		prices[i] = price
		d["products"] = append(d["products"], []any{id, name, category, price})
	}

	itemID, paymentID, refundID := 0, 0, 0
	for i := 0; i < o.Orders; i++ {
		id := i + 1
		customerID := i%o.Customers + 1
		status := statuses[i%len(statuses)]
		date := firstOrderDate.AddDate(0, 0, i*9).Format("2006-01-02")

		// One or two line items; every third order buys a second product.
		var total int64
		lines := []int{(i*3)%o.Products + 1}
		if i%3 == 0 && o.Products > 1 {
			lines = append(lines, (i*3+1)%o.Products+1)
		}
		for _, productID := range lines {
			itemID++
			qty := int64(1 + i%2)
			price := prices[productID-1]
			total += qty * price
			d["order_items"] = append(d["order_items"], []any{itemID, id, productID, qty, price})
		}

		d["orders"] = append(d["orders"], []any{id, customerID, date, status, total})

		switch status {
		case "pending":
			refundID++
			refundStatus := "completed"
			if refundID%2 == 0 {
				refundStatus = "pending"
			}
			d["refunds"] = append(d["refunds"], []any{refundID, id, total, refundReasons[(refundID-1)%len(refundReasons)], refundStatus})
		default:
			paymentID++
			d["payments"] = append(d["payments"], []any{paymentID, id, total, paymentMethods[(paymentID-1)%len(paymentMethods)], "completed"})
		}
	}

	return d
}
