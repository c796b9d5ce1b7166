// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package report

import (
	"context"
	"fmt"
	"strings"
)

// fulfilled restricts orders to those that produced revenue.
const fulfilled = "o.status IN ('delivered', 'shipped')"

const lineRevenue = "oi.quantity * oi.unit_price_cents"

func (a *Analyzer) timeBased(ctx context.Context, prompt string) (string, Chart, error) {
	p := ExtractPeriod(prompt)
	lower := strings.ToLower(prompt)
	filter, args := p.Filter("o.order_date", a.ph, 1)
	period := p.Label()

	switch {
	case strings.Contains(lower, "customer") && containsAny(lower, "purchased", "bought"):
		r, err := a.row(ctx, 3, `SELECT COUNT(DISTINCT c.id), COUNT(DISTINCT o.id), SUM(`+lineRevenue+`)
			FROM customers c
			JOIN orders o ON c.id = o.customer_id
			JOIN order_items oi ON o.id = oi.order_id
			WHERE `+fulfilled+filter, args...)
		if err != nil {
			return "", Chart{}, err
		}
		customers, orders, revenue := num(r[0]), num(r[1]), num(r[2])
		if customers == 0 {
			return a.noData(ctx, "📅 Time-Based Customer Analysis", period)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "📅 Time-Based Customer Analysis\n\n🛒 Customer Purchase Activity for %s:\n\n", period)
		fmt.Fprintf(&b, "👥 Total Customers Who Purchased: %.0f\n", customers)
		fmt.Fprintf(&b, "📦 Total Orders Placed: %.0f\n", orders)
		fmt.Fprintf(&b, "💰 Total Revenue Generated: %s\n\n", money(revenue))
		b.WriteString("📊 Analysis:\n")
		fmt.Fprintf(&b, "• Average orders per customer: %.1f orders\n", ratio(orders, customers))
		fmt.Fprintf(&b, "• Average revenue per customer: %s\n", money(ratio(revenue, customers)))
		fmt.Fprintf(&b, "• Average order value: %s", money(ratio(revenue, orders)))

		daily, err := a.rows(ctx, `SELECT substr(o.order_date, 9, 2) AS day, COUNT(DISTINCT o.customer_id), COUNT(DISTINCT o.id)
			FROM orders o
			WHERE `+fulfilled+filter+`
			GROUP BY substr(o.order_date, 9, 2)
			ORDER BY day`, args...)
		if err != nil {
			return "", Chart{}, err
		}
		var labels []string
		var cs, os []float64
		for _, d := range daily {
			labels = append(labels, "Day "+text(d[0]))
			cs = append(cs, num(d[1]))
			os = append(os, num(d[2]))
		}
		return b.String(), lineChart("Customer Activity - "+period, labels,
			lineSeries("Customers", cs, tealLine, tealFill),
			lineSeries("Orders", os, pinkLine, pinkFill)), nil

	case containsAny(lower, "revenue", "sales"):
		r, err := a.row(ctx, 2, `SELECT COUNT(DISTINCT o.id), SUM(`+lineRevenue+`)
			FROM orders o
			JOIN order_items oi ON o.id = oi.order_id
			WHERE `+fulfilled+filter, args...)
		if err != nil {
			return "", Chart{}, err
		}
		orders, revenue := num(r[0]), num(r[1])
		if orders == 0 {
			return a.noData(ctx, "💰 Revenue Analysis", period)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "💰 Revenue Analysis for %s\n\n📊 Financial Performance:\n", period)
		fmt.Fprintf(&b, "• Total Revenue: %s\n", money(revenue))
		fmt.Fprintf(&b, "• Total Orders: %.0f\n", orders)
		fmt.Fprintf(&b, "• Average Order Value: %s", money(ratio(revenue, orders)))

		top, err := a.rows(ctx, `SELECT p.name, SUM(oi.quantity), SUM(`+lineRevenue+`) AS revenue
			FROM products p
			JOIN order_items oi ON p.id = oi.product_id
			JOIN orders o ON oi.order_id = o.id
			WHERE `+fulfilled+filter+`
			GROUP BY p.id, p.name
			ORDER BY revenue DESC
			LIMIT 5`, args...)
		if err != nil {
			return "", Chart{}, err
		}
		var labels []string
		var data []float64
		for _, t := range top {
			labels = append(labels, text(t[0]))
			data = append(data, num(t[2])/100)
		}
		return b.String(), barChart("Top Products by Revenue - "+period, "Revenue ($)", labels, data, greenFill, greenLine), nil

	default:
		r, err := a.row(ctx, 4, `SELECT COUNT(DISTINCT c.id), COUNT(DISTINCT o.id), COUNT(DISTINCT p.id), SUM(`+lineRevenue+`)
			FROM customers c
			JOIN orders o ON c.id = o.customer_id
			JOIN order_items oi ON o.id = oi.order_id
			JOIN products p ON oi.product_id = p.id
			WHERE `+fulfilled+filter, args...)
		if err != nil {
			return "", Chart{}, err
		}
		customers, orders, products, revenue := num(r[0]), num(r[1]), num(r[2]), num(r[3])
		if orders == 0 {
			return a.noData(ctx, "📅 Business Activity", period)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "📅 Business Activity for %s\n\n📊 Key Metrics:\n", period)
		fmt.Fprintf(&b, "• Active Customers: %.0f\n", customers)
		fmt.Fprintf(&b, "• Total Orders: %.0f\n", orders)
		fmt.Fprintf(&b, "• Products Sold: %.0f\n", products)
		fmt.Fprintf(&b, "• Total Revenue: %s\n\n", money(revenue))
		b.WriteString("📈 Performance Indicators:\n")
		fmt.Fprintf(&b, "• Orders per customer: %.1f\n", ratio(orders, customers))
		fmt.Fprintf(&b, "• Revenue per customer: %s\n", money(ratio(revenue, customers)))
		fmt.Fprintf(&b, "• Average order value: %s", money(ratio(revenue, orders)))

		return b.String(), doughnutChart("Activity Breakdown - "+period,
			[]string{"Customers", "Orders", "Products"}, []float64{customers, orders, products}), nil
	}
}

// noData lists the months that do have fulfilled orders.
func (a *Analyzer) noData(ctx context.Context, heading, period string) (string, Chart, error) {
	months, err := a.rows(ctx, `SELECT substr(o.order_date, 1, 7) AS month, COUNT(DISTINCT o.customer_id), COUNT(DISTINCT o.id), SUM(`+lineRevenue+`)
		FROM orders o
		JOIN order_items oi ON o.id = oi.order_id
		WHERE `+fulfilled+`
		GROUP BY substr(o.order_date, 1, 7)
		ORDER BY month`)
	if err != nil {
		return "", Chart{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n❌ No Data Found for %s\n\n🔍 Available Data in Database:\n", heading, period)
	var labels []string
	var data []float64
	for _, m := range months {
		fmt.Fprintf(&b, "• %s: %.0f customers, %.0f orders, %s revenue\n", text(m[0]), num(m[1]), num(m[2]), money(num(m[3])))
		labels = append(labels, text(m[0]))
		data = append(data, num(m[1]))
	}
	if len(months) > 0 {
		first, last := text(months[0][0]), text(months[len(months)-1][0])
		fmt.Fprintf(&b, "\n💡 The database contains order data from %s to %s.", first, last)
	} else {
		b.WriteString("\n💡 No order data found in the database.")
	}
	return b.String(), barChart("Available Data by Month", "Customers", labels, data, blueFill, blueLine), nil
}

func (a *Analyzer) sales(ctx context.Context) (string, Chart, error) {
	total, err := a.row(ctx, 1, `SELECT SUM(`+lineRevenue+`)
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.id
		WHERE `+fulfilled)
	if err != nil {
		return "", Chart{}, err
	}
	regions, err := a.rows(ctx, `SELECT c.region, SUM(`+lineRevenue+`) AS revenue
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.id
		JOIN customers c ON o.customer_id = c.id
		WHERE `+fulfilled+`
		GROUP BY c.region
		ORDER BY revenue DESC`)
	if err != nil {
		return "", Chart{}, err
	}
	top, err := a.rows(ctx, `SELECT p.name, SUM(oi.quantity) AS total_sold, SUM(`+lineRevenue+`)
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		JOIN orders o ON oi.order_id = o.id
		WHERE `+fulfilled+`
		GROUP BY p.id, p.name
		ORDER BY total_sold DESC
		LIMIT 5`)
	if err != nil {
		return "", Chart{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📈 Sales Performance Analysis\n\n💰 Total Revenue: %s\n\n🌍 Revenue by Region:\n", money(num(total[0])))
	var labels []string
	var data []float64
	for _, r := range regions {
		fmt.Fprintf(&b, "• %s: %s\n", text(r[0]), money(num(r[1])))
		labels = append(labels, text(r[0]))
		data = append(data, num(r[1])/100)
	}
	b.WriteString("\n🏆 Top Selling Products:\n")
	for _, p := range top {
		fmt.Fprintf(&b, "• %s: %.0f units (%s)\n", text(p[0]), num(p[1]), money(num(p[2])))
	}

	return b.String(), barChart("Revenue by Region", "Revenue ($)", labels, data, seriesFill, seriesLine), nil
}

func (a *Analyzer) customers(ctx context.Context, prompt string) (string, Chart, error) {
	lower := strings.ToLower(prompt)

	regions, err := a.rows(ctx, `SELECT region, COUNT(*) AS customer_count
		FROM customers
		GROUP BY region
		ORDER BY customer_count DESC, region`)
	if err != nil {
		return "", Chart{}, err
	}
	stats, err := a.row(ctx, 3, `SELECT
			(SELECT COUNT(*) FROM customers),
			(SELECT COUNT(*) FROM orders o WHERE `+fulfilled+`),
			(SELECT AVG(o.total_cents) FROM orders o WHERE `+fulfilled+`)`)
	if err != nil {
		return "", Chart{}, err
	}
	top, err := a.rows(ctx, `SELECT c.name, c.region, SUM(`+lineRevenue+`) AS total_spent, COUNT(DISTINCT o.id)
		FROM customers c
		JOIN orders o ON c.id = o.customer_id
		JOIN order_items oi ON o.id = oi.order_id
		WHERE `+fulfilled+`
		GROUP BY c.id, c.name, c.region
		ORDER BY total_spent DESC
		LIMIT 5`)
	if err != nil {
		return "", Chart{}, err
	}

	customers, orders := num(stats[0]), num(stats[1])
	var b strings.Builder
	b.WriteString("👥 Customer Analysis\n\n📊 Customer Overview:\n")
	fmt.Fprintf(&b, "• Total Customers: %.0f\n", customers)
	fmt.Fprintf(&b, "• Total Orders: %.0f\n", orders)
	fmt.Fprintf(&b, "• Average Order Value: %s\n\n🌍 Customers by Region:\n", money(num(stats[2])))

	var labels []string
	var data []float64
	for _, r := range regions {
		fmt.Fprintf(&b, "• %s: %.0f customers\n", text(r[0]), num(r[1]))
		labels = append(labels, text(r[0]))
		data = append(data, num(r[1]))
	}
	b.WriteString("\n💎 Top Customers by Spending:\n")
	for _, c := range top {
		fmt.Fprintf(&b, "• %s (%s): %s (%.0f orders)\n", text(c[0]), text(c[1]), money(num(c[2])), num(c[3]))
	}

	if containsAny(lower, "purchased", "bought") {
		fmt.Fprintf(&b, "\n🛒 Purchase Behavior:\n• %.0f customers, %.0f fulfilled orders\n• Average of %.1f orders per customer\n",
			customers, orders, ratio(orders, customers))
	}
	if containsAny(lower, "region", "demographic") && len(regions) > 0 {
		fmt.Fprintf(&b, "\n🌍 Regional Distribution:\n• %s has the most customers (%.0f)\n• Regional diversity: %d different regions represented\n",
			text(regions[0][0]), num(regions[0][1]), len(regions))
	}

	return strings.TrimRight(b.String(), "\n"), doughnutChart("Customer Distribution by Region", labels, data), nil
}

func (a *Analyzer) products(ctx context.Context) (string, Chart, error) {
	categories, err := a.rows(ctx, `SELECT category, COUNT(*) AS product_count, AVG(price_cents)
		FROM products
		GROUP BY category
		ORDER BY product_count DESC, category`)
	if err != nil {
		return "", Chart{}, err
	}
	best, err := a.rows(ctx, `SELECT p.name, p.category, SUM(oi.quantity) AS total_sold, SUM(`+lineRevenue+`)
		FROM products p
		JOIN order_items oi ON p.id = oi.product_id
		JOIN orders o ON oi.order_id = o.id
		WHERE `+fulfilled+`
		GROUP BY p.id, p.name, p.category
		ORDER BY total_sold DESC
		LIMIT 5`)
	if err != nil {
		return "", Chart{}, err
	}
	price, err := a.row(ctx, 4, `SELECT MIN(price_cents), MAX(price_cents), AVG(price_cents), COUNT(*) FROM products`)
	if err != nil {
		return "", Chart{}, err
	}

	var b strings.Builder
	b.WriteString("🛍️ Product Analysis\n\n📦 Product Overview:\n")
	fmt.Fprintf(&b, "• Total Products: %.0f\n", num(price[3]))
	fmt.Fprintf(&b, "• Price Range: %s - %s\n", money(num(price[0])), money(num(price[1])))
	fmt.Fprintf(&b, "• Average Price: %s\n\n📊 Products by Category:\n", money(num(price[2])))

	var labels []string
	var data []float64
	for _, c := range categories {
		fmt.Fprintf(&b, "• %s: %.0f products (avg: %s)\n", text(c[0]), num(c[1]), money(num(c[2])))
		labels = append(labels, text(c[0]))
		data = append(data, num(c[1]))
	}
	b.WriteString("\n🏆 Best Selling Products:\n")
	for _, p := range best {
		fmt.Fprintf(&b, "• %s (%s): %.0f sold (%s)\n", text(p[0]), text(p[1]), num(p[2]), money(num(p[3])))
	}

	return strings.TrimRight(b.String(), "\n"),
		barChart("Products by Category", "Number of Products", labels, data, violetFill, violetLine), nil
}

func (a *Analyzer) orders(ctx context.Context) (string, Chart, error) {
	statuses, err := a.rows(ctx, `SELECT status, COUNT(*) AS order_count, AVG(total_cents)
		FROM orders
		GROUP BY status
		ORDER BY order_count DESC, status`)
	if err != nil {
		return "", Chart{}, err
	}
	monthly, err := a.rows(ctx, `SELECT substr(order_date, 1, 7) AS month, COUNT(*)
		FROM orders
		GROUP BY substr(order_date, 1, 7)
		ORDER BY month`)
	if err != nil {
		return "", Chart{}, err
	}

	var b strings.Builder
	b.WriteString("📦 Order Analysis\n\n📊 Order Status Distribution:\n")
	for _, s := range statuses {
		fmt.Fprintf(&b, "• %s: %.0f orders\n", capitalize(text(s[0])), num(s[1]))
	}
	b.WriteString("\n💰 Average Order Value by Status:\n")
	for _, s := range statuses {
		if s[2] == nil {
			continue
		}
		fmt.Fprintf(&b, "• %s: %s (%.0f orders)\n", capitalize(text(s[0])), money(num(s[2])), num(s[1]))
	}

	var labels []string
	var data []float64
	for _, m := range monthly {
		labels = append(labels, text(m[0]))
		data = append(data, num(m[1]))
	}
	return strings.TrimRight(b.String(), "\n"),
		lineChart("Monthly Order Trend", labels, lineSeries("Number of Orders", data, tealLine, tealFill)), nil
}

func (a *Analyzer) general(ctx context.Context) (string, Chart, error) {
	stats, err := a.row(ctx, 4, `SELECT
			(SELECT COUNT(*) FROM customers),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM orders),
			(SELECT SUM(`+lineRevenue+`) FROM order_items oi JOIN orders o ON oi.order_id = o.id WHERE `+fulfilled+`)`)
	if err != nil {
		return "", Chart{}, err
	}
	recent, err := a.rows(ctx, `SELECT o.id, c.name, o.order_date, o.status
		FROM orders o
		JOIN customers c ON o.customer_id = c.id
		ORDER BY o.order_date DESC, o.id DESC
		LIMIT 5`)
	if err != nil {
		return "", Chart{}, err
	}

	customers, products, orders, revenue := num(stats[0]), num(stats[1]), num(stats[2]), num(stats[3])
	var b strings.Builder
	b.WriteString("📊 General Analytics Dashboard\n\n🎯 Key Metrics:\n")
	fmt.Fprintf(&b, "• Total Customers: %.0f\n", customers)
	fmt.Fprintf(&b, "• Total Products: %.0f\n", products)
	fmt.Fprintf(&b, "• Total Orders: %.0f\n", orders)
	fmt.Fprintf(&b, "• Total Revenue: %s\n\n📈 Recent Activity:\n", money(revenue))
	for _, o := range recent {
		fmt.Fprintf(&b, "• Order %s: %s - %s (%s)\n", text(o[0]), text(o[1]), text(o[2]), text(o[3]))
	}

	return strings.TrimRight(b.String(), "\n"), barChart("Business Overview", "Count/Value",
		[]string{"Customers", "Products", "Orders", "Revenue ($)"},
		[]float64{customers, products, orders, revenue / 100}, seriesFill, seriesLine), nil
}
