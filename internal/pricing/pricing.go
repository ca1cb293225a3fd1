// Package pricing вычисляет стоимость выбранных номеров.
package pricing

import "github.com/mmeshcher/silkroad-booking/internal/model"

// Total возвращает сумму TotalPriceForStay × количество по всем выбранным строкам.
// Строки, отсутствующие в inventory, дают нулевой вклад.
func Total(selection map[int]int, inventory model.Inventory) float64 {
	if len(selection) == 0 {
		return 0
	}

	byID := make(map[int]float64, len(inventory))
	for _, l := range inventory {
		byID[l.ID] = l.TotalPriceForStay
	}

	total := 0.0
	for id, qty := range selection {
		if qty <= 0 {
			continue
		}
		price, ok := byID[id]
		if !ok || price < 0 {
			continue
		}
		total += price * float64(qty)
	}

	return total
}

// Rooms возвращает общее количество выбранных номеров.
func Rooms(selection map[int]int) int {
	n := 0
	for _, qty := range selection {
		if qty > 0 {
			n += qty
		}
	}
	return n
}
