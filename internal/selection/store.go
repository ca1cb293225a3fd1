// Package selection хранит выбранное количество номеров по строкам инвентаря.
package selection

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mmeshcher/silkroad-booking/internal/model"
)

var (
	// ErrUnknownLine возвращается для строки, которой нет в последнем результате поиска.
	ErrUnknownLine = errors.New("inventory line not found")
	// ErrExceedsAvailable возвращается, если количество превышает число свободных номеров.
	ErrExceedsAvailable = errors.New("quantity exceeds available count")
)

// Store хранит неизменяемый набор выбранных количеств. Каждая мутация возвращает новое значение,
// поэтому Store можно безопасно хранить внутри черновика бронирования.
//
// Инвариант: для каждой записи 0 < quantity <= availableCount строки на момент последнего поиска.
type Store struct {
	quantities map[int]int
	available  map[int]int
}

// New создаёт пустой выбор для указанного инвентаря.
func New(inventory model.Inventory) Store {
	available := make(map[int]int, len(inventory))
	for _, l := range inventory {
		available[l.ID] = l.AvailableCount
	}
	return Store{
		quantities: map[int]int{},
		available:  available,
	}
}

// Reapply создаёт выбор для нового инвентаря и переносит в него заданные количества.
// Строки, отсутствующие в инвентаре, отбрасываются, количества обрезаются до доступных.
func Reapply(inventory model.Inventory, quantities map[int]int) Store {
	s := New(inventory)
	for id, qty := range quantities {
		avail, ok := s.available[id]
		if !ok || qty <= 0 || avail <= 0 {
			continue
		}
		if qty > avail {
			qty = avail
		}
		s.quantities[id] = qty
	}
	return s
}

// SetQuantity возвращает выбор с новым количеством для строки.
// Количество <= 0 удаляет запись.
func (s Store) SetQuantity(lineID, quantity int) (Store, error) {
	if quantity <= 0 {
		if _, ok := s.quantities[lineID]; !ok {
			return s, nil
		}
		next := s.clone()
		delete(next.quantities, lineID)
		return next, nil
	}

	avail, ok := s.available[lineID]
	if !ok {
		return s, fmt.Errorf("%w: %d", ErrUnknownLine, lineID)
	}
	if quantity > avail {
		return s, fmt.Errorf("%w: line %d has %d, requested %d", ErrExceedsAvailable, lineID, avail, quantity)
	}

	next := s.clone()
	next.quantities[lineID] = quantity
	return next, nil
}

// Quantity возвращает выбранное количество для строки.
func (s Store) Quantity(lineID int) int {
	return s.quantities[lineID]
}

// Empty сообщает, что ни одна строка не выбрана.
func (s Store) Empty() bool {
	return len(s.quantities) == 0
}

// Quantities возвращает копию выбранных количеств.
func (s Store) Quantities() map[int]int {
	out := make(map[int]int, len(s.quantities))
	for id, qty := range s.quantities {
		out[id] = qty
	}
	return out
}

// LineIDs возвращает выбранные строки по возрастанию идентификатора.
func (s Store) LineIDs() []int {
	ids := make([]int, 0, len(s.quantities))
	for id := range s.quantities {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s Store) clone() Store {
	q := make(map[int]int, len(s.quantities)+1)
	for id, qty := range s.quantities {
		q[id] = qty
	}
	return Store{quantities: q, available: s.available}
}
