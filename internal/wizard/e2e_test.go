package wizard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/silkroad-booking/internal/api"
	"github.com/mmeshcher/silkroad-booking/internal/model"
)

type fakeServer struct {
	mu       sync.Mutex
	requests map[string]int
	booking  map[string]any
}

func (f *fakeServer) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	track := func(r *http.Request) {
		f.mu.Lock()
		f.requests[r.URL.Path]++
		f.mu.Unlock()
	}

	mux.HandleFunc("/locations/countries/", func(w http.ResponseWriter, r *http.Request) {
		track(r)
		writeJSON(w, http.StatusOK, []model.Country{{ID: 173, Name: "Uzbekistan"}})
	})
	mux.HandleFunc("/hotels/12/search-rooms/", func(w http.ResponseWriter, r *http.Request) {
		track(r)
		var q map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, "2025-06-01", q["check_in"])
		assert.Equal(t, "2025-06-03", q["check_out"])
		assert.Equal(t, float64(2), q["adults"])

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"rooms": []map[string]any{{
				"room_type_id":        7,
				"room_type":           "Double",
				"capacity":            2,
				"price_per_night_usd": 100,
				"total_price_usd":     200,
				"available_count":     3,
				"features":            map[string]bool{"wifi": true},
			}},
			"search_params": map[string]any{"nights": 2},
		})
	})
	mux.HandleFunc("/hotels/bookings/", func(w http.ResponseWriter, r *http.Request) {
		track(r)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.booking = body
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"id": 501})
	})
	mux.HandleFunc("/hotels/emehmon/check/", func(w http.ResponseWriter, r *http.Request) {
		track(r)
		writeJSON(w, http.StatusOK, map[string]any{"psp": nil})
	})
	mux.HandleFunc("/hotels/payment/register/", func(w http.ResponseWriter, r *http.Request) {
		track(r)
		writeJSON(w, http.StatusOK, map[string]any{"verifyId": "vrf-77"})
	})
	mux.HandleFunc("/hotels/payment/confirm/", func(w http.ResponseWriter, r *http.Request) {
		track(r)
		var body api.ConfirmPaymentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Code != demoCode || body.VerificationID != "vrf-77" || body.OrderID != 501 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid SMS Code"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	return mux
}

func TestEndToEndBooking(t *testing.T) {
	fake := &fakeServer{requests: map[string]int{}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	client := api.NewClient(srv.URL, time.Second).WithTokens(api.NewMemoryTokens(""))
	journal := newStubJournal()
	ctx := context.Background()

	w, err := Open(ctx, client, journal, OpenParams{HotelID: 12}, testOptions())
	require.NoError(t, err)
	assert.Equal(t, StageSearchAvailability, w.Stage())

	require.NoError(t, w.Search(ctx, testCriteria()))
	snap := w.Snapshot()
	assert.Equal(t, StageSelectInventory, snap.Stage)
	assert.Equal(t, 2, snap.Nights)
	require.Len(t, snap.Inventory, 1)
	assert.True(t, snap.Inventory[0].Features.WiFi)

	require.NoError(t, w.SetQuantity(7, 2))
	assert.Equal(t, 400.0, w.Snapshot().Total)

	require.NoError(t, w.Proceed())
	fillGuest(t, w)
	require.NoError(t, w.SubmitGuest(ctx))
	assert.Equal(t, StageCardRegistration, w.Stage())

	fake.mu.Lock()
	assert.Equal(t, 400.0, fake.booking["total_price"])
	assert.Equal(t, "pending", fake.booking["booking_status"])
	fake.mu.Unlock()

	require.NoError(t, w.SubmitCard(ctx, model.Card{Number: "8600123412341234", ExpMonth: "07", ExpYear: "29"}))
	assert.Equal(t, StageCodeConfirmation, w.Stage())

	require.NoError(t, w.SubmitCode(ctx, demoCode))
	snap = w.Snapshot()
	assert.Equal(t, StageCompleted, snap.Stage)
	assert.Equal(t, int64(501), snap.Order.ID)
	assert.Equal(t, model.OrderStatusPaid, journal.status(501))

	assert.Equal(t, 1, fake.count("/locations/countries/"))
	assert.Equal(t, 1, fake.count("/hotels/bookings/"))
}

func TestEndToEndAbandonAfterOrder(t *testing.T) {
	fake := &fakeServer{requests: map[string]int{}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	client := api.NewClient(srv.URL, time.Second)
	journal := newStubJournal()
	ctx := context.Background()

	w, err := Open(ctx, client, journal, OpenParams{
		HotelID:     12,
		Stay:        testCriteria().Stay,
		Party:       testCriteria().Party,
		PreSelected: map[int]int{7: 1},
	}, testOptions())
	require.NoError(t, err)
	assert.Equal(t, StageGuestDetails, w.Stage())
	assert.Equal(t, 1, fake.count("/hotels/12/search-rooms/"))

	fillGuest(t, w)
	require.NoError(t, w.SubmitGuest(ctx))

	w.Close(ctx)

	assert.Equal(t, StageClosed, w.Stage())
	assert.Equal(t, model.OrderStatusAbandoned, journal.status(501))
	assert.Zero(t, fake.count("/hotels/payment/confirm/"))
}
