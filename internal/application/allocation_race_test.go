package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-cinema-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/room"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/transaction"
)

// nopTx は何もしないトランザクション
type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

// serialTxManager はストア全体を1つのミューテックスで直列化する
// 行ロックと一意制約が最終的に保証する「確保の直列化」をメモリ上で再現する
type serialTxManager struct {
	mu *sync.Mutex
}

func (m *serialTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	return nopTx{}, nil
}

func (m *serialTxManager) WithinTx(ctx context.Context, fn func(tx transaction.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(nopTx{})
}

// memStore は座席割当に関わる状態だけを持つインメモリのストア
type memStore struct {
	MockReservationRepository

	reservations map[int64]*reservation.WithScreening
	taken        map[int64]int64 // seatID → reservationID
	assignments  map[int64][]reservation.Assignment
}

func newMemStore() *memStore {
	return &memStore{
		reservations: make(map[int64]*reservation.WithScreening),
		taken:        make(map[int64]int64),
		assignments:  make(map[int64][]reservation.Assignment),
	}
}

func (s *memStore) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*reservation.WithScreening, error) {
	rws, ok := s.reservations[id]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}
	copied := *rws
	return &copied, nil
}

func (s *memStore) GetTakenSeatIDs(ctx context.Context, tx transaction.Tx, screeningID int64, seatIDs []int64) ([]int64, error) {
	var conflicts []int64
	for _, id := range seatIDs {
		if _, ok := s.taken[id]; ok {
			conflicts = append(conflicts, id)
		}
	}
	return conflicts, nil
}

func (s *memStore) InsertAssignments(ctx context.Context, tx transaction.Tx, reservationID, screeningID int64, seatIDs []int64, price int) error {
	for _, id := range seatIDs {
		if _, ok := s.taken[id]; ok {
			// (screening_id, seat_id) 一意制約に相当
			return &reservation.SeatsTakenError{}
		}
	}
	for _, id := range seatIDs {
		s.taken[id] = reservationID
		s.assignments[reservationID] = append(s.assignments[reservationID], reservation.Assignment{
			ReservationID: reservationID, ScreeningID: screeningID, SeatID: id, Price: price,
		})
	}
	return nil
}

func (s *memStore) RecomputeTotal(ctx context.Context, tx transaction.Tx, reservationID int64) (int, error) {
	total := 0
	for _, a := range s.assignments[reservationID] {
		total += a.Price
	}
	return total, nil
}

func (s *memStore) GetAssignmentsTx(ctx context.Context, tx transaction.Tx, reservationID int64) ([]reservation.Assignment, error) {
	return s.assignments[reservationID], nil
}

// memSeats は固定の座席カタログ
type memSeats struct {
	MockRoomRepository
	seats map[int64]*room.Seat
}

func (s *memSeats) GetSeatsByIDs(ctx context.Context, tx transaction.Tx, ids []int64) ([]*room.Seat, error) {
	found := make([]*room.Seat, 0, len(ids))
	for _, id := range ids {
		if seat, ok := s.seats[id]; ok {
			found = append(found, seat)
		}
	}
	return found, nil
}

func newRaceService(store *memStore) *ReservationService {
	seats := &memSeats{seats: make(map[int64]*room.Seat)}
	for id := int64(101); id <= 104; id++ {
		seats.seats[id] = &room.Seat{ID: id, RoomID: 1, Row: "C", Number: int(id - 100)}
	}

	for _, id := range []int64{1, 2} {
		expires := testNow.Add(10 * time.Minute)
		store.reservations[id] = &reservation.WithScreening{
			Reservation: reservation.Reservation{
				ID: id, UserID: id, ScreeningID: 12,
				Status: reservation.StatusPending, ExpiresAt: &expires,
			},
			Screening: reservation.ScreeningInfo{RoomID: 1, StartsAt: testNow.Add(2 * time.Hour), Price: 1600},
		}
	}

	var mu sync.Mutex
	return NewReservationService(
		&serialTxManager{mu: &mu}, store, new(MockScreeningRepository), seats,
		fixedClock{now: testNow}, nil, nil)
}

func TestReservationService_AllocateSeats_SharedSeatExactlyOneWins(t *testing.T) {
	store := newMemStore()
	service := newRaceService(store)
	ctx := context.Background()

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = service.AllocateSeats(ctx, 1, []int64{101, 102})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = service.AllocateSeats(ctx, 2, []int64{102, 103})
	}()
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var taken *reservation.SeatsTakenError
		require.ErrorAs(t, err, &taken)
	}
	assert.Equal(t, 1, succeeded, "共有座席を含む確保は必ず一方だけが成功する")

	// 敗者の割当は一切残らない
	owner, ok := store.taken[102]
	require.True(t, ok)
	assert.Len(t, store.assignments[owner], 2)
	for seatID, res := range store.taken {
		assert.Equal(t, owner, res, "seat %d", seatID)
	}
}

func TestReservationService_AllocateSeats_DisjointSetsBothSucceed(t *testing.T) {
	store := newMemStore()
	service := newRaceService(store)
	ctx := context.Background()

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = service.AllocateSeats(ctx, 1, []int64{101, 102})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = service.AllocateSeats(ctx, 2, []int64{103, 104})
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Len(t, store.taken, 4)
	assert.Len(t, store.assignments[1], 2)
	assert.Len(t, store.assignments[2], 2)
}
