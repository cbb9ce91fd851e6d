package handler

import (
	"context"

	"github.com/sanosuguru/go-cinema-reservation/internal/application"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/movie"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/screening"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/user"
)

// CatalogServiceInterface はカタログサービスのインターフェース
type CatalogServiceInterface interface {
	ListMovies(ctx context.Context) ([]*movie.Movie, error)
	GetMovie(ctx context.Context, id int64) (*movie.Movie, error)
	ListScreenings(ctx context.Context, filter screening.ListFilter) ([]*screening.Screening, error)
	GetScreening(ctx context.Context, id int64) (*screening.Screening, error)
	GetRoomSeats(ctx context.Context, roomID int64) (*application.RoomSeats, error)
	GetAvailableSeatCount(ctx context.Context, screeningID int64) (int, error)
	GetSeatMap(ctx context.Context, screeningID int64) ([]application.SeatMapEntry, error)
}

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	CreateReservation(ctx context.Context, userID, screeningID int64, seatCount int) (*reservation.Reservation, error)
	AllocateSeats(ctx context.Context, reservationID int64, seatIDs []int64) (*application.AllocationResult, error)
	TransitionStatus(ctx context.Context, id int64, target reservation.Status) (*reservation.Reservation, error)
	GetReservation(ctx context.Context, id int64) (*reservation.Reservation, error)
	GetReservationSeats(ctx context.Context, id int64) ([]reservation.Assignment, error)
	ListReservations(ctx context.Context, filter reservation.ListFilter) ([]*reservation.Reservation, error)
}

// AuthServiceInterface は認証サービスのインターフェース
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (string, *user.User, error)
	GetProfile(ctx context.Context, userID int64) (*user.User, error)
}
