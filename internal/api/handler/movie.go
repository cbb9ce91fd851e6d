package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-cinema-reservation/internal/domain/movie"
)

type MovieHandler struct {
	service CatalogServiceInterface
}

func NewMovieHandler(s CatalogServiceInterface) *MovieHandler {
	return &MovieHandler{service: s}
}

type MovieResponse struct {
	ID          int64  `json:"id" example:"3"`
	Title       string `json:"title" example:"素晴らしき映画"`
	DurationMin int    `json:"duration_min" example:"124"`
	PosterURL   string `json:"poster_url,omitempty"`
	Synopsis    string `json:"synopsis,omitempty"`
}

func toMovieResponse(m *movie.Movie) MovieResponse {
	return MovieResponse{
		ID: m.ID, Title: m.Title, DurationMin: m.DurationMin,
		PosterURL: m.PosterURL, Synopsis: m.Synopsis,
	}
}

// List godoc
// @Summary 映画一覧を取得
// @Tags movies
// @Produce json
// @Success 200 {array} MovieResponse
// @Router /movies [get]
func (h *MovieHandler) List(c echo.Context) error {
	movies, err := h.service.ListMovies(c.Request().Context())
	if err != nil {
		return err
	}
	resp := make([]MovieResponse, len(movies))
	for i, m := range movies {
		resp[i] = toMovieResponse(m)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary 映画を取得
// @Tags movies
// @Produce json
// @Param id path int true "映画ID"
// @Success 200 {object} MovieResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /movies/{id} [get]
func (h *MovieHandler) GetByID(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	m, err := h.service.GetMovie(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMovieResponse(m))
}
