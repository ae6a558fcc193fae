package review

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"storefront/internal/api"
	"storefront/internal/models"
	"storefront/internal/store"
)

var (
	ErrNotSignedIn   = errors.New("reviews require a signed-in user")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

type Service struct {
	Client  *api.Client
	Session store.UserSource
	Log     *slog.Logger
}

func New(client *api.Client, session store.UserSource, log *slog.Logger) *Service {
	return &Service{Client: client, Session: session, Log: log}
}

func (s *Service) ListForProduct(ctx context.Context, productID int64) ([]models.Review, error) {
	return s.Client.Reviews(ctx, productID)
}

// Submit creates the user's review for a product, or updates the existing
// one. One review per (user, product) is enforced by querying first.
func (s *Service) Submit(ctx context.Context, productID int64, rating int, comment string) (models.Review, error) {
	user := s.Session.Current()
	if user == nil {
		return models.Review{}, ErrNotSignedIn
	}
	if rating < 1 || rating > 5 {
		return models.Review{}, ErrInvalidRating
	}

	existing, err := s.Client.UserReview(ctx, user.ID, productID)
	if err != nil {
		return models.Review{}, err
	}

	if len(existing) > 0 {
		return s.Client.UpdateReview(ctx, existing[0].ID, map[string]any{
			"rating":  rating,
			"comment": comment,
		})
	}

	name := user.Name
	if name == "" {
		name = user.Email
	}
	return s.Client.CreateReview(ctx, models.Review{
		UserID:    user.ID,
		ProductID: productID,
		UserName:  name,
		Rating:    rating,
		Comment:   comment,
		Date:      time.Now().UTC(),
	})
}

func (s *Service) Delete(ctx context.Context, reviewID int64) error {
	if s.Session.Current() == nil {
		return ErrNotSignedIn
	}
	return s.Client.DeleteReview(ctx, reviewID)
}

// AverageRating is the arithmetic mean rounded to one decimal, zero when
// there are no reviews.
func AverageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(reviews))
	return math.Round(mean*10) / 10
}
