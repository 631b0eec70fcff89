// internal/domain/catalog/review.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/notify"
)

// ErrInvalidRating is returned for ratings outside 1..5
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// Review is a customer's rating of a product
type Review struct {
	ID                 string    `json:"id"`
	ProductID          string    `json:"product_id"`
	UserID             string    `json:"user_id"`
	Rating             int       `json:"rating"`
	Title              string    `json:"title,omitempty"`
	Comment            string    `json:"comment,omitempty"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	HelpfulCount       int       `json:"helpful_count"`
	CreatedAt          time.Time `json:"created_at"`
	Reviewer           *Reviewer `json:"user,omitempty"`
}

// Reviewer is the public part of the reviewing account
type Reviewer struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// RatingCount is one bar of the rating distribution
type RatingCount struct {
	Rating     int     `json:"rating"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ReviewSummary aggregates a product's reviews
type ReviewSummary struct {
	TotalReviews  int           `json:"total_reviews"`
	AverageRating float64       `json:"average_rating"`
	Distribution  []RatingCount `json:"distribution"`
}

// ProductReviews is a product's reviews, newest first, with their summary
type ProductReviews struct {
	Reviews []Review      `json:"reviews"`
	Summary ReviewSummary `json:"summary"`
}

// ReviewRequest is a new review as submitted by a visitor
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Title   string `json:"title" binding:"max=255"`
	Comment string `json:"comment" binding:"max=2000"`
}

// ReviewWriter stores reviews on behalf of a signed-in identity
type ReviewWriter interface {
	AddReview(ctx context.Context, identityID string, review *Review) (*Review, error)
}

// Summarize computes the average and the 5..1 distribution. Ratings are
// bucketed by their whole star count.
func Summarize(reviews []Review) ReviewSummary {
	summary := ReviewSummary{
		TotalReviews: len(reviews),
		Distribution: make([]RatingCount, 0, 5),
	}

	counts := make(map[int]int, 5)
	sum := 0
	for _, review := range reviews {
		counts[review.Rating]++
		sum += review.Rating
	}
	if len(reviews) > 0 {
		summary.AverageRating = math.Round(float64(sum)/float64(len(reviews))*100) / 100
	}

	for rating := 5; rating >= 1; rating-- {
		bar := RatingCount{Rating: rating, Count: counts[rating]}
		if len(reviews) > 0 {
			bar.Percentage = math.Round(float64(bar.Count)/float64(len(reviews))*10000) / 100
		}
		summary.Distribution = append(summary.Distribution, bar)
	}
	return summary
}

// Reviews returns the reviews of the active product with slug
func (s *Service) Reviews(ctx context.Context, slug string) (*ProductReviews, error) {
	product, err := s.gateway.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	reviews, err := s.gateway.ListProductReviews(ctx, product.ID)
	if err != nil {
		s.logger.WithError(err).WithField("product_id", product.ID).Error("Error fetching reviews")
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []Review{}
	}

	return &ProductReviews{Reviews: reviews, Summary: Summarize(reviews)}, nil
}

// AddReview stores identityID's review of the product with slug through w
func (s *Service) AddReview(ctx context.Context, w ReviewWriter, notifier notify.Notifier, identityID, slug string, req ReviewRequest) (*Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	product, err := s.gateway.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	review, err := w.AddReview(ctx, identityID, &Review{
		ProductID: product.ID,
		UserID:    identityID,
		Rating:    req.Rating,
		Title:     strings.TrimSpace(req.Title),
		Comment:   strings.TrimSpace(req.Comment),
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"product_id": product.ID,
			"user_id":    identityID,
		}).Error("Error adding review")
		notifier.Error("Failed to submit review")
		return nil, err
	}

	notifier.Success("Review submitted")
	return review, nil
}
