package auth

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

const (
	MinReviewRating = 1
	MaxReviewRating = 5
)

type CreateReviewMessage struct {
	ProductName string `json:"product_name"`
	AuthorName  string `json:"author_name"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
}

func (m CreateReviewMessage) Validate() error {
	m.ProductName = strings.TrimSpace(m.ProductName)
	m.AuthorName = strings.TrimSpace(m.AuthorName)
	m.Comment = strings.TrimSpace(m.Comment)
	if verr := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&m,
			validation.Field(&m.ProductName, validation.Required),
			validation.Field(&m.AuthorName, validation.Required),
			validation.Field(&m.Comment, validation.Required),
			validation.Field(&m.Rating, validation.Required, validation.Min(MinReviewRating), validation.Max(MaxReviewRating)),
		)
	}, "invalid review"); verr != nil {
		return verr.WithTextCode(TextCodeValidation).WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// UpdateReviewMessage changes rating and comment, nil fields are kept
type UpdateReviewMessage struct {
	Rating  *int    `json:"rating,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

func (m UpdateReviewMessage) Validate() error {
	if m.Rating == nil {
		return nil
	}
	if *m.Rating < MinReviewRating || *m.Rating > MaxReviewRating {
		return NewValidationError("invalid review", map[string]string{
			"rating": "must be between 1 and 5",
		})
	}
	return nil
}

// ReviewService gates review mutations with CanMutate. Reads and creation
// are public.
type ReviewService struct {
	repo     Reviews
	activity ActivitySink
	logger   Logger
}

func NewReviewService(repo Reviews) *ReviewService {
	return &ReviewService{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (s *ReviewService) WithActivitySink(sink ActivitySink) *ReviewService {
	s.activity = normalizeActivitySink(sink)
	return s
}

func (s *ReviewService) WithLogger(logger Logger) *ReviewService {
	s.logger = normalizeLogger(logger)
	return s
}

func (s *ReviewService) List(ctx context.Context) ([]*Review, error) {
	return s.repo.List(ctx)
}

func (s *ReviewService) Get(ctx context.Context, id int64) (*Review, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a review, the owner is the caller when authenticated
func (s *ReviewService) Create(ctx context.Context, p Principal, msg CreateReviewMessage) (*Review, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	review, err := s.repo.Insert(ctx, &Review{
		ProductName: strings.TrimSpace(msg.ProductName),
		AuthorName:  strings.TrimSpace(msg.AuthorName),
		Rating:      msg.Rating,
		Comment:     strings.TrimSpace(msg.Comment),
		OwnerID:     p.OwnerID(),
	})
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType:  ActivityEventReviewCreated,
		Actor:      ActorFromPrincipal(p),
		ObjectType: "review",
		ObjectID:   formatID(review.ID),
	})

	return review, nil
}

func (s *ReviewService) Update(ctx context.Context, p Principal, id int64, msg UpdateReviewMessage) (*Review, error) {
	if err := p.Require(); err != nil {
		return nil, err
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}

	review, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorizeMutation(ctx, s.activity, s.logger, p, review, "review", formatID(id)); err != nil {
		return nil, err
	}

	if msg.Rating != nil {
		review.Rating = *msg.Rating
	}
	if msg.Comment != nil {
		review.Comment = strings.TrimSpace(*msg.Comment)
	}

	if err := s.repo.UpdateContent(ctx, review); err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType:  ActivityEventReviewUpdated,
		Actor:      ActorFromPrincipal(p),
		ObjectType: "review",
		ObjectID:   formatID(id),
	})

	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, p Principal, id int64) error {
	if err := p.Require(); err != nil {
		return err
	}

	review, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := authorizeMutation(ctx, s.activity, s.logger, p, review, "review", formatID(id)); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType:  ActivityEventReviewDeleted,
		Actor:      ActorFromPrincipal(p),
		ObjectType: "review",
		ObjectID:   formatID(id),
	})

	return nil
}
