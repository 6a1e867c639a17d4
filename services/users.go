package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"civicpulse-be/engine"
	"civicpulse-be/models"
	"civicpulse-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrUserExists is returned when registration collides with an existing
// account.
var ErrUserExists = fmt.Errorf("%w: user already exists", engine.ErrValidation)

// UserService handles accounts, profiles, roles and badges.
type UserService struct {
	users   store.UserStore
	issues  store.IssueStore
	regions store.RegionStore
	trust   *trustKeeper
	now     Clock
	log     *slog.Logger
}

func NewUserService(users store.UserStore, issues store.IssueStore, regions store.RegionStore, log *slog.Logger) *UserService {
	s := &UserService{
		users:   users,
		issues:  issues,
		regions: regions,
		now:     time.Now,
		log:     log,
	}
	s.trust = &trustKeeper{users: users, now: func() time.Time { return s.now() }, log: log}
	return s
}

// RegisterInput is a new account request. Subject and EmailVerified come
// from the verified identity token, never from the request body.
type RegisterInput struct {
	Subject       string
	EmailVerified bool
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Region        primitive.ObjectID
}

// Register creates a citizen account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Subject == "" {
		return nil, engine.Invalid("identity subject is required")
	}
	first, err := engine.ValidateName("first name", in.FirstName)
	if err != nil {
		return nil, err
	}
	last, err := engine.ValidateName("last name", in.LastName)
	if err != nil {
		return nil, err
	}
	email, err := engine.ValidateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	phone, err := engine.ValidatePhone(in.Phone)
	if err != nil {
		return nil, err
	}
	if err := s.checkRegion(ctx, in.Region); err != nil {
		return nil, err
	}

	exists, err := s.users.UserExists(ctx, email, phone, in.Subject)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	now := s.now()
	user := &models.User{
		ID:               primitive.NewObjectID(),
		Subject:          in.Subject,
		FirstName:        first,
		LastName:         last,
		Email:            email,
		Phone:            phone,
		Region:           in.Region,
		Role:             models.RoleUser,
		Badges:           []models.BadgeType{},
		IsEmailVerified:  in.EmailVerified,
		IssuesCreated:    []primitive.ObjectID{},
		IssuesVotedOn:    []models.VoteRecord{},
		IssuesSubscribed: []primitive.ObjectID{},
		CommentsPosted:   []primitive.ObjectID{},
		LastActive:       now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	user.TrustScore = engine.TrustScore(user, now)

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// Login resolves the account bound to an identity subject and marks it
// active.
func (s *UserService) Login(ctx context.Context, subject string) (*models.User, error) {
	user, err := s.users.GetUserBySubject(ctx, subject)
	if err != nil {
		return nil, mapStoreErr(err, "user")
	}
	now := s.now()
	dependent(ctx, s.log, "users.lastActive", func(ctx context.Context) error {
		return s.users.TouchLastActive(ctx, user.ID, now)
	}, "user", user.ID.Hex())
	user.LastActive = now
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "user")
	}
	return user, nil
}

// GetProfile returns a user with a freshly computed trust score and their
// activity statistics.
func (s *UserService) GetProfile(ctx context.Context, id primitive.ObjectID) (*models.User, models.Statistics, error) {
	user, err := s.trust.recompute(ctx, id)
	if err != nil {
		return nil, models.Statistics{}, err
	}
	return user, user.Statistics(), nil
}

// ProfileInput carries optional profile edits.
type ProfileInput struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	Region       *primitive.ObjectID
	Bio          *string
	Organization *string
	Position     *string
}

// UpdateProfile applies the caller's own profile edits.
func (s *UserService) UpdateProfile(ctx context.Context, actor *models.User, in ProfileInput) (*models.User, error) {
	var upd store.ProfileUpdate
	var err error
	if in.FirstName != nil {
		if upd.FirstName, err = validated(engine.ValidateName("first name", *in.FirstName)); err != nil {
			return nil, err
		}
	}
	if in.LastName != nil {
		if upd.LastName, err = validated(engine.ValidateName("last name", *in.LastName)); err != nil {
			return nil, err
		}
	}
	if in.Phone != nil {
		if upd.Phone, err = validated(engine.ValidatePhone(*in.Phone)); err != nil {
			return nil, err
		}
	}
	if in.Bio != nil {
		if upd.Bio, err = validated(engine.ValidateBio(*in.Bio)); err != nil {
			return nil, err
		}
	}
	if in.Region != nil {
		if err := s.checkRegion(ctx, *in.Region); err != nil {
			return nil, err
		}
		upd.Region = in.Region
	}
	upd.Organization = in.Organization
	upd.Position = in.Position

	user, err := s.users.UpdateProfile(ctx, actor.ID, upd)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, engine.Invalid("phone number already in use")
		}
		return nil, mapStoreErr(err, "user")
	}
	return user, nil
}

// ChangeRole sets a user's role. Comments already posted keep their
// official tag.
func (s *UserService) ChangeRole(ctx context.Context, actor *models.User, id primitive.ObjectID, role models.Role) (*models.User, error) {
	if !actor.Role.Can(models.CapManageUsers) {
		return nil, engine.Forbidden("only administrators can change roles")
	}
	if !role.Valid() {
		return nil, engine.Invalid("invalid role %q", role)
	}
	user, err := s.users.SetRole(ctx, id, role)
	if err != nil {
		return nil, mapStoreErr(err, "user")
	}
	return user, nil
}

// AwardBadge grants a badge and immediately recomputes the trust score.
func (s *UserService) AwardBadge(ctx context.Context, actor *models.User, id primitive.ObjectID, badge models.BadgeType) (*models.User, error) {
	if !actor.Role.Can(models.CapManageUsers) {
		return nil, engine.Forbidden("only administrators can award badges")
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "user")
	}
	// Validates and applies the award to the loaded copy; the store then
	// repeats the duplicate check atomically.
	if err := engine.AwardBadge(user, badge, s.now()); err != nil {
		return nil, err
	}
	added, err := s.users.AddBadge(ctx, id, badge)
	if err != nil {
		return nil, mapStoreErr(err, "user")
	}
	if !added {
		return nil, engine.ErrDuplicateBadge
	}
	user, err = s.trust.recompute(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "badge awarded", "user", id.Hex(), "badge", badge, "trustScore", user.TrustScore)
	return user, nil
}

// UserIssues lists the issues a user authored.
func (s *UserService) UserIssues(ctx context.Context, id primitive.ObjectID, status models.IssueStatus, page, limit int) ([]models.Issue, int64, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, 0, err
	}
	return s.issues.ListIssues(ctx, store.IssueFilter{
		Author: &id,
		Status: status,
		Page:   page,
		Limit:  limit,
	})
}

// SubscribedIssues lists the issues a user follows, most recently updated
// first.
func (s *UserService) SubscribedIssues(ctx context.Context, user *models.User, page, limit int) ([]models.Issue, int64, error) {
	return s.issues.ListIssues(ctx, store.IssueFilter{
		Subscriber: &user.ID,
		SortBy:     store.SortUpdatedAt,
		Page:       page,
		Limit:      limit,
	})
}

func (s *UserService) checkRegion(ctx context.Context, id primitive.ObjectID) error {
	if id.IsZero() {
		return engine.Invalid("region is required")
	}
	if _, err := s.regions.GetRegion(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return engine.Invalid("invalid region")
		}
		return err
	}
	return nil
}

func validated(v string, err error) (*string, error) {
	if err != nil {
		return nil, err
	}
	return &v, nil
}
