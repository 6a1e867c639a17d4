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

const trendingWindow = 30 * 24 * time.Hour

// IssueService runs the issue lifecycle: submission, voting,
// subscriptions, the resolution ledger and privileged overrides.
type IssueService struct {
	issues  store.IssueStore
	users   store.UserStore
	regions store.RegionStore
	trust   *trustKeeper
	now     Clock
	log     *slog.Logger
}

func NewIssueService(issues store.IssueStore, users store.UserStore, regions store.RegionStore, log *slog.Logger) *IssueService {
	s := &IssueService{
		issues:  issues,
		users:   users,
		regions: regions,
		now:     time.Now,
		log:     log,
	}
	s.trust = &trustKeeper{users: users, now: func() time.Time { return s.now() }, log: log}
	return s
}

// CreateIssueInput is a citizen's issue submission.
type CreateIssueInput struct {
	Title        string
	Description  string
	Region       *primitive.ObjectID
	IsNationwide bool
	Coordinates  *models.Coordinates
	MediaURLs    []string
}

// CreateIssue stores a new Pending issue with the baseline response
// deadline and records it on the author.
func (s *IssueService) CreateIssue(ctx context.Context, author *models.User, in CreateIssueInput) (*models.Issue, error) {
	if !author.IsVerified() {
		return nil, engine.Forbidden("account not verified")
	}
	title, err := engine.ValidateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	desc, err := engine.ValidateDescription(in.Description)
	if err != nil {
		return nil, err
	}
	if err := engine.ValidateMediaURLs(in.MediaURLs); err != nil {
		return nil, err
	}

	loc := models.Location{IsNationwide: in.IsNationwide, Coordinates: in.Coordinates}
	if !in.IsNationwide {
		if in.Region == nil {
			return nil, engine.Invalid("region is required for non-nationwide issues")
		}
		if _, err := s.regions.GetRegion(ctx, *in.Region); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, engine.Invalid("invalid region")
			}
			return nil, err
		}
		loc.Region = in.Region
	}

	now := s.now()
	issue := models.NewIssue(author.ID, title, desc, loc, in.MediaURLs, now)
	engine.Refresh(issue, now)

	if err := s.issues.CreateIssue(ctx, issue); err != nil {
		return nil, fmt.Errorf("insert issue: %w", err)
	}

	dependent(ctx, s.log, "users.issuesCreated", func(ctx context.Context) error {
		return s.users.AddIssueCreated(ctx, author.ID, issue.ID)
	}, "issue", issue.ID.Hex(), "user", author.ID.Hex())
	s.trust.refresh(ctx, author.ID)

	return issue, nil
}

// GetIssue loads an issue and runs the escalation detector against the
// current time. A newly raised flag is written back best-effort.
func (s *IssueService) GetIssue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	issue, err := s.issues.GetIssue(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "issue")
	}
	wasEscalated := issue.IsEscalated
	if engine.CheckEscalation(issue, s.now()) != wasEscalated {
		snapshot := *issue
		dependent(ctx, s.log, "issues.escalation", func(ctx context.Context) error {
			return s.issues.ReplaceIssue(ctx, &snapshot)
		}, "issue", id.Hex())
	}
	return issue, nil
}

// ListIssues returns one page of issues matching filter and the total
// match count.
func (s *IssueService) ListIssues(ctx context.Context, filter store.IssueFilter) ([]models.Issue, int64, error) {
	return s.issues.ListIssues(ctx, filter)
}

// TrendingIssues are unresolved issues from the last 30 days with the most
// votes.
func (s *IssueService) TrendingIssues(ctx context.Context, limit int) ([]models.Issue, error) {
	issues, _, err := s.issues.ListIssues(ctx, store.IssueFilter{
		ExcludeStatus: models.Resolved,
		CreatedAfter:  s.now().Add(-trendingWindow),
		SortBy:        store.SortVotes,
		Limit:         limit,
	})
	return issues, err
}

// TackledIssues are the most recently resolved issues.
func (s *IssueService) TackledIssues(ctx context.Context, limit int) ([]models.Issue, error) {
	issues, _, err := s.issues.ListIssues(ctx, store.IssueFilter{
		Status: models.Resolved,
		SortBy: store.SortUpdatedAt,
		Limit:  limit,
	})
	return issues, err
}

// UpdateIssueInput holds optional edits. Status and IsEscalated are
// privileged overrides.
type UpdateIssueInput struct {
	Title       *string
	Description *string
	MediaURLs   []string
	Status      *models.IssueStatus
	IsEscalated *bool
}

// UpdateIssue applies edits by the author or a privileged role.
func (s *IssueService) UpdateIssue(ctx context.Context, actor *models.User, id primitive.ObjectID, in UpdateIssueInput) (*models.Issue, error) {
	issue, err := s.mutate(ctx, id, func(issue *models.Issue, now time.Time) error {
		privileged := actor.Role.Can(models.CapOverrideIssue)
		if issue.Author != actor.ID && !privileged {
			return engine.Forbidden("you do not have permission to update this issue")
		}
		if in.Title != nil {
			title, err := engine.ValidateTitle(*in.Title)
			if err != nil {
				return err
			}
			issue.Title = title
		}
		if in.Description != nil {
			desc, err := engine.ValidateDescription(*in.Description)
			if err != nil {
				return err
			}
			issue.Description = desc
		}
		if in.MediaURLs != nil {
			if err := engine.ValidateMediaURLs(in.MediaURLs); err != nil {
				return err
			}
			issue.MediaURLs = in.MediaURLs
		}
		if in.Status != nil || in.IsEscalated != nil {
			return engine.OverrideStatus(issue, actor, in.Status, in.IsEscalated, now)
		}
		issue.LastUpdatedBy = &actor.ID
		issue.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "issue updated", "issue", id.Hex(), "subscribers", len(issue.Subscribers))
	return issue, nil
}

// DeleteIssue removes an issue (author or admin), detaches it from every
// user's activity lists and refreshes the trust scores that counted it.
func (s *IssueService) DeleteIssue(ctx context.Context, actor *models.User, id primitive.ObjectID) error {
	issue, err := s.issues.GetIssue(ctx, id)
	if err != nil {
		return mapStoreErr(err, "issue")
	}
	if issue.Author != actor.ID && !actor.Role.Can(models.CapDeleteAnyIssue) {
		return engine.Forbidden("you do not have permission to delete this issue")
	}
	if err := s.issues.DeleteIssue(ctx, id); err != nil {
		return mapStoreErr(err, "issue")
	}
	dependent(ctx, s.log, "users.detachIssue", func(ctx context.Context) error {
		return s.users.DetachIssue(ctx, id)
	}, "issue", id.Hex())

	affected := []primitive.ObjectID{issue.Author}
	seen := map[primitive.ObjectID]bool{issue.Author: true}
	for _, b := range issue.Votes.Ballots {
		if !seen[b.User] {
			seen[b.User] = true
			affected = append(affected, b.User)
		}
	}
	for _, user := range affected {
		s.trust.refresh(ctx, user)
	}
	return nil
}

// Vote casts or switches voter's ballot and mirrors it into the voter's
// history.
func (s *IssueService) Vote(ctx context.Context, voter *models.User, id primitive.ObjectID, priority models.Priority) (*models.Issue, error) {
	var change engine.VoteChange
	issue, err := s.mutate(ctx, id, func(issue *models.Issue, now time.Time) error {
		var err error
		change, err = engine.CastVote(issue, voter, priority, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if change.Added {
		rec := models.VoteRecord{Issue: id, Priority: priority, CreatedAt: issue.UpdatedAt}
		dependent(ctx, s.log, "users.issuesVotedOn.push", func(ctx context.Context) error {
			return s.users.AddVoteRecord(ctx, voter.ID, rec)
		}, "issue", id.Hex(), "user", voter.ID.Hex())
		s.trust.refresh(ctx, voter.ID)
	} else {
		dependent(ctx, s.log, "users.issuesVotedOn.priority", func(ctx context.Context) error {
			return s.users.SetVoteRecordPriority(ctx, voter.ID, id, priority)
		}, "issue", id.Hex(), "user", voter.ID.Hex())
	}
	return issue, nil
}

// ToggleSubscription follows or unfollows an issue and reports the new
// state with the subscriber count.
func (s *IssueService) ToggleSubscription(ctx context.Context, user *models.User, id primitive.ObjectID) (bool, int, error) {
	var subscribed bool
	issue, err := s.mutate(ctx, id, func(issue *models.Issue, now time.Time) error {
		subscribed = !issue.IsSubscribed(user.ID)
		if subscribed {
			issue.Subscribers = append(issue.Subscribers, user.ID)
		} else {
			kept := issue.Subscribers[:0]
			for _, sub := range issue.Subscribers {
				if sub != user.ID {
					kept = append(kept, sub)
				}
			}
			issue.Subscribers = kept
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	if subscribed {
		dependent(ctx, s.log, "users.issuesSubscribed.add", func(ctx context.Context) error {
			return s.users.AddSubscription(ctx, user.ID, id)
		}, "issue", id.Hex(), "user", user.ID.Hex())
	} else {
		dependent(ctx, s.log, "users.issuesSubscribed.remove", func(ctx context.Context) error {
			return s.users.RemoveSubscription(ctx, user.ID, id)
		}, "issue", id.Hex(), "user", user.ID.Hex())
	}
	return subscribed, len(issue.Subscribers), nil
}

// AddResolutionStep appends a step to the issue's ledger.
func (s *IssueService) AddResolutionStep(ctx context.Context, actor *models.User, id primitive.ObjectID, in engine.StepInput) (*models.Issue, error) {
	issue, err := s.mutate(ctx, id, func(issue *models.Issue, now time.Time) error {
		_, err := engine.AddResolutionStep(issue, actor, in, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "resolution step added", "issue", id.Hex(), "status", issue.Status, "subscribers", len(issue.Subscribers))
	return issue, nil
}

// CompleteResolutionStep marks one pending step completed.
func (s *IssueService) CompleteResolutionStep(ctx context.Context, actor *models.User, id, stepID primitive.ObjectID) (*models.Issue, error) {
	issue, err := s.mutate(ctx, id, func(issue *models.Issue, now time.Time) error {
		_, err := engine.CompleteResolutionStep(issue, stepID, actor, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "resolution step completed", "issue", id.Hex(), "step", stepID.Hex(), "status", issue.Status)
	return issue, nil
}

// mutate is the compare-and-update loop: read, apply fn, write if nobody
// else wrote in between, otherwise start over with a fresh copy.
func (s *IssueService) mutate(ctx context.Context, id primitive.ObjectID, fn func(*models.Issue, time.Time) error) (*models.Issue, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		issue, err := s.issues.GetIssue(ctx, id)
		if err != nil {
			return nil, mapStoreErr(err, "issue")
		}
		if err := fn(issue, s.now()); err != nil {
			return nil, err
		}
		err = s.issues.ReplaceIssue(ctx, issue)
		if err == nil {
			return issue, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, mapStoreErr(err, "issue")
		}
		s.log.DebugContext(ctx, "issue write conflict, retrying", "issue", id.Hex(), "attempt", attempt)
	}
	return nil, fmt.Errorf("issue %s: %w", id.Hex(), store.ErrConflict)
}
