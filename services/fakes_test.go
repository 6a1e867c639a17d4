package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"civicpulse-be/engine"
	"civicpulse-be/models"
	"civicpulse-be/store"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cloneIssue(in *models.Issue) *models.Issue {
	out := *in
	out.Votes.PerPriority = make(map[models.Priority]int, len(in.Votes.PerPriority))
	for k, v := range in.Votes.PerPriority {
		out.Votes.PerPriority[k] = v
	}
	out.Votes.Ballots = append([]models.Ballot(nil), in.Votes.Ballots...)
	out.MediaURLs = append([]string(nil), in.MediaURLs...)
	out.Comments = append([]primitive.ObjectID(nil), in.Comments...)
	out.Subscribers = append([]primitive.ObjectID(nil), in.Subscribers...)
	out.ResolutionSteps = append([]models.ResolutionStep(nil), in.ResolutionSteps...)
	return &out
}

func cloneUser(in *models.User) *models.User {
	out := *in
	out.Badges = append([]models.BadgeType(nil), in.Badges...)
	out.IssuesCreated = append([]primitive.ObjectID(nil), in.IssuesCreated...)
	out.IssuesVotedOn = append([]models.VoteRecord(nil), in.IssuesVotedOn...)
	out.IssuesSubscribed = append([]primitive.ObjectID(nil), in.IssuesSubscribed...)
	out.CommentsPosted = append([]primitive.ObjectID(nil), in.CommentsPosted...)
	return &out
}

func without(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	kept := ids[:0]
	for _, x := range ids {
		if x != id {
			kept = append(kept, x)
		}
	}
	return kept
}

// memIssues is an in-memory IssueStore with the same version semantics as
// the Mongo repo. conflicts makes the next N replaces fail after bumping the
// stored version, as if another writer got there first.
type memIssues struct {
	mu        sync.Mutex
	docs      map[primitive.ObjectID]*models.Issue
	conflicts int
	replaces  int
}

func newMemIssues() *memIssues {
	return &memIssues{docs: map[primitive.ObjectID]*models.Issue{}}
}

func (m *memIssues) CreateIssue(_ context.Context, issue *models.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	m.docs[issue.ID] = cloneIssue(issue)
	return nil
}

func (m *memIssues) GetIssue(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneIssue(doc), nil
}

func (m *memIssues) ListIssues(_ context.Context, f store.IssueFilter) ([]models.Issue, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Issue
	for _, doc := range m.docs {
		if f.Status != "" && doc.Status != f.Status {
			continue
		}
		if f.ExcludeStatus != "" && doc.Status == f.ExcludeStatus {
			continue
		}
		if f.Author != nil && doc.Author != *f.Author {
			continue
		}
		if f.Subscriber != nil && !doc.IsSubscribed(*f.Subscriber) {
			continue
		}
		if !f.CreatedAfter.IsZero() && doc.CreatedAt.Before(f.CreatedAfter) {
			continue
		}
		out = append(out, *cloneIssue(doc))
	}
	sort.Slice(out, func(i, j int) bool {
		switch f.SortBy {
		case store.SortVotes:
			return out[i].Votes.Total > out[j].Votes.Total
		case store.SortUpdatedAt:
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, int64(len(out)), nil
}

func (m *memIssues) ReplaceIssue(_ context.Context, issue *models.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaces++
	doc, ok := m.docs[issue.ID]
	if !ok {
		return store.ErrNotFound
	}
	if m.conflicts > 0 {
		m.conflicts--
		doc.Version++
	}
	if doc.Version != issue.Version {
		return store.ErrConflict
	}
	issue.Version++
	m.docs[issue.ID] = cloneIssue(issue)
	return nil
}

func (m *memIssues) DeleteIssue(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memIssues) AddIssueComment(_ context.Context, issueID, commentID, actor primitive.ObjectID, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[issueID]
	if !ok {
		return store.ErrNotFound
	}
	doc.Comments = append(doc.Comments, commentID)
	doc.LastUpdatedBy = &actor
	doc.UpdatedAt = now
	doc.Version++
	return nil
}

func (m *memIssues) RemoveIssueComment(_ context.Context, issueID, commentID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc, ok := m.docs[issueID]; ok {
		doc.Comments = without(doc.Comments, commentID)
		doc.Version++
	}
	return nil
}

// memUsers is an in-memory UserStore. failOps names operations that fail.
type memUsers struct {
	mu      sync.Mutex
	docs    map[primitive.ObjectID]*models.User
	failOps map[string]bool
}

var errInjected = errors.New("injected failure")

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{docs: map[primitive.ObjectID]*models.User{}, failOps: map[string]bool{}}
	for _, u := range users {
		m.docs[u.ID] = cloneUser(u)
	}
	return m
}

func (m *memUsers) with(op string, id primitive.ObjectID, fn func(u *models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOps[op] {
		return errInjected
	}
	u, ok := m.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(u)
	return nil
}

func (m *memUsers) get(id primitive.ObjectID) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneUser(m.docs[id])
}

func (m *memUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.docs {
		if u.Email == user.Email || u.Phone == user.Phone || u.Subject == user.Subject {
			return store.ErrDuplicate
		}
	}
	m.docs[user.ID] = cloneUser(user)
	return nil
}

func (m *memUsers) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *memUsers) GetUserBySubject(_ context.Context, subject string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.docs {
		if u.Subject == subject {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) UserExists(_ context.Context, email, phone, subject string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.docs {
		if u.Email == email || u.Phone == phone || u.Subject == subject {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, p store.ProfileUpdate) (*models.User, error) {
	var out *models.User
	err := m.with("UpdateProfile", id, func(u *models.User) {
		if p.FirstName != nil {
			u.FirstName = *p.FirstName
		}
		if p.LastName != nil {
			u.LastName = *p.LastName
		}
		if p.Phone != nil {
			u.Phone = *p.Phone
		}
		if p.Region != nil {
			u.Region = *p.Region
		}
		if p.Bio != nil {
			u.Bio = *p.Bio
		}
		if p.Organization != nil {
			u.Organization = *p.Organization
		}
		if p.Position != nil {
			u.Position = *p.Position
		}
		out = cloneUser(u)
	})
	return out, err
}

func (m *memUsers) SetRole(_ context.Context, id primitive.ObjectID, role models.Role) (*models.User, error) {
	var out *models.User
	err := m.with("SetRole", id, func(u *models.User) {
		u.Role = role
		out = cloneUser(u)
	})
	return out, err
}

func (m *memUsers) AddBadge(_ context.Context, id primitive.ObjectID, badge models.BadgeType) (bool, error) {
	added := false
	err := m.with("AddBadge", id, func(u *models.User) {
		if !u.HasBadge(badge) {
			u.Badges = append(u.Badges, badge)
			added = true
		}
	})
	return added, err
}

func (m *memUsers) SetTrustScore(_ context.Context, id primitive.ObjectID, score int) error {
	return m.with("SetTrustScore", id, func(u *models.User) { u.TrustScore = score })
}

func (m *memUsers) SetPhoneVerified(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	var out *models.User
	err := m.with("SetPhoneVerified", id, func(u *models.User) {
		u.IsPhoneVerified = true
		out = cloneUser(u)
	})
	return out, err
}

func (m *memUsers) TouchLastActive(_ context.Context, id primitive.ObjectID, at time.Time) error {
	return m.with("TouchLastActive", id, func(u *models.User) { u.LastActive = at })
}

func (m *memUsers) AddIssueCreated(_ context.Context, id, issueID primitive.ObjectID) error {
	return m.with("AddIssueCreated", id, func(u *models.User) {
		u.IssuesCreated = append(u.IssuesCreated, issueID)
	})
}

func (m *memUsers) AddVoteRecord(_ context.Context, id primitive.ObjectID, rec models.VoteRecord) error {
	return m.with("AddVoteRecord", id, func(u *models.User) {
		u.IssuesVotedOn = append(u.IssuesVotedOn, rec)
	})
}

func (m *memUsers) SetVoteRecordPriority(_ context.Context, id, issueID primitive.ObjectID, p models.Priority) error {
	return m.with("SetVoteRecordPriority", id, func(u *models.User) {
		for i := range u.IssuesVotedOn {
			if u.IssuesVotedOn[i].Issue == issueID {
				u.IssuesVotedOn[i].Priority = p
			}
		}
	})
}

func (m *memUsers) AddSubscription(_ context.Context, id, issueID primitive.ObjectID) error {
	return m.with("AddSubscription", id, func(u *models.User) {
		u.IssuesSubscribed = append(u.IssuesSubscribed, issueID)
	})
}

func (m *memUsers) RemoveSubscription(_ context.Context, id, issueID primitive.ObjectID) error {
	return m.with("RemoveSubscription", id, func(u *models.User) {
		u.IssuesSubscribed = without(u.IssuesSubscribed, issueID)
	})
}

func (m *memUsers) AddCommentPosted(_ context.Context, id, commentID primitive.ObjectID) error {
	return m.with("AddCommentPosted", id, func(u *models.User) {
		u.CommentsPosted = append(u.CommentsPosted, commentID)
	})
}

func (m *memUsers) RemoveCommentPosted(_ context.Context, id, commentID primitive.ObjectID) error {
	return m.with("RemoveCommentPosted", id, func(u *models.User) {
		u.CommentsPosted = without(u.CommentsPosted, commentID)
	})
}

func (m *memUsers) DetachIssue(_ context.Context, issueID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.docs {
		u.IssuesCreated = without(u.IssuesCreated, issueID)
		u.IssuesSubscribed = without(u.IssuesSubscribed, issueID)
		votes := u.IssuesVotedOn[:0]
		for _, r := range u.IssuesVotedOn {
			if r.Issue != issueID {
				votes = append(votes, r)
			}
		}
		u.IssuesVotedOn = votes
	}
	return nil
}

type memComments struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*models.Comment
}

func newMemComments() *memComments {
	return &memComments{docs: map[primitive.ObjectID]*models.Comment{}}
}

func (m *memComments) CreateComment(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.docs[c.ID] = &cp
	return nil
}

func (m *memComments) GetComment(_ context.Context, id primitive.ObjectID) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	cp.Likes = append([]primitive.ObjectID(nil), c.Likes...)
	return &cp, nil
}

func (m *memComments) ListComments(_ context.Context, issueID primitive.ObjectID, _, _ int, _ bool) ([]models.Comment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Comment
	for _, c := range m.docs {
		if c.Issue == issueID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (m *memComments) UpdateCommentContent(_ context.Context, id primitive.ObjectID, content string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Content = content
	c.UpdatedAt = at
	return nil
}

func (m *memComments) DeleteComment(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memComments) ToggleLike(_ context.Context, id, user primitive.ObjectID) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.docs[id]
	if !ok {
		return false, 0, store.ErrNotFound
	}
	liked := engine.ToggleLike(c, user)
	return liked, len(c.Likes), nil
}

type memRegions map[primitive.ObjectID]models.Region

func (m memRegions) GetRegion(_ context.Context, id primitive.ObjectID) (*models.Region, error) {
	r, ok := m[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

// memCache is a CodeCache backed by a map; TTLs are recorded, not enforced.
type memCache struct {
	mu   sync.Mutex
	vals map[string]string
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{vals: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = value.(string)
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *memCache) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memCache) Incr(_ context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.vals[key], 10, 64)
	n++
	m.vals[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (m *memCache) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.vals[key]
	if ok {
		m.ttls[key] = ttl
	}
	return redis.NewBoolResult(ok, nil)
}

func (m *memCache) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.vals[k]; ok {
			delete(m.vals, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type memMedia struct {
	buckets map[string]bool
	objects []string
}

func (m *memMedia) PresignedUploadURL(_ context.Context, bucket, object string, _ time.Duration) (string, error) {
	m.objects = append(m.objects, object)
	return "https://media.example.com/" + bucket + "/" + object + "?X-Amz-Signature=abc", nil
}

func (m *memMedia) ObjectURL(bucket, object string) string {
	return "https://media.example.com/" + bucket + "/" + object
}

func (m *memMedia) BucketExists(_ context.Context, bucket string) (bool, error) {
	return m.buckets[bucket], nil
}

func (m *memMedia) MakeBucket(_ context.Context, bucket string) error {
	m.buckets[bucket] = true
	return nil
}

// fixture wires all services over shared in-memory stores.
type fixture struct {
	issues   *memIssues
	users    *memUsers
	comments *memComments
	regions  memRegions
	region   primitive.ObjectID

	issueSvc   *IssueService
	commentSvc *CommentService
	userSvc    *UserService
}

func newFixture(users ...*models.User) *fixture {
	f := &fixture{
		issues:   newMemIssues(),
		users:    newMemUsers(users...),
		comments: newMemComments(),
		region:   primitive.NewObjectID(),
	}
	f.regions = memRegions{f.region: {ID: f.region, Name: "Tashkent", Code: "TAS"}}
	log := discardLogger()

	f.issueSvc = NewIssueService(f.issues, f.users, f.regions, log)
	f.issueSvc.now = fixedClock
	f.commentSvc = NewCommentService(f.comments, f.issues, f.users, log)
	f.commentSvc.now = fixedClock
	f.userSvc = NewUserService(f.users, f.issues, f.regions, log)
	f.userSvc.now = fixedClock
	return f
}

func newUser(role models.Role, verified bool) *models.User {
	return &models.User{
		ID:              primitive.NewObjectID(),
		Subject:         primitive.NewObjectID().Hex(),
		FirstName:       "Test",
		LastName:        "User",
		Role:            role,
		IsEmailVerified: verified,
		IsPhoneVerified: verified,
		CreatedAt:       testNow.Add(-24 * time.Hour),
	}
}

func (f *fixture) seedIssue(author *models.User) *models.Issue {
	issue := models.NewIssue(author.ID, "Broken streetlight", "The streetlight on the corner has been out for two weeks.",
		models.Location{Region: &f.region}, nil, testNow.Add(-time.Hour))
	engine.Refresh(issue, testNow.Add(-time.Hour))
	f.issues.CreateIssue(context.Background(), issue)
	return issue
}
