package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"rewards_engine/internal/model"
	"rewards_engine/internal/repository"
	"rewards_engine/pkg/clock"
)

// memStore is an in-memory stand-in for repository.Repository. Atomic
// snapshots the whole store and restores it when the callback fails.
type memStore struct {
	users    map[int64]model.User
	payouts  map[int64]model.Payout
	requests map[int64]model.PayoutRequest
	links    map[int64]model.ReferralLink
	hits     map[int64]model.ReferralHit
	userHits map[int64]model.UserReferralHit
	nextID   int64
	inTx     bool

	// failures maps a method name to the error it returns.
	failures map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]model.User{},
		payouts:  map[int64]model.Payout{},
		requests: map[int64]model.PayoutRequest{},
		links:    map[int64]model.ReferralLink{},
		hits:     map[int64]model.ReferralHit{},
		userHits: map[int64]model.UserReferralHit{},
		failures: map[string]error{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) fail(method string) error {
	return m.failures[method]
}

func (m *memStore) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.inTx {
		return fn(ctx)
	}

	snapshot := m.clone()
	m.inTx = true
	err := fn(ctx)
	m.inTx = false
	if err != nil {
		m.restore(snapshot)
	}
	return err
}

func (m *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range m.users {
		c.users[k] = v
	}
	for k, v := range m.payouts {
		c.payouts[k] = v
	}
	for k, v := range m.requests {
		v.PayoutIDs = append([]int64(nil), v.PayoutIDs...)
		c.requests[k] = v
	}
	for k, v := range m.links {
		c.links[k] = v
	}
	for k, v := range m.hits {
		c.hits[k] = v
	}
	for k, v := range m.userHits {
		c.userHits[k] = v
	}
	c.nextID = m.nextID
	return c
}

func (m *memStore) restore(c *memStore) {
	m.users = c.users
	m.payouts = c.payouts
	m.requests = c.requests
	m.links = c.links
	m.hits = c.hits
	m.userHits = c.userHits
	m.nextID = c.nextID
}

func sortedKeys[V any](items map[int64]V) []int64 {
	keys := make([]int64, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// users

func (m *memStore) CreateUser(_ context.Context, user *model.User) error {
	if err := m.fail("CreateUser"); err != nil {
		return err
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	user.ID = m.id()
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	if err := m.fail("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) LockUser(ctx context.Context, id int64) (*model.User, error) {
	return m.GetUserByID(ctx, id)
}

func (m *memStore) GetActiveUsers(_ context.Context, since time.Time) ([]*model.User, error) {
	if err := m.fail("GetActiveUsers"); err != nil {
		return nil, err
	}
	users := []*model.User{}
	for _, id := range sortedKeys(m.users) {
		u := m.users[id]
		if !u.IsActive || u.IsWaitlisted || u.LastActivityTime == nil || u.LastActivityTime.Before(since) {
			continue
		}
		users = append(users, &u)
	}
	return users, nil
}

func (m *memStore) CountAdmittedUsers(_ context.Context) (int, error) {
	count := 0
	for _, u := range m.users {
		if !u.IsWaitlisted {
			count++
		}
	}
	return count, nil
}

func (m *memStore) UpdateLastActivity(_ context.Context, id int64, at time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastActivityTime = &at
	m.users[id] = u
	return nil
}

func (m *memStore) UpdateUserWaitlistStatus(_ context.Context, id int64, waitlisted bool) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsWaitlisted = waitlisted
	m.users[id] = u
	return nil
}

// payouts

func (m *memStore) GetOrCreateActivityPayout(_ context.Context, userID int64, date time.Time, amount int64) (*model.Payout, bool, error) {
	if err := m.fail("GetOrCreateActivityPayout"); err != nil {
		return nil, false, err
	}
	for _, id := range sortedKeys(m.payouts) {
		p := m.payouts[id]
		if p.UserID != nil && *p.UserID == userID && p.UserReferralHitID == nil && p.Date.Equal(date) {
			return &p, false, nil
		}
	}
	return m.insertPayout(userID, nil, date, amount, ""), true, nil
}

func (m *memStore) GetOrCreateReferralPayout(_ context.Context, userID, userReferralHitID int64, date time.Time, amount int64, note string) (*model.Payout, bool, error) {
	if err := m.fail("GetOrCreateReferralPayout"); err != nil {
		return nil, false, err
	}
	for _, id := range sortedKeys(m.payouts) {
		p := m.payouts[id]
		if p.UserID != nil && *p.UserID == userID && p.UserReferralHitID != nil && *p.UserReferralHitID == userReferralHitID {
			return &p, false, nil
		}
	}
	hitID := userReferralHitID
	return m.insertPayout(userID, &hitID, date, amount, note), true, nil
}

func (m *memStore) insertPayout(userID int64, hitID *int64, date time.Time, amount int64, note string) *model.Payout {
	uid := userID
	amt := amount
	p := model.Payout{
		ID:                m.id(),
		UserID:            &uid,
		Amount:            &amt,
		PaymentStatus:     model.PayoutUnpaid,
		Note:              note,
		Date:              date,
		UserReferralHitID: hitID,
	}
	m.payouts[p.ID] = p
	return &p
}

func (m *memStore) GetPayout(_ context.Context, id int64) (*model.Payout, error) {
	p, ok := m.payouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) UpdatePayoutStatus(_ context.Context, id int64, status model.PayoutStatus) (*model.Payout, error) {
	p, ok := m.payouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.PaymentStatus = status
	m.payouts[id] = p
	return &p, nil
}

func (m *memStore) UpdatePayoutsStatus(_ context.Context, ids []int64, status model.PayoutStatus) (int64, error) {
	if err := m.fail("UpdatePayoutsStatus"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		p, ok := m.payouts[id]
		if !ok {
			continue
		}
		p.PaymentStatus = status
		m.payouts[id] = p
		n++
	}
	return n, nil
}

func (m *memStore) ListPayouts(_ context.Context, userID int64, status model.PayoutStatus) ([]*model.Payout, error) {
	payouts := []*model.Payout{}
	for _, id := range sortedKeys(m.payouts) {
		p := m.payouts[id]
		if p.UserID == nil || *p.UserID != userID {
			continue
		}
		if status != model.PayoutStatusAny && p.PaymentStatus != status {
			continue
		}
		payouts = append(payouts, &p)
	}
	return payouts, nil
}

func (m *memStore) LockUnpaidPayouts(ctx context.Context, userID int64) ([]*model.Payout, error) {
	return m.ListPayouts(ctx, userID, model.PayoutUnpaid)
}

func (m *memStore) SumPayouts(ctx context.Context, userID int64, status model.PayoutStatus) (int64, error) {
	payouts, _ := m.ListPayouts(ctx, userID, status)
	var total int64
	for _, p := range payouts {
		total += p.AmountOrZero()
	}
	return total, nil
}

func (m *memStore) SumReferralPayouts(ctx context.Context, userID int64) (int64, error) {
	payouts, _ := m.ListPayouts(ctx, userID, model.PayoutStatusAny)
	var total int64
	for _, p := range payouts {
		if p.UserReferralHitID != nil {
			total += p.AmountOrZero()
		}
	}
	return total, nil
}

func (m *memStore) CountActivityPayouts(_ context.Context, userID int64) (int, error) {
	if err := m.fail("CountActivityPayouts"); err != nil {
		return 0, err
	}
	count := 0
	for _, p := range m.payouts {
		if p.UserID != nil && *p.UserID == userID && p.UserReferralHitID == nil {
			count++
		}
	}
	return count, nil
}

func (m *memStore) ListRequestedPayouts(_ context.Context, userID int64, status model.PayoutRequestStatus) ([]*model.Payout, error) {
	payouts := []*model.Payout{}
	for _, id := range sortedKeys(m.requests) {
		r := m.requests[id]
		if r.UserID != userID || r.PaymentStatus != status {
			continue
		}
		for _, payoutID := range r.PayoutIDs {
			if p, ok := m.payouts[payoutID]; ok {
				payouts = append(payouts, &p)
			}
		}
	}
	return payouts, nil
}

// payout requests

func (m *memStore) CreatePayoutRequest(_ context.Context, request *model.PayoutRequest) error {
	if err := m.fail("CreatePayoutRequest"); err != nil {
		return err
	}
	request.ID = m.id()
	stored := *request
	stored.PayoutIDs = append([]int64(nil), request.PayoutIDs...)
	m.requests[request.ID] = stored
	return nil
}

func (m *memStore) LockPayoutRequest(_ context.Context, id int64) (*model.PayoutRequest, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.PayoutIDs = append([]int64(nil), r.PayoutIDs...)
	return &r, nil
}

func (m *memStore) ListPayoutRequests(_ context.Context, userID int64) ([]*model.PayoutRequest, error) {
	requests := []*model.PayoutRequest{}
	for _, id := range sortedKeys(m.requests) {
		r := m.requests[id]
		if r.UserID == userID {
			requests = append(requests, &r)
		}
	}
	return requests, nil
}

func (m *memStore) CountPayoutRequests(_ context.Context, userID int64, status model.PayoutRequestStatus) (int, error) {
	count := 0
	for _, r := range m.requests {
		if r.UserID == userID && r.PaymentStatus == status {
			count++
		}
	}
	return count, nil
}

func (m *memStore) SumPayoutRequests(_ context.Context, userID int64, status model.PayoutRequestStatus) (int64, error) {
	var total int64
	for _, r := range m.requests {
		if r.UserID == userID && r.PaymentStatus == status {
			total += r.Amount
		}
	}
	return total, nil
}

func (m *memStore) UpdatePayoutRequestStatus(_ context.Context, id int64, status model.PayoutRequestStatus) error {
	r, ok := m.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.PaymentStatus = status
	m.requests[id] = r
	return nil
}

// referrals

func (m *memStore) findLink(match func(model.ReferralLink) bool) (*model.ReferralLink, error) {
	for _, id := range sortedKeys(m.links) {
		l := m.links[id]
		if match(l) {
			return &l, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) GetReferralLinkByUser(_ context.Context, userID int64) (*model.ReferralLink, error) {
	return m.findLink(func(l model.ReferralLink) bool { return l.UserID == userID })
}

func (m *memStore) GetReferralLinkByID(_ context.Context, id int64) (*model.ReferralLink, error) {
	return m.findLink(func(l model.ReferralLink) bool { return l.ID == id })
}

func (m *memStore) GetReferralLinkByIdentifier(_ context.Context, identifier string) (*model.ReferralLink, error) {
	return m.findLink(func(l model.ReferralLink) bool { return l.Identifier == identifier })
}

func (m *memStore) CreateReferralLink(_ context.Context, link *model.ReferralLink) error {
	for _, l := range m.links {
		if l.Identifier == link.Identifier {
			return repository.ErrDuplicateIdentifier
		}
		if l.UserID == link.UserID {
			return errors.New("user already has a referral link")
		}
	}
	link.ID = m.id()
	m.links[link.ID] = *link
	return nil
}

func (m *memStore) CreateReferralHit(_ context.Context, hit *model.ReferralHit) error {
	hit.ID = m.id()
	m.hits[hit.ID] = *hit
	return nil
}

func (m *memStore) GetLatestReferralHit(_ context.Context, hitUserID int64) (*model.ReferralHit, error) {
	keys := sortedKeys(m.hits)
	for i := len(keys) - 1; i >= 0; i-- {
		h := m.hits[keys[i]]
		if h.HitUserID == hitUserID {
			return &h, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) ConfirmReferralHit(_ context.Context, id int64, at time.Time) error {
	h, ok := m.hits[id]
	if !ok {
		return repository.ErrNotFound
	}
	h.Confirmed = &at
	m.hits[id] = h
	return nil
}

func (m *memStore) GetOrCreateUserReferralHit(_ context.Context, userID, referralHitID int64) (*model.UserReferralHit, bool, error) {
	for _, h := range m.userHits {
		if h.ReferralHitID == referralHitID {
			return &h, false, nil
		}
	}
	hit, ok := m.hits[referralHitID]
	if !ok {
		return nil, false, errors.New("referral hit does not exist")
	}
	uid := userID
	h := model.UserReferralHit{
		ID:            m.id(),
		UserID:        &uid,
		ReferralHitID: referralHitID,
		HitUserID:     hit.HitUserID,
		PaymentStatus: model.ReferralNone,
	}
	m.userHits[h.ID] = h
	return &h, true, nil
}

func (m *memStore) listUserHits(match func(model.UserReferralHit) bool) []*model.UserReferralHit {
	hits := []*model.UserReferralHit{}
	for _, id := range sortedKeys(m.userHits) {
		h := m.userHits[id]
		if match(h) {
			hits = append(hits, &h)
		}
	}
	return hits
}

func (m *memStore) ListUserReferralHitsByStatus(_ context.Context, status model.ReferralStatus) ([]*model.UserReferralHit, error) {
	return m.listUserHits(func(h model.UserReferralHit) bool { return h.PaymentStatus == status }), nil
}

func (m *memStore) ListUserReferralHits(_ context.Context, userID int64) ([]*model.UserReferralHit, error) {
	return m.listUserHits(func(h model.UserReferralHit) bool { return h.UserID != nil && *h.UserID == userID }), nil
}

func (m *memStore) CountQualifiedReferrals(_ context.Context) (int64, error) {
	var count int64
	for _, h := range m.userHits {
		if h.PaymentStatus != model.ReferralNone {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CountUserReferrals(_ context.Context, userID int64, activeOnly bool) (int, error) {
	count := 0
	for _, h := range m.userHits {
		if h.UserID == nil || *h.UserID != userID {
			continue
		}
		if activeOnly && h.PaymentStatus == model.ReferralNone {
			continue
		}
		count++
	}
	return count, nil
}

func (m *memStore) UpdateUserReferralHitStatus(_ context.Context, id int64, status model.ReferralStatus) error {
	if err := m.fail("UpdateUserReferralHitStatus"); err != nil {
		return err
	}
	h, ok := m.userHits[id]
	if !ok {
		return repository.ErrNotFound
	}
	h.PaymentStatus = status
	m.userHits[id] = h
	return nil
}

func (m *memStore) UpdateReferralStatusForPayouts(_ context.Context, payoutIDs []int64, status model.ReferralStatus) (int64, error) {
	if err := m.fail("UpdateReferralStatusForPayouts"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range payoutIDs {
		p, ok := m.payouts[id]
		if !ok || p.UserReferralHitID == nil {
			continue
		}
		h, ok := m.userHits[*p.UserReferralHitID]
		if !ok {
			continue
		}
		h.PaymentStatus = status
		m.userHits[h.ID] = h
		n++
	}
	return n, nil
}

// fixture helpers

type fixture struct {
	store   *memStore
	clock   *clock.Frozen
	service *Service
}

func newFixture(now time.Time) *fixture {
	return newFixtureWithConfig(now, DefaultConfig())
}

func newFixtureWithConfig(now time.Time, cfg Config) *fixture {
	store := newMemStore()
	clk := clock.Fixed(now)

	return &fixture{
		store:   store,
		clock:   clk,
		service: NewServiceFromStore(store, clk, cfg),
	}
}

// addUser stores an admitted user, optionally active at lastActivity.
func (f *fixture) addUser(email string, lastActivity *time.Time) int64 {
	user := &model.User{
		Email:            email,
		IsActive:         true,
		LastActivityTime: lastActivity,
	}
	_ = f.store.CreateUser(context.Background(), user)
	return user.ID
}

// addActivityPayouts seeds n activity payouts on consecutive days ending the day before start.
func (f *fixture) addActivityPayouts(userID int64, n int, amount int64, start time.Time) {
	for i := 1; i <= n; i++ {
		date := start.AddDate(0, 0, -i)
		f.store.insertPayout(userID, nil, date, amount, "")
	}
}

// addReferral links referrerID's link to a confirmed hit by referredID.
func (f *fixture) addReferral(referrerID, referredID int64) *model.UserReferralHit {
	ctx := context.Background()
	link, err := f.service.ReferralLink(ctx, referrerID)
	if err != nil {
		panic(err)
	}
	hit := &model.ReferralHit{ReferralLinkID: link.ID, HitUserID: referredID}
	_ = f.store.CreateReferralHit(ctx, hit)
	row, _, _ := f.store.GetOrCreateUserReferralHit(ctx, referrerID, hit.ID)
	return row
}

func (f *fixture) referralStatus(id int64) model.ReferralStatus {
	return f.store.userHits[id].PaymentStatus
}

func timePtr(t time.Time) *time.Time {
	return &t
}
