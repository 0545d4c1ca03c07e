// Package repotest provides an in-memory implementation of the repository
// interfaces for service tests. Transactions are serialized behind a single
// mutex and roll back by restoring a snapshot, which gives the same
// observable guarantees as the serializable Postgres transactor.
package repotest

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/repository"
)

type Store struct {
	mu sync.Mutex

	users    map[string]domain.User
	tours    map[string]domain.Tour
	bookings map[string]domain.Booking
	reviews  []domain.Review
	messages []domain.Message

	now  func() time.Time
	tick time.Duration

	// TxErr, when set, is returned by WithinTx without running fn.
	TxErr error
	// Commits counts successful transactions.
	Commits int
}

func NewStore() *Store {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Store{
		users:    make(map[string]domain.User),
		tours:    make(map[string]domain.Tour),
		bookings: make(map[string]domain.Booking),
	}
	s.now = func() time.Time {
		s.tick += time.Millisecond
		return base.Add(s.tick)
	}
	return s
}

func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) AddTour(t domain.Tour) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
		t.UpdatedAt = t.CreatedAt
	}
	s.tours[t.ID] = t
}

func (s *Store) AddBooking(b domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
		b.UpdatedAt = b.CreatedAt
	}
	s.bookings[b.ID] = b
}

func (s *Store) AddMessage(m domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	s.messages = append(s.messages, m)
}

func (s *Store) AddReview(r domain.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	s.reviews = append(s.reviews, r)
}

// Booking returns the stored row without projections.
func (s *Store) Booking(id string) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

func (s *Store) Bookings() []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Collect(maps.Values(s.bookings))
}

func (s *Store) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

func (s *Store) Tour(id string) (domain.Tour, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tours[id]
	return t, ok
}

func (s *Store) User(id string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// Repositories returns repositories that lock the store per call.
func (s *Store) Repositories() repository.Repositories {
	return s.repos(true)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.TxErr != nil {
		return s.TxErr
	}

	snapshot := s.snapshot()
	if err := fn(ctx, s.repos(false)); err != nil {
		s.restore(snapshot)
		return err
	}
	s.Commits++
	return nil
}

type state struct {
	users    map[string]domain.User
	tours    map[string]domain.Tour
	bookings map[string]domain.Booking
	reviews  []domain.Review
	messages []domain.Message
}

func (s *Store) snapshot() state {
	users := make(map[string]domain.User, len(s.users))
	for id, u := range s.users {
		if u.Profile != nil {
			p := *u.Profile
			u.Profile = &p
		}
		users[id] = u
	}
	return state{
		users:    users,
		tours:    maps.Clone(s.tours),
		bookings: maps.Clone(s.bookings),
		reviews:  slices.Clone(s.reviews),
		messages: slices.Clone(s.messages),
	}
}

func (s *Store) restore(st state) {
	s.users = st.users
	s.tours = st.tours
	s.bookings = st.bookings
	s.reviews = st.reviews
	s.messages = st.messages
}

func (s *Store) repos(lock bool) repository.Repositories {
	return repository.Repositories{
		Bookings: &bookingRepo{s: s, lock: lock},
		Tours:    &tourRepo{s: s, lock: lock},
		Reviews:  &reviewRepo{s: s, lock: lock},
		Messages: &messageRepo{s: s, lock: lock},
		Users:    &userRepo{s: s, lock: lock},
	}
}

func (s *Store) guard(lock bool) func() {
	if !lock {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type bookingRepo struct {
	s    *Store
	lock bool
}

func (r *bookingRepo) project(b domain.Booking) domain.Booking {
	if t, ok := r.s.tours[b.TourID]; ok {
		b.Tour = domain.BookingTour{
			Title:      t.Title,
			PriceCents: t.PriceCents,
			GuideID:    t.GuideID,
			GuideName:  r.s.users[t.GuideID].Name,
		}
	}
	if u, ok := r.s.users[b.TouristID]; ok {
		b.Tourist = domain.BookingTourist{Name: u.Name, Email: u.Email}
	}
	return b
}

func (r *bookingRepo) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	defer r.s.guard(r.lock)()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("get booking: %w", domain.ErrNotFound)
	}
	b = r.project(b)
	return &b, nil
}

func (r *bookingRepo) FindActiveByTouristAndTour(_ context.Context, touristID, tourID string) (*domain.Booking, error) {
	defer r.s.guard(r.lock)()
	for _, b := range r.s.bookings {
		if b.TouristID == touristID && b.TourID == tourID && b.Status.Active() {
			b = r.project(b)
			return &b, nil
		}
	}
	return nil, nil
}

func (r *bookingRepo) CountConfirmed(_ context.Context, tourID string, date time.Time, excludeID string) (int, error) {
	defer r.s.guard(r.lock)()
	n := 0
	for _, b := range r.s.bookings {
		if b.TourID == tourID && b.Date.Equal(date) && b.Status == domain.BookingStatusConfirmed && b.ID != excludeID {
			n++
		}
	}
	return n, nil
}

func (r *bookingRepo) CountByTour(_ context.Context, tourID string) (int, error) {
	defer r.s.guard(r.lock)()
	n := 0
	for _, b := range r.s.bookings {
		if b.TourID == tourID {
			n++
		}
	}
	return n, nil
}

func (r *bookingRepo) MaxConfirmedPerDate(_ context.Context, tourID string) (int, error) {
	defer r.s.guard(r.lock)()
	perDate := make(map[string]int)
	highest := 0
	for _, b := range r.s.bookings {
		if b.TourID != tourID || b.Status != domain.BookingStatusConfirmed {
			continue
		}
		day := b.Date.UTC().Format(domain.DateLayout)
		perDate[day]++
		highest = max(highest, perDate[day])
	}
	return highest, nil
}

func (r *bookingRepo) HasCompleted(_ context.Context, touristID, tourID string) (bool, error) {
	defer r.s.guard(r.lock)()
	for _, b := range r.s.bookings {
		if b.TouristID == touristID && b.TourID == tourID && b.Status == domain.BookingStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *bookingRepo) Insert(_ context.Context, booking *domain.Booking) error {
	defer r.s.guard(r.lock)()
	if _, ok := r.s.tours[booking.TourID]; !ok {
		return fmt.Errorf("insert booking: %w", domain.ErrNotFound)
	}
	if _, ok := r.s.bookings[booking.ID]; ok {
		return fmt.Errorf("insert booking: %w", domain.ErrConflict)
	}
	for _, b := range r.s.bookings {
		if booking.Status.Active() && b.TouristID == booking.TouristID && b.TourID == booking.TourID && b.Status.Active() {
			return fmt.Errorf("insert booking: %w", domain.ErrConflict)
		}
	}
	booking.CreatedAt = r.s.now()
	booking.UpdatedAt = booking.CreatedAt
	r.s.bookings[booking.ID] = *booking
	return nil
}

func (r *bookingRepo) UpdateStatus(_ context.Context, id string, status domain.BookingStatus) error {
	defer r.s.guard(r.lock)()
	b, ok := r.s.bookings[id]
	if !ok {
		return fmt.Errorf("update booking status: %w", domain.ErrNotFound)
	}
	b.Status = status
	b.UpdatedAt = r.s.now()
	r.s.bookings[id] = b
	return nil
}

func (r *bookingRepo) List(_ context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	defer r.s.guard(r.lock)()
	out := make([]domain.Booking, 0)
	for _, b := range r.s.bookings {
		if filter.TouristID != "" && b.TouristID != filter.TouristID {
			continue
		}
		if filter.TourID != "" && b.TourID != filter.TourID {
			continue
		}
		b = r.project(b)
		if filter.GuideID != "" && b.Tour.GuideID != filter.GuideID {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type tourRepo struct {
	s    *Store
	lock bool
}

func (r *tourRepo) project(t domain.Tour) domain.Tour {
	t.GuideName = r.s.users[t.GuideID].Name
	t.ReviewCount, t.AvgRating, t.BookingCount = 0, 0, 0
	sum := 0
	for _, rv := range r.s.reviews {
		if rv.TourID == t.ID {
			t.ReviewCount++
			sum += rv.Rating
		}
	}
	if t.ReviewCount > 0 {
		t.AvgRating = float64(sum) / float64(t.ReviewCount)
	}
	for _, b := range r.s.bookings {
		if b.TourID == t.ID {
			t.BookingCount++
		}
	}
	return t
}

func (r *tourRepo) List(_ context.Context, filter domain.TourFilter) ([]domain.Tour, error) {
	defer r.s.guard(r.lock)()
	out := make([]domain.Tour, 0)
	for _, t := range r.s.tours {
		if filter.GuideID != "" && t.GuideID != filter.GuideID {
			continue
		}
		if filter.Location != "" && !strings.Contains(strings.ToLower(t.Location), strings.ToLower(filter.Location)) {
			continue
		}
		out = append(out, r.project(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *tourRepo) GetByID(_ context.Context, id string) (*domain.Tour, error) {
	defer r.s.guard(r.lock)()
	t, ok := r.s.tours[id]
	if !ok {
		return nil, fmt.Errorf("get tour: %w", domain.ErrNotFound)
	}
	t = r.project(t)
	return &t, nil
}

func (r *tourRepo) Create(_ context.Context, tour *domain.Tour) error {
	defer r.s.guard(r.lock)()
	if _, ok := r.s.users[tour.GuideID]; !ok {
		return fmt.Errorf("create tour: %w", domain.ErrNotFound)
	}
	tour.CreatedAt = r.s.now()
	tour.UpdatedAt = tour.CreatedAt
	r.s.tours[tour.ID] = *tour
	return nil
}

func (r *tourRepo) Update(_ context.Context, tour *domain.Tour) error {
	defer r.s.guard(r.lock)()
	current, ok := r.s.tours[tour.ID]
	if !ok {
		return fmt.Errorf("update tour: %w", domain.ErrNotFound)
	}
	tour.GuideID = current.GuideID
	tour.CreatedAt = current.CreatedAt
	tour.UpdatedAt = r.s.now()
	r.s.tours[tour.ID] = *tour
	return nil
}

func (r *tourRepo) Delete(_ context.Context, id string) error {
	defer r.s.guard(r.lock)()
	if _, ok := r.s.tours[id]; !ok {
		return fmt.Errorf("delete tour: %w", domain.ErrNotFound)
	}
	delete(r.s.tours, id)
	r.s.reviews = slices.DeleteFunc(r.s.reviews, func(rv domain.Review) bool { return rv.TourID == id })
	return nil
}

type reviewRepo struct {
	s    *Store
	lock bool
}

func (r *reviewRepo) project(rv domain.Review) domain.Review {
	author := r.s.users[rv.AuthorID]
	rv.AuthorName, rv.AuthorImage = author.Name, author.ImageURL
	rv.TourTitle = r.s.tours[rv.TourID].Title
	return rv
}

func (r *reviewRepo) Create(_ context.Context, review *domain.Review) error {
	defer r.s.guard(r.lock)()
	for _, rv := range r.s.reviews {
		if rv.TourID == review.TourID && rv.AuthorID == review.AuthorID {
			return fmt.Errorf("create review: %w", domain.ErrConflict)
		}
	}
	review.CreatedAt = r.s.now()
	r.s.reviews = append(r.s.reviews, *review)
	*review = r.project(*review)
	return nil
}

func (r *reviewRepo) ExistsByAuthorAndTour(_ context.Context, authorID, tourID string) (bool, error) {
	defer r.s.guard(r.lock)()
	return slices.ContainsFunc(r.s.reviews, func(rv domain.Review) bool {
		return rv.AuthorID == authorID && rv.TourID == tourID
	}), nil
}

func (r *reviewRepo) List(_ context.Context, filter domain.ReviewFilter) ([]domain.Review, error) {
	defer r.s.guard(r.lock)()
	out := make([]domain.Review, 0)
	for _, rv := range r.s.reviews {
		if filter.TourID != "" && rv.TourID != filter.TourID {
			continue
		}
		if filter.GuideID != "" && r.s.tours[rv.TourID].GuideID != filter.GuideID {
			continue
		}
		out = append(out, r.project(rv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type messageRepo struct {
	s    *Store
	lock bool
}

func (r *messageRepo) project(m domain.Message) domain.Message {
	sender := r.s.users[m.SenderID]
	m.SenderName, m.SenderImage = sender.Name, sender.ImageURL
	return m
}

func (r *messageRepo) Create(_ context.Context, msg *domain.Message) error {
	defer r.s.guard(r.lock)()
	if _, ok := r.s.bookings[msg.BookingID]; !ok {
		return fmt.Errorf("create message: %w", domain.ErrNotFound)
	}
	msg.CreatedAt = r.s.now()
	r.s.messages = append(r.s.messages, *msg)
	*msg = r.project(*msg)
	return nil
}

func (r *messageRepo) ListBefore(_ context.Context, bookingID string, before time.Time, limit int) ([]domain.Message, error) {
	defer r.s.guard(r.lock)()
	out := make([]domain.Message, 0)
	for _, m := range r.s.messages {
		if m.BookingID == bookingID && (before.IsZero() || m.CreatedAt.Before(before)) {
			out = append(out, r.project(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type userRepo struct {
	s    *Store
	lock bool
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	defer r.s.guard(r.lock)()
	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", domain.ErrNotFound)
	}
	if u.Profile != nil {
		p := *u.Profile
		u.Profile = &p
	}
	return &u, nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	defer r.s.guard(r.lock)()
	current, ok := r.s.users[user.ID]
	if !ok {
		return fmt.Errorf("update user: %w", domain.ErrNotFound)
	}
	current.Name = user.Name
	current.ImageURL = user.ImageURL
	if user.Profile != nil {
		p := *user.Profile
		current.Profile = &p
	}
	r.s.users[user.ID] = current
	return nil
}

var _ repository.Transactor = (*Store)(nil)
