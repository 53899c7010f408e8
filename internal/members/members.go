// Package members implements signup and the member directory on top of a storage.MemberStore.
package members

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/solar"
	"github.com/mmynk/currentsee/internal/storage"
)

// maxUsernameAttempts bounds the numeric suffixes tried for a derived username.
const maxUsernameAttempts = 50

// ErrEmailTaken is returned when an email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// ErrUsernameTaken is returned when an explicitly requested username is in use.
var ErrUsernameTaken = errors.New("username already taken")

// Service manages members.
type Service struct {
	store storage.MemberStore
	clock clockwork.Clock
	loc   *time.Location
	rates solar.Rates
}

// Options configures a Service. Zero values mean real clock, UTC and default rates.
type Options struct {
	Clock    clockwork.Clock
	Location *time.Location
	Rates    solar.Rates
}

func NewService(store storage.MemberStore, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Rates.USDPerSolar.IsZero() {
		opts.Rates = solar.DefaultRates()
	}
	return &Service{store: store, clock: opts.Clock, loc: opts.Location, rates: opts.Rates}
}

// Rates returns the conversion rates used for dollar balances.
func (s *Service) Rates() solar.Rates {
	return s.rates
}

// SignupRequest is the input to Signup. Username is derived from Name when empty.
type SignupRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Username    string `json:"username,omitempty"`
	IsAnonymous bool   `json:"isAnonymous,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Signup validates req and creates a member seeded with the signup bonus.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*models.Member, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}
	email, err := validateEmail(req.Email)
	if err != nil {
		return nil, err
	}

	explicit := req.Username != ""
	base := Slugify(name)
	if explicit {
		if base, err = validateUsername(req.Username); err != nil {
			return nil, err
		}
	}

	if _, err := s.store.GetMemberByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	m := &models.Member{
		Name:        name,
		Email:       email,
		JoinedDate:  s.clock.Now().UTC().Truncate(time.Second),
		IsAnonymous: req.IsAnonymous,
		Notes:       req.Notes,
	}
	solar.Seed(m, s.loc, s.rates)

	for attempt := 1; attempt <= maxUsernameAttempts; attempt++ {
		m.ID = ""
		m.Username = withSuffix(base, attempt)

		err := s.store.CreateMember(ctx, m)
		if err == nil {
			slog.InfoContext(ctx, "Member signed up",
				"member_id", m.ID,
				"username", m.Username,
				"anonymous", m.IsAnonymous,
			)
			return m, nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("failed to create member: %w", err)
		}

		// Conflict is either the email (lost a race) or the username.
		if _, lookupErr := s.store.GetMemberByEmail(ctx, email); lookupErr == nil {
			return nil, ErrEmailTaken
		}
		if explicit {
			return nil, ErrUsernameTaken
		}
	}

	return nil, fmt.Errorf("no free username for %q after %d attempts: %w", base, maxUsernameAttempts, storage.ErrConflict)
}

// List returns members ordered by join date. Reserve and placeholder rows are
// included only when includeAll is set.
func (s *Service) List(ctx context.Context, includeAll bool) ([]*models.Member, error) {
	return s.store.ListMembers(ctx, listOptions(includeAll))
}

// Count counts members with the same filter as List.
func (s *Service) Count(ctx context.Context, includeAll bool) (int, error) {
	return s.store.CountMembers(ctx, listOptions(includeAll))
}

func (s *Service) Get(ctx context.Context, id string) (*models.Member, error) {
	return s.store.GetMember(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteMember(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Member deleted", "member_id", id)
	return nil
}

// Totals summarizes the economy across every stored member.
func (s *Service) Totals(ctx context.Context) (solar.Totals, error) {
	all, err := s.store.ListMembers(ctx, storage.All())
	if err != nil {
		return solar.Totals{}, err
	}
	return solar.Summarize(all, s.rates), nil
}

// MemberPatch lists the fields Update may change. Nil fields are left as they are.
type MemberPatch struct {
	Name          *string `json:"name,omitempty"`
	Email         *string `json:"email,omitempty"`
	Username      *string `json:"username,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	IsAnonymous   *bool   `json:"isAnonymous,omitempty"`
	IsReserve     *bool   `json:"isReserve,omitempty"`
	IsPlaceholder *bool   `json:"isPlaceholder,omitempty"`
}

// Update applies patch to the member. A member that becomes eligible for
// distribution starts accruing from today rather than being back-paid.
func (s *Service) Update(ctx context.Context, id string, patch MemberPatch) (*models.Member, error) {
	m, err := s.store.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	wasEligible := m.EligibleForDistribution()

	if patch.Name != nil {
		if m.Name, err = validateName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Email != nil {
		// Placeholders may carry no email.
		if *patch.Email == "" && m.IsPlaceholder {
			m.Email = ""
		} else if m.Email, err = validateEmail(*patch.Email); err != nil {
			return nil, err
		}
	}
	if patch.Username != nil {
		if m.Username, err = validateUsername(*patch.Username); err != nil {
			return nil, err
		}
	}
	if patch.Notes != nil {
		m.Notes = *patch.Notes
	}
	if patch.IsAnonymous != nil {
		m.IsAnonymous = *patch.IsAnonymous
	}
	if patch.IsReserve != nil {
		m.IsReserve = *patch.IsReserve
	}
	if patch.IsPlaceholder != nil {
		m.IsPlaceholder = *patch.IsPlaceholder
	}

	if !wasEligible && m.EligibleForDistribution() {
		m.LastDistributionDate = solar.Today(s.clock.Now(), s.loc)
	}

	if err := s.store.UpdateMember(ctx, m); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Member updated", "member_id", m.ID)
	return m, nil
}

func listOptions(includeAll bool) storage.ListOptions {
	if includeAll {
		return storage.All()
	}
	return storage.ListOptions{}
}
