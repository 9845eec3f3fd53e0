package directory

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
	"studbook/pkg/pagination"
	"studbook/pkg/platform/audit"
	"studbook/pkg/platform/sentinel"
	"studbook/pkg/requestcontext"
)

// Service orchestrates member lifecycle. It is the only writer to the member
// store besides the reconciliation engine, which goes through
// FindOrCreateByExternalID and SetStanding here.
type Service struct {
	store Store
	audit *audit.Publisher
}

func NewService(store Store, publisher *audit.Publisher) *Service {
	return &Service{store: store, audit: publisher}
}

// RegisterInput carries self-registration fields. Members only register here
// after paying in the membership portal, hence IsPaid defaulting true.
type RegisterInput struct {
	Prefix     string     `json:"prefix"`
	FirstName  string     `json:"firstName"`
	MiddleName string     `json:"middleName"`
	LastName   string     `json:"lastName"`
	Suffix     string     `json:"suffix"`
	Address    string     `json:"address"`
	Country    string     `json:"country"`
	State      string     `json:"state"`
	Province   string     `json:"province"`
	City       string     `json:"city"`
	Zip        string     `json:"zip"`
	HomePhone  string     `json:"homePhone"`
	WorkPhone  string     `json:"workPhone"`
	Mobile     string     `json:"mobile"`
	Email      string     `json:"email"`
	Password   string     `json:"password"`
	Birthday   *time.Time `json:"birthday"`
}

// Register creates a self-registered member with a hashed password.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Member, error) {
	if input.Password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	member := &Member{
		Prefix:       input.Prefix,
		FirstName:    input.FirstName,
		MiddleName:   input.MiddleName,
		LastName:     input.LastName,
		Suffix:       input.Suffix,
		Address:      input.Address,
		Country:      input.Country,
		State:        input.State,
		Province:     input.Province,
		City:         input.City,
		Zip:          input.Zip,
		HomePhone:    input.HomePhone,
		WorkPhone:    input.WorkPhone,
		Mobile:       input.Mobile,
		Email:        input.Email,
		PasswordHash: string(hash),
		IsActive:     true,
		IsPaid:       true,
		Birthday:     input.Birthday,
		Role:         RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := member.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, member); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create member")
	}

	s.audit.Emit(ctx, audit.Event{
		Name:     audit.EventMemberRegistered,
		MemberID: member.ID,
		Subject:  member.ID.String(),
	})
	return member, nil
}

// BootstrapInput carries the deployment-configured admin credentials.
type BootstrapInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// BootstrapAdmin ensures an admin account exists for the configured email.
// A fresh deployment gets its first admin created here; an existing member
// with that email is promoted instead. Idempotent across restarts, so main
// can call it unconditionally whenever credentials are configured.
func (s *Service) BootstrapAdmin(ctx context.Context, input BootstrapInput) (*Member, error) {
	if input.Email == "" || input.Password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "admin email and password are required")
	}

	existing, err := s.store.FindByEmail(ctx, input.Email)
	if err == nil {
		if existing.Role == RoleAdmin {
			return existing, nil
		}
		now := requestcontext.Now(ctx)
		promoted, err := s.store.Execute(ctx, existing.ID,
			func(m *Member) error { return nil },
			func(m *Member) {
				m.Role = RoleAdmin
				m.UpdatedAt = now
			},
		)
		if err != nil {
			return nil, wrapMemberErr(err)
		}
		return promoted, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up admin account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	now := requestcontext.Now(ctx)
	admin := &Member{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: string(hash),
		IsActive:     true,
		IsPaid:       true,
		Role:         RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := admin.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, admin); err != nil {
		return nil, wrapMemberErr(err)
	}

	s.audit.Emit(ctx, audit.Event{
		Name:     audit.EventMemberRegistered,
		MemberID: admin.ID,
		Subject:  admin.ID.String(),
		Detail:   RoleAdmin,
	})
	return admin, nil
}

// Authenticate verifies email+password credentials. The error is identical
// for unknown email and wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Member, error) {
	member, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "invalid login credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)) != nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "invalid login credentials")
	}
	return member, nil
}

func (s *Service) Get(ctx context.Context, memberID id.MemberID) (*Member, error) {
	member, err := s.store.FindByID(ctx, memberID)
	if err != nil {
		return nil, wrapMemberErr(err)
	}
	return member, nil
}

func (s *Service) List(ctx context.Context, filter Filter, page pagination.Page) (int, []*Member, error) {
	return s.store.CountAndList(ctx, filter, page)
}

// ProfilePatch updates contact fields. Nil pointers leave a field untouched.
type ProfilePatch struct {
	Address   *string `json:"address"`
	Country   *string `json:"country"`
	State     *string `json:"state"`
	Province  *string `json:"province"`
	City      *string `json:"city"`
	Zip       *string `json:"zip"`
	HomePhone *string `json:"homePhone"`
	WorkPhone *string `json:"workPhone"`
	Mobile    *string `json:"mobile"`
	Email     *string `json:"email"`
}

func (s *Service) UpdateProfile(ctx context.Context, memberID id.MemberID, patch ProfilePatch) (*Member, error) {
	now := requestcontext.Now(ctx)
	member, err := s.store.Execute(ctx, memberID,
		func(m *Member) error {
			if patch.Email != nil && *patch.Email == "" {
				return dErrors.New(dErrors.CodeBadRequest, "email cannot be empty")
			}
			return nil
		},
		func(m *Member) {
			applyIfSet(&m.Address, patch.Address)
			applyIfSet(&m.Country, patch.Country)
			applyIfSet(&m.State, patch.State)
			applyIfSet(&m.Province, patch.Province)
			applyIfSet(&m.City, patch.City)
			applyIfSet(&m.Zip, patch.Zip)
			applyIfSet(&m.HomePhone, patch.HomePhone)
			applyIfSet(&m.WorkPhone, patch.WorkPhone)
			applyIfSet(&m.Mobile, patch.Mobile)
			applyIfSet(&m.Email, patch.Email)
			m.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, wrapMemberErr(err)
	}
	return member, nil
}

// Delete physically removes a member. Admin-only; reconciliation never
// deletes, it only deactivates.
func (s *Service) Delete(ctx context.Context, memberID id.MemberID) error {
	if err := s.store.Delete(ctx, memberID); err != nil {
		return wrapMemberErr(err)
	}
	s.audit.Emit(ctx, audit.Event{
		Name:     audit.EventMemberDeleted,
		MemberID: memberID,
		Subject:  memberID.String(),
	})
	return nil
}

// SetStanding flips the account-standing flag. Idempotent: setting the same
// value twice converges without error, which is what replayed membership
// events need.
func (s *Service) SetStanding(ctx context.Context, memberID id.MemberID, active bool) (*Member, error) {
	now := requestcontext.Now(ctx)
	member, err := s.store.Execute(ctx, memberID,
		func(m *Member) error { return nil },
		func(m *Member) { m.ApplyStanding(active, now) },
	)
	if err != nil {
		return nil, wrapMemberErr(err)
	}

	name := audit.EventMemberDeactivated
	if active {
		name = audit.EventMemberReactivated
	}
	s.audit.Emit(ctx, audit.Event{Name: name, MemberID: memberID, Subject: memberID.String()})
	return member, nil
}

// FindOrCreateByExternalID is the single place where the external contact id
// becomes a local primary key. The existence check short-circuits before the
// seed callback runs, so replayed events never hit the external system and
// never create duplicates. The seed callback performs the upstream fetch; if
// it fails, nothing has been written (create-or-abort).
func (s *Service) FindOrCreateByExternalID(ctx context.Context, contactID id.MemberID,
	seed func(ctx context.Context) (*Member, error)) (*Member, bool, error) {
	existing, err := s.store.FindByID(ctx, contactID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up member")
	}

	member, err := seed(ctx)
	if err != nil {
		return nil, false, err
	}
	member.ID = contactID
	now := requestcontext.Now(ctx)
	member.CreatedAt = now
	member.UpdatedAt = now
	if err := member.Validate(); err != nil {
		return nil, false, err
	}

	if err := s.store.Create(ctx, member); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			// Lost a race with a concurrent delivery of the same event.
			existing, ferr := s.store.FindByID(ctx, contactID)
			if ferr == nil {
				return existing, false, nil
			}
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create member")
	}
	return member, true, nil
}

// AppendPendingHorse records a submitted horse on the member's worklist.
func (s *Service) AppendPendingHorse(ctx context.Context, memberID id.MemberID, horseID id.HorseID) error {
	now := requestcontext.Now(ctx)
	_, err := s.store.Execute(ctx, memberID,
		func(m *Member) error { return nil },
		func(m *Member) { m.AppendPendingHorse(horseID, now) },
	)
	if err != nil {
		return wrapMemberErr(err)
	}
	return nil
}

// RemovePendingHorse clears an adjudicated horse from the worklist.
func (s *Service) RemovePendingHorse(ctx context.Context, memberID id.MemberID, horseID id.HorseID) error {
	now := requestcontext.Now(ctx)
	_, err := s.store.Execute(ctx, memberID,
		func(m *Member) error { return nil },
		func(m *Member) { m.RemovePendingHorse(horseID, now) },
	)
	if err != nil {
		return wrapMemberErr(err)
	}
	return nil
}

func applyIfSet(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func wrapMemberErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "member not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "email is already registered")
	case dErrors.HasCode(err, dErrors.CodeBadRequest),
		dErrors.HasCode(err, dErrors.CodeConflict),
		dErrors.HasCode(err, dErrors.CodeInvalidState),
		dErrors.HasCode(err, dErrors.CodeForbidden):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "member store failure")
	}
}
