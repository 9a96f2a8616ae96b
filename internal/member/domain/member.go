package domain

import (
	"time"
)

type Member struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	StartDate   Date      `json:"start_date"`
	EndDate     *Date     `json:"end_date"` // nil means unlimited membership
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// Validate checks the invariants a stored member must always satisfy.
func (m *Member) Validate() error {
	verr := &ValidationError{}
	if _, err := ValidateName(m.Name); err != nil {
		verr.add("name", err)
	}
	if _, err := ValidatePhone(m.PhoneNumber); err != nil {
		verr.add("phone_number", err)
	}
	start := m.StartDate
	if err := ValidatePeriod(&start, m.EndDate); err != nil {
		verr.add("end_date", err)
	}
	return verr.orNil()
}

// CreateMemberRequest is the registration payload. EndDate may be omitted.
// Presence is checked in Validate rather than with binding tags so that a
// missing start date is reported alongside the other field errors in one 422.
type CreateMemberRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	StartDate   *Date  `json:"start_date"`
	EndDate     *Date  `json:"end_date"`
}

// Validate normalizes the request in place and reports every invalid field.
func (r *CreateMemberRequest) Validate() error {
	verr := &ValidationError{}

	name, err := ValidateName(r.Name)
	if err != nil {
		verr.add("name", err)
	}
	r.Name = name

	phone, err := ValidatePhone(r.PhoneNumber)
	if err != nil {
		verr.add("phone_number", err)
	}
	r.PhoneNumber = phone

	if r.StartDate == nil {
		verr.add("start_date", ErrMissingStartDate)
	} else if err := ValidatePeriod(r.StartDate, r.EndDate); err != nil {
		verr.add("end_date", err)
	}
	return verr.orNil()
}

func (r CreateMemberRequest) ToMember() *Member {
	m := &Member{
		Name:        r.Name,
		PhoneNumber: r.PhoneNumber,
		EndDate:     r.EndDate,
	}
	if r.StartDate != nil {
		m.StartDate = *r.StartDate
	}
	return m
}

// MemberPatch carries the fields of a partial update. Nil pointers and an
// unset EndDate leave the stored value untouched.
type MemberPatch struct {
	Name        *string      `json:"name"`
	PhoneNumber *string      `json:"phone_number"`
	StartDate   *Date        `json:"start_date"`
	EndDate     OptionalDate `json:"end_date"`
}

// Validate checks only the supplied fields.
func (p *MemberPatch) Validate() error {
	verr := &ValidationError{}
	if p.Name != nil {
		name, err := ValidateName(*p.Name)
		if err != nil {
			verr.add("name", err)
		}
		p.Name = &name
	}
	if p.PhoneNumber != nil {
		phone, err := ValidatePhone(*p.PhoneNumber)
		if err != nil {
			verr.add("phone_number", err)
		}
		p.PhoneNumber = &phone
	}
	if p.StartDate != nil && p.EndDate.Set {
		if err := ValidatePeriod(p.StartDate, p.EndDate.Value); err != nil {
			verr.add("end_date", err)
		}
	}
	return verr.orNil()
}

func (p MemberPatch) IsEmpty() bool {
	return p.Name == nil && p.PhoneNumber == nil && p.StartDate == nil && !p.EndDate.Set
}

// ApplyTo copies the supplied fields onto m and re-validates the result, so
// a new start date is checked against the current end date and vice versa.
func (p MemberPatch) ApplyTo(m *Member) error {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.PhoneNumber != nil {
		m.PhoneNumber = *p.PhoneNumber
	}
	if p.StartDate != nil {
		m.StartDate = *p.StartDate
	}
	if p.EndDate.Set {
		m.EndDate = p.EndDate.Value
	}
	return m.Validate()
}

// Candidate is the reduced view of a member returned when a suffix lookup
// matches more than one member.
type Candidate struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (m Member) Candidate() Candidate {
	return Candidate{ID: m.ID, Name: m.Name, Phone: m.PhoneNumber}
}

type CheckInResult struct {
	Member           Member `json:"member"`
	Status           Status `json:"status"`
	RemainingMessage string `json:"remaining_message"`
	WelcomeMessage   string `json:"welcome_message"`
}
