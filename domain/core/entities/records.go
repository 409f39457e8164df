package entities

import (
	"fmt"
	"time"
)

// User is an employee account. Credentials are managed elsewhere.
type User struct {
	Base
	Username     string `json:"username" dynamodbav:"username" validate:"required,max=80"`
	Email        string `json:"email" dynamodbav:"email" validate:"required,email,max=120"`
	DepartmentID *int64 `json:"department_id,omitempty" dynamodbav:"department_id,omitempty" validate:"omitempty,gt=0"`
}

func (u *User) ApplyDefaults() {}

func (u *User) Validate() error { return validate(u) }

type Department struct {
	Base
	Name        string `json:"name" dynamodbav:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" dynamodbav:"description,omitempty"`
}

func (d *Department) ApplyDefaults() {}

func (d *Department) Validate() error { return validate(d) }

const DefaultCurrency = "USD"

// Salary is one compensation record; EffectiveDate is a calendar date.
type Salary struct {
	Base
	UserID        int64   `json:"user_id" dynamodbav:"user_id" validate:"required,gt=0"`
	Amount        float64 `json:"amount" dynamodbav:"amount" validate:"gt=0"`
	Currency      string  `json:"currency" dynamodbav:"currency" validate:"required,max=10"`
	EffectiveDate string  `json:"effective_date" dynamodbav:"effective_date" validate:"required,datetime=2006-01-02"`
}

func (s *Salary) ApplyDefaults() {
	if s.Currency == "" {
		s.Currency = DefaultCurrency
	}
}

func (s *Salary) Validate() error { return validate(s) }

// AttendanceStatus values accepted for Attendance.Status.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLeave   = "leave"
)

type Attendance struct {
	Base
	UserID   int64      `json:"user_id" dynamodbav:"user_id" validate:"required,gt=0"`
	Date     string     `json:"date" dynamodbav:"date" validate:"required,datetime=2006-01-02"`
	CheckIn  *time.Time `json:"check_in,omitempty" dynamodbav:"check_in,omitempty"`
	CheckOut *time.Time `json:"check_out,omitempty" dynamodbav:"check_out,omitempty"`
	Status   string     `json:"status" dynamodbav:"status" validate:"oneof=present absent leave"`
	Notes    string     `json:"notes,omitempty" dynamodbav:"notes,omitempty"`
}

func (a *Attendance) ApplyDefaults() {
	if a.Status == "" {
		a.Status = StatusPresent
	}
}

func (a *Attendance) Validate() error {
	if err := validate(a); err != nil {
		return err
	}
	if a.CheckIn != nil && a.CheckOut != nil && a.CheckOut.Before(*a.CheckIn) {
		return fmt.Errorf("check_out must not be before check_in")
	}
	return nil
}
