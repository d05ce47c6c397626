package models

import (
	"regexp"
	"strings"
	"time"
)

// SystemAccount is recorded as author of writes that carry no user context.
const SystemAccount = "system"

// Accommodation is a hotel offered to employees on assignment.
type Accommodation struct {
	ID       ID     `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Hotelier string `json:"hotelier,omitempty"`
	Category string `json:"category,omitempty"`
	Location *Ref   `json:"location,omitempty"`
}

type Country struct {
	ID          ID     `json:"id,omitempty"`
	CountryName string `json:"countryName,omitempty"`
	Region      *Ref   `json:"region,omitempty"`
}

// Department groups employees at a location. DepartmentName is required.
type Department struct {
	ID             ID     `json:"id,omitempty"`
	DepartmentName string `json:"departmentName,omitempty" validate:"required"`
	Location       *Ref   `json:"location,omitempty"`
}

// Employee is a person on the payroll. Salary and CommissionPct are whole
// amounts; Manager references another employee.
type Employee struct {
	ID            ID         `json:"id,omitempty"`
	FirstName     string     `json:"firstName,omitempty"`
	LastName      string     `json:"lastName,omitempty"`
	Email         string     `json:"email,omitempty"`
	PhoneNumber   string     `json:"phoneNumber,omitempty"`
	HireDate      *time.Time `json:"hireDate,omitempty"`
	Salary        *int64     `json:"salary,omitempty"`
	CommissionPct *int64     `json:"commissionPct,omitempty"`
	Department    *Ref       `json:"department,omitempty"`
	Manager       *Ref       `json:"manager,omitempty"`
}

// Job is a position with a salary band and the tasks it involves.
type Job struct {
	ID        ID     `json:"id,omitempty"`
	JobTitle  string `json:"jobTitle,omitempty"`
	MinSalary *int64 `json:"minSalary,omitempty"`
	MaxSalary *int64 `json:"maxSalary,omitempty"`
	Tasks     []Ref  `json:"tasks,omitempty"`
	Employee  *Ref   `json:"employee,omitempty"`
}

// Language is the working language of a job history entry.
type Language string

const (
	LanguageFrench  Language = "FRENCH"
	LanguageEnglish Language = "ENGLISH"
	LanguageSpanish Language = "SPANISH"
)

// Valid reports whether l is one of the known languages.
func (l Language) Valid() bool {
	switch l {
	case LanguageFrench, LanguageEnglish, LanguageSpanish:
		return true
	}
	return false
}

// JobHistory records an employee holding a job in a department for a period.
type JobHistory struct {
	ID         ID         `json:"id,omitempty"`
	StartDate  *time.Time `json:"startDate,omitempty"`
	EndDate    *time.Time `json:"endDate,omitempty"`
	Language   Language   `json:"language,omitempty" validate:"omitempty,oneof=FRENCH ENGLISH SPANISH"`
	Job        *Ref       `json:"job,omitempty"`
	Department *Ref       `json:"department,omitempty"`
	Employee   *Ref       `json:"employee,omitempty"`
}

type Location struct {
	ID            ID     `json:"id,omitempty"`
	StreetAddress string `json:"streetAddress,omitempty"`
	PostalCode    string `json:"postalCode,omitempty"`
	City          string `json:"city,omitempty"`
	StateProvince string `json:"stateProvince,omitempty"`
	Country       *Ref   `json:"country,omitempty"`
}

type Region struct {
	ID         ID     `json:"id,omitempty"`
	RegionName string `json:"regionName,omitempty"`
}

type Task struct {
	ID          ID     `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// User is an application account. Login and Email are stored lowercased and
// the audit columns are maintained by Normalize and KeepCreated.
type User struct {
	ID               ID         `json:"id,omitempty"`
	Login            string     `json:"login,omitempty" validate:"required,login,max=50"`
	FirstName        string     `json:"firstName,omitempty" validate:"max=50"`
	LastName         string     `json:"lastName,omitempty" validate:"max=50"`
	Email            string     `json:"email,omitempty" validate:"omitempty,min=5,max=254"`
	ImageURL         string     `json:"imageUrl,omitempty" validate:"max=256"`
	Activated        bool       `json:"activated"`
	LangKey          string     `json:"langKey,omitempty" validate:"omitempty,min=2,max=10"`
	ActivationKey    *string    `json:"activationKey,omitempty" validate:"omitnil,max=20"`
	ResetKey         *string    `json:"resetKey,omitempty" validate:"omitnil,max=20"`
	ResetDate        *time.Time `json:"resetDate,omitempty"`
	CreatedBy        string     `json:"createdBy,omitempty"`
	CreatedDate      *time.Time `json:"createdDate,omitempty"`
	LastModifiedBy   string     `json:"lastModifiedBy,omitempty"`
	LastModifiedDate *time.Time `json:"lastModifiedDate,omitempty"`
	Authorities      []string   `json:"authorities,omitempty"`
}

func (e *Accommodation) GetID() ID {
	if e == nil {
		return ""
	}
	return e.ID
}

func (e *Accommodation) SetID(id ID) { e.ID = id }

func (e *Country) GetID() ID {
	if e == nil {
		return ""
	}
	return e.ID
}

func (e *Country) SetID(id ID) { e.ID = id }

func (e *Department) GetID() ID {
	if e == nil {
		return ""
	}
	return e.ID
}

func (e *Department) SetID(id ID) { e.ID = id }

func (e *Employee) GetID() ID {
	if e == nil {
		return ""
	}
	return e.ID
}

func (e *Employee) SetID(id ID) { e.ID = id }

func (e *Job) GetID() ID {
	if e == nil {
		return ""
	}
	return e.ID
}

func (e *Job) SetID(id ID) { e.ID = id }

func (e *JobHistory) GetID() ID {
	if e == nil {
		return ""
	}
	return e.ID
}

func (e *JobHistory) SetID(id ID) { e.ID = id }

func (e *Location) GetID() ID {
	if e == nil {
		return ""
	}
	return e.ID
}

func (e *Location) SetID(id ID) { e.ID = id }

func (e *Region) GetID() ID {
	if e == nil {
		return ""
	}
	return e.ID
}

func (e *Region) SetID(id ID) { e.ID = id }

func (e *Task) GetID() ID {
	if e == nil {
		return ""
	}
	return e.ID
}

func (e *Task) SetID(id ID) { e.ID = id }

func (e *User) GetID() ID {
	if e == nil {
		return ""
	}
	return e.ID
}

func (e *User) SetID(id ID) { e.ID = id }

func (e *Accommodation) Validate() error { return nil }
func (e *Country) Validate() error       { return nil }
func (e *Employee) Validate() error      { return nil }
func (e *Location) Validate() error      { return nil }
func (e *Region) Validate() error        { return nil }
func (e *Task) Validate() error          { return nil }

func (e *Department) Validate() error { return check(DepartmentKind.Name, e) }
func (e *Job) Validate() error        { return check(JobKind.Name, e) }

// Normalize drops duplicate task references.
func (e *Job) Normalize(time.Time) {
	e.Tasks = Unique(e.Tasks)
}

func (e *JobHistory) Validate() error { return check(JobHistoryKind.Name, e) }

var loginPattern = regexp.MustCompile("^(?:[a-zA-Z0-9!$&*+=?^_`{|}~.-]+@[a-zA-Z0-9-]+(?:\\.[a-zA-Z0-9-]+)*|[_.@A-Za-z0-9-]+)$")

func (e *User) Validate() error { return check(UserKind.Name, e) }

// Normalize lowercases login and email and maintains the audit columns.
func (e *User) Normalize(now time.Time) {
	e.Login = strings.ToLower(e.Login)
	e.Email = strings.ToLower(e.Email)
	if e.CreatedBy == "" {
		e.CreatedBy = SystemAccount
	}
	if e.CreatedDate == nil {
		created := now
		e.CreatedDate = &created
	}
	e.LastModifiedBy = SystemAccount
	modified := now
	e.LastModifiedDate = &modified
}

// KeepCreated restores createdBy and createdDate from the stored user.
func (e *User) KeepCreated(stored Entity) {
	prev, ok := stored.(*User)
	if !ok || prev == nil {
		return
	}
	if prev.CreatedBy != "" {
		e.CreatedBy = prev.CreatedBy
	}
	if prev.CreatedDate != nil {
		e.CreatedDate = prev.CreatedDate
	}
}
