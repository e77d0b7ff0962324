package seed

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindCompany    Kind = "companies"
	KindCustomer   Kind = "customers"
	KindChat       Kind = "chats"
	KindAttendance Kind = "attendance"
	KindWorkHours  Kind = "workhours"
)

// Kinds lists every kind in the order `seed all` loads them. Companies go
// first since the other kinds reference them.
var Kinds = []Kind{KindCompany, KindCustomer, KindChat, KindAttendance, KindWorkHours}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Collection is the store collection a kind is written to.
func (k Kind) Collection() string {
	switch k {
	case KindCompany:
		return "companies"
	case KindCustomer:
		return "customers"
	case KindChat:
		return "chatHistory"
	case KindAttendance:
		return "attendance"
	case KindWorkHours:
		return "workHours"
	default:
		return ""
	}
}

// Record is one seed input. Payload is the document written to the store.
type Record interface {
	Kind() Kind
	Payload() (map[string]any, error)
}

// naturalKeyer is implemented by records whose key derives from their own
// fields, which makes re-seeding them idempotent.
type naturalKeyer interface {
	NaturalKey() string
}

type Company struct {
	ID           string   `json:"id" yaml:"id" validate:"required"`
	Name         string   `json:"name" yaml:"name" validate:"required"`
	Industry     string   `json:"industry,omitempty" yaml:"industry,omitempty"`
	Plan         string   `json:"plan,omitempty" yaml:"plan,omitempty"`
	ContactEmail string   `json:"contactEmail,omitempty" yaml:"contactEmail,omitempty" validate:"omitempty,emailshape"`
	AccessCodes  []string `json:"accessCodes,omitempty" yaml:"accessCodes,omitempty" validate:"dive,required"`
}

func (Company) Kind() Kind { return KindCompany }
func (c Company) NaturalKey() string { return c.ID }
func (c Company) Payload() (map[string]any, error) { return toPayload(c) }

type Customer struct {
	ID         string `json:"id" yaml:"id" validate:"required"`
	Name       string `json:"name" yaml:"name" validate:"required"`
	Email      string `json:"email" yaml:"email" validate:"required,emailshape"`
	Password   string `json:"password" yaml:"password" validate:"required,min=6"`
	CompanyID  string `json:"companyId" yaml:"companyId" validate:"required"`
	Role       string `json:"role,omitempty" yaml:"role,omitempty"`
	AccessCode string `json:"accessCode,omitempty" yaml:"accessCode,omitempty"`
}

func (Customer) Kind() Kind { return KindCustomer }
func (c Customer) NaturalKey() string { return c.ID }

// Payload never contains the password. The runner adds the hashed one when
// it owns the identity.
func (c Customer) Payload() (map[string]any, error) {
	p, err := toPayload(c)
	if err != nil {
		return nil, err
	}
	delete(p, "password")
	return p, nil
}

type ChatMessage struct {
	Role    string    `json:"role" yaml:"role" validate:"required,oneof=user assistant system"`
	Content string    `json:"content" yaml:"content" validate:"required"`
	SentAt  time.Time `json:"sentAt" yaml:"sentAt" validate:"required"`
}

type ChatSession struct {
	CompanyID string        `json:"companyId" yaml:"companyId" validate:"required"`
	UserID    string        `json:"userId" yaml:"userId" validate:"required"`
	Title     string        `json:"title,omitempty" yaml:"title,omitempty"`
	StartedAt time.Time     `json:"startedAt" yaml:"startedAt" validate:"required"`
	Messages  []ChatMessage `json:"messages" yaml:"messages" validate:"dive"`
}

func (ChatSession) Kind() Kind { return KindChat }
func (c ChatSession) Payload() (map[string]any, error) { return toPayload(c) }

type AttendanceRecord struct {
	AccessCode  string `json:"accessCode" yaml:"accessCode" validate:"required"`
	Month       string `json:"month" yaml:"month" validate:"required,yearmonth"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	PresentDays int    `json:"presentDays" yaml:"presentDays" validate:"gte=0,lte=31"`
	AbsentDays  int    `json:"absentDays" yaml:"absentDays" validate:"gte=0,lte=31"`
	LateDays    int    `json:"lateDays" yaml:"lateDays" validate:"gte=0,lte=31"`
	LeaveDays   int    `json:"leaveDays,omitempty" yaml:"leaveDays,omitempty" validate:"gte=0,lte=31"`
}

func (AttendanceRecord) Kind() Kind { return KindAttendance }
func (a AttendanceRecord) NaturalKey() string { return a.AccessCode + "_" + a.Month }
func (a AttendanceRecord) Payload() (map[string]any, error) { return toPayload(a) }

type DayHours struct {
	Date  string  `json:"date" yaml:"date" validate:"required,datetime=2006-01-02"`
	Hours float64 `json:"hours" yaml:"hours" validate:"gte=0,lte=24"`
}

type WorkHoursRecord struct {
	AccessCode    string     `json:"accessCode" yaml:"accessCode" validate:"required"`
	Month         string     `json:"month" yaml:"month" validate:"required,yearmonth"`
	Name          string     `json:"name,omitempty" yaml:"name,omitempty"`
	TotalHours    float64    `json:"totalHours" yaml:"totalHours" validate:"gte=0"`
	OvertimeHours float64    `json:"overtimeHours,omitempty" yaml:"overtimeHours,omitempty" validate:"gte=0"`
	Days          []DayHours `json:"days,omitempty" yaml:"days,omitempty" validate:"dive"`
}

func (WorkHoursRecord) Kind() Kind { return KindWorkHours }
func (w WorkHoursRecord) NaturalKey() string { return w.AccessCode + "_" + w.Month }
func (w WorkHoursRecord) Payload() (map[string]any, error) { return toPayload(w) }

// toPayload goes through JSON so documents carry the json field names and
// RFC3339 timestamps whatever the backend.
func toPayload(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
