package auth

import (
	"fmt"
	"time"
)

// UsersCollection holds one document per user, keyed by the exact email.
const UsersCollection = "users"

type UserRecord struct {
	ID        string
	Name      string
	Email     string
	Password  string
	CompanyID string
	CreatedAt time.Time
}

// PublicProfile is what leaves the directory. It has no password field.
type PublicProfile struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email"`
	CompanyID string `json:"companyId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func (u *UserRecord) Profile() PublicProfile {
	p := PublicProfile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CompanyID: u.CompanyID,
	}
	if !u.CreatedAt.IsZero() {
		p.CreatedAt = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	return p
}

func (u *UserRecord) toDocument() map[string]any {
	doc := map[string]any{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"password":  u.Password,
		"createdAt": u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.CompanyID != "" {
		doc["companyId"] = u.CompanyID
	}
	return doc
}

func userFromDocument(data map[string]any) (*UserRecord, error) {
	u := &UserRecord{
		ID:        stringField(data, "id"),
		Name:      stringField(data, "name"),
		Email:     stringField(data, "email"),
		Password:  stringField(data, "password"),
		CompanyID: stringField(data, "companyId"),
	}
	if u.Email == "" {
		return nil, fmt.Errorf("user document has no email")
	}

	if raw := stringField(data, "createdAt"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("user document createdAt: %w", err)
		}
		u.CreatedAt = t
	}
	return u, nil
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}
