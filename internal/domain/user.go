package domain

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Field limits and defaults for user records.
const (
	MaxFullNameLength = 25
	MaxUsernameLength = 25
	MaxStoryLength    = 200
	MinPasswordLength = 6

	DefaultAvatar = "https://gravatar.com/avatar/264cf395ab3bb310cd6747b71dd5f744?s=400&d=robohash&r=x"
	DefaultRole   = "user"
	DefaultGender = "male"
)

// User is a stored account. PasswordHash is empty when the record was loaded
// with the password excluded.
type User struct {
	ID           string
	FullName     string
	Username     string
	Email        string
	PasswordHash string
	Avatar       string
	Role         string
	Gender       string
	Mobile       string
	Address      string
	Story        string
	Website      string
	Followers    Relations
	Following    Relations
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary is the reduced projection of a related user.
type UserSummary struct {
	ID        string   `json:"_id"`
	Avatar    string   `json:"avatar"`
	Username  string   `json:"username"`
	FullName  string   `json:"fullname"`
	Followers []string `json:"followers"`
	Following []string `json:"following"`
}

// Relations is a follower or following set. It holds bare ids, plus the
// related users' summaries when the store was asked to populate them.
type Relations struct {
	IDs       []string
	Profiles  []UserSummary
	Populated bool
}

// MarshalJSON emits summaries when populated and ids otherwise, never null.
func (r Relations) MarshalJSON() ([]byte, error) {
	if r.Populated {
		if r.Profiles == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(r.Profiles)
	}
	if r.IDs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.IDs)
}

// UserView is the client-facing shape of a user. It has no password field.
type UserView struct {
	ID        string    `json:"_id"`
	FullName  string    `json:"fullname"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	Role      string    `json:"role"`
	Gender    string    `json:"gender"`
	Mobile    string    `json:"mobile"`
	Address   string    `json:"address"`
	Story     string    `json:"story"`
	Website   string    `json:"website"`
	Followers Relations `json:"followers"`
	Following Relations `json:"following"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// View returns the client-facing projection of u.
func (u *User) View() UserView {
	return UserView{
		ID:        u.ID,
		FullName:  u.FullName,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Role:      u.Role,
		Gender:    u.Gender,
		Mobile:    u.Mobile,
		Address:   u.Address,
		Story:     u.Story,
		Website:   u.Website,
		Followers: u.Followers,
		Following: u.Following,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUser builds a record ready for insertion with every default applied.
// The id and timestamps are left for the store to assign.
func NewUser(fullName, username, email, passwordHash, gender string) *User {
	if gender == "" {
		gender = DefaultGender
	}
	return &User{
		FullName:     fullName,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Avatar:       DefaultAvatar,
		Role:         DefaultRole,
		Gender:       gender,
		Followers:    Relations{IDs: []string{}},
		Following:    Relations{IDs: []string{}},
	}
}

// NormalizeUsername lowercases name and removes every Unicode whitespace
// character, including those inside the name.
func NormalizeUsername(name string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	return strings.ToLower(stripped)
}

// NormalizeEmail trims surrounding whitespace. Case is preserved.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// CharCount counts characters (runes), which is how length limits on names
// and passwords are measured.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}
