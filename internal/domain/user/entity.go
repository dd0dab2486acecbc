package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleWorker     Role = "worker"     // Daily-wage worker marking own attendance
	RoleContractor Role = "contractor" // Employs workers, reads their attendance
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleWorker || r == RoleContractor
}

const localIDPrefix = "local_"

// ID identifies a user and records where the id was minted. Remote ids come
// from the remote record store; local ids were minted on this device while
// the remote store was unavailable and never exist remotely.
type ID struct {
	value string
	local bool
}

// RemoteID wraps an id issued by the remote record store.
func RemoteID(value string) ID {
	return ID{value: value}
}

// NewLocalID mints a device-local id.
func NewLocalID() ID {
	return ID{value: localIDPrefix + uuid.Must(uuid.NewV7()).String(), local: true}
}

// ParseID restores an ID from its string form, e.g. a cache key or a JWT claim.
func ParseID(value string) ID {
	return ID{value: value, local: strings.HasPrefix(value, localIDPrefix)}
}

func (id ID) String() string { return id.value }

// IsLocal reports whether the id was minted locally.
func (id ID) IsLocal() bool { return id.local }

func (id ID) IsZero() bool { return id.value == "" }

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	*id = ParseID(string(text))
	return nil
}

type User struct {
	ID        ID        `json:"id"`
	Mobile    string    `json:"mobile"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Password  *string   `json:"password,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Worker
	Skill                *string `json:"skill,omitempty"`
	LinkedContractorCode *string `json:"linked_contractor_code,omitempty"`

	// Contractor
	CompanyName    *string `json:"company_name,omitempty"`
	ContractorCode *string `json:"contractor_code,omitempty"`
}

// IsContractor checks if user is a contractor
func (u *User) IsContractor() bool {
	return u.Role == RoleContractor
}

// IsWorker checks if user is a worker
func (u *User) IsWorker() bool {
	return u.Role == RoleWorker
}

// HasPassword checks if a PIN has been set
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// HasContractorCode checks if a contractor already owns a generated code
func (u *User) HasContractorCode() bool {
	return u.ContractorCode != nil && *u.ContractorCode != ""
}
