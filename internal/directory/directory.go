// Package directory holds the fixed set of users a device knows about.
package directory

import (
	"fmt"
	"sort"

	"attendbot/internal/models"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// Directory is immutable after New; it is safe to share between tests.
// Passwords are kept only as bcrypt hashes.
type Directory struct {
	users  []models.User
	hashes [][]byte

	// unknown is compared against when no username matches.
	unknown []byte
}

// HashCost is the bcrypt cost used when a directory is built.
// Tests lower it to bcrypt.MinCost.
var HashCost = bcrypt.DefaultCost

// bcrypt ignores key bytes past this length.
const maxPasswordLen = 72

var compareHash = bcrypt.CompareHashAndPassword

// New validates the seed and builds a directory. Usernames must be unique.
func New(users []models.User) (*Directory, error) {
	validate := validator.New()
	dir := &Directory{
		users:  make([]models.User, 0, len(users)),
		hashes: make([][]byte, 0, len(users)),
	}
	seen := make(map[string]bool, len(users))
	ids := make(map[int]bool, len(users))

	for i, u := range users {
		if err := validate.Struct(u); err != nil {
			return nil, fmt.Errorf("invalid user at index %d: %w", i, err)
		}
		if seen[u.Username] {
			return nil, fmt.Errorf("duplicate username %q", u.Username)
		}
		if ids[u.ID] {
			return nil, fmt.Errorf("duplicate user id %d", u.ID)
		}
		seen[u.Username] = true
		ids[u.ID] = true

		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), HashCost)
		if err != nil {
			return nil, fmt.Errorf("error hashing password for %q: %w", u.Username, err)
		}
		u.Password = ""
		dir.users = append(dir.users, u)
		dir.hashes = append(dir.hashes, hash)
	}

	unknown, err := bcrypt.GenerateFromPassword([]byte("unknown-user"), HashCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing placeholder password: %w", err)
	}
	dir.unknown = unknown

	return dir, nil
}

// Demo returns the five demo accounts used when no seed is configured.
func Demo() []models.User {
	return []models.User{
		{ID: 1, Username: "admin", Password: "admin123", Name: "Admin User", Role: models.RoleAdmin, Department: "Management", Email: "admin@company.com"},
		{ID: 2, Username: "john", Password: "john123", Name: "John Doe", Role: models.RoleEmployee, Department: "Sales", Email: "john@company.com"},
		{ID: 3, Username: "jane", Password: "jane123", Name: "Jane Smith", Role: models.RoleEmployee, Department: "Marketing", Email: "jane@company.com"},
		{ID: 4, Username: "bob", Password: "bob123", Name: "Bob Johnson", Role: models.RoleEmployee, Department: "IT", Email: "bob@company.com"},
		{ID: 5, Username: "alice", Password: "alice123", Name: "Alice Williams", Role: models.RoleEmployee, Department: "HR", Email: "alice@company.com"},
	}
}

// Authenticate scans for a user whose username and password both match exactly.
// Every call runs exactly one bcrypt compare, so an unknown username fails
// in the same time as a wrong password.
func (d *Directory) Authenticate(username, password string) (models.User, bool) {
	idx, hash := -1, d.unknown
	for i, u := range d.users {
		if u.Username == username {
			idx, hash = i, d.hashes[i]
			break
		}
	}

	err := compareHash(hash, []byte(password))
	if idx < 0 || err != nil || len(password) > maxPasswordLen {
		return models.User{}, false
	}
	return d.users[idx], true
}

// ByName resolves a display name to the first user carrying it.
func (d *Directory) ByName(name string) (models.User, bool) {
	for _, u := range d.users {
		if u.Name == name {
			return u, true
		}
	}
	return models.User{}, false
}

// Users returns a copy of the seed in seed order, without passwords.
func (d *Directory) Users() []models.User {
	return append([]models.User(nil), d.users...)
}

// Departments lists the distinct departments, sorted.
func (d *Directory) Departments() []string {
	set := make(map[string]struct{})
	for _, u := range d.users {
		set[u.Department] = struct{}{}
	}

	departments := make([]string, 0, len(set))
	for dep := range set {
		departments = append(departments, dep)
	}
	sort.Strings(departments)
	return departments
}

func (d *Directory) Len() int {
	return len(d.users)
}
