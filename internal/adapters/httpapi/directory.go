package httpapi

import (
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

type account struct {
	ID           string
	Name         string
	Username     string
	Mobile       string
	Email        string
	Role         string
	PasswordHash []byte
	CreatedAt    time.Time
}

type vehicleRecord struct {
	ID                 string
	VehicleNumber      string
	RegistrationNumber string
	PassNumber         string
	FlatNumber         string
	FlatOwnerName      string
	OwnerName          string
	OwnerContact       string
	AlternateContact   string
	Email              string
	DLOrRCNumber       string
	PermanentAddress   string
	VehicleType        string
	ValidTill          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Directory is the dev server's in-memory account and vehicle state.
type Directory struct {
	mu       sync.RWMutex
	accounts map[string]account
	vehicles map[string]vehicleRecord
	cost     int
}

type DirectoryOption func(*Directory)

// WithHashCost sets the bcrypt cost for new passwords.
func WithHashCost(cost int) DirectoryOption {
	return func(d *Directory) { d.cost = cost }
}

func NewDirectory(opts ...DirectoryOption) *Directory {
	d := &Directory{
		accounts: map[string]account{},
		vehicles: map[string]vehicleRecord{},
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// newRecordID returns a 24 hex character identifier.
func newRecordID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:12])
}

func (d *Directory) addAccount(a account, password string, now time.Time) (account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return account{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.accounts {
		if (a.Mobile != "" && existing.Mobile == a.Mobile) ||
			(a.Email != "" && strings.EqualFold(existing.Email, a.Email)) ||
			(a.Username != "" && strings.EqualFold(existing.Username, a.Username)) {
			return account{}, errDuplicate
		}
	}
	a.ID = newRecordID()
	a.PasswordHash = hash
	a.CreatedAt = now
	d.accounts[a.ID] = a
	return a, nil
}

// authenticate finds the account by mobile, email or username and checks password.
func (d *Directory) authenticate(identifier, password string) (account, error) {
	d.mu.RLock()
	var found *account
	for _, a := range d.accounts {
		if a.Mobile == identifier || (a.Email != "" && strings.EqualFold(a.Email, identifier)) || (a.Username != "" && strings.EqualFold(a.Username, identifier)) {
			a := a
			found = &a
			break
		}
	}
	d.mu.RUnlock()

	if found == nil {
		return account{}, errNotFound
	}
	if err := bcrypt.CompareHashAndPassword(found.PasswordHash, []byte(password)); err != nil {
		return account{}, errNotFound
	}
	return *found, nil
}

func (d *Directory) accountsWithRole(role string) []account {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]account, 0)
	for _, a := range d.accounts {
		if a.Role == role {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (d *Directory) deleteAccount(id, role string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.accounts[id]
	if !ok || a.Role != role {
		return errNotFound
	}
	delete(d.accounts, id)
	return nil
}

func (d *Directory) vehicleConflict(v vehicleRecord) bool {
	for _, existing := range d.vehicles {
		if existing.ID == v.ID {
			continue
		}
		if strings.EqualFold(existing.VehicleNumber, v.VehicleNumber) || strings.EqualFold(existing.PassNumber, v.PassNumber) {
			return true
		}
	}
	return false
}

func (d *Directory) createVehicle(v vehicleRecord, now time.Time) (vehicleRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.vehicleConflict(v) {
		return vehicleRecord{}, errDuplicate
	}
	v.ID = newRecordID()
	v.CreatedAt = now
	v.UpdatedAt = now
	d.vehicles[v.ID] = v
	return v, nil
}

func (d *Directory) updateVehicle(id string, fn func(*vehicleRecord) error, now time.Time) (vehicleRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.vehicles[id]
	if !ok {
		return vehicleRecord{}, errNotFound
	}
	if err := fn(&v); err != nil {
		return vehicleRecord{}, err
	}
	if d.vehicleConflict(v) {
		return vehicleRecord{}, errDuplicate
	}
	v.UpdatedAt = now
	d.vehicles[id] = v
	return v, nil
}

func (d *Directory) vehicle(id string) (vehicleRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.vehicles[id]
	if !ok {
		return vehicleRecord{}, errNotFound
	}
	return v, nil
}

func (d *Directory) deleteVehicle(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.vehicles[id]; !ok {
		return errNotFound
	}
	delete(d.vehicles, id)
	return nil
}

// listVehicles returns all vehicles, newest first.
func (d *Directory) listVehicles() []vehicleRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]vehicleRecord, 0, len(d.vehicles))
	for _, v := range d.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// search returns the exact vehicle or pass number hit, if any, else every record whose
// plate, pass, flat or owner contains q. Record identifiers are never matched.
func (d *Directory) search(q string) (exact *vehicleRecord, partial []vehicleRecord) {
	needle := strings.ToLower(q)
	for _, v := range d.listVehicles() {
		if strings.EqualFold(v.VehicleNumber, q) || strings.EqualFold(v.PassNumber, q) || strings.EqualFold(v.RegistrationNumber, q) {
			v := v
			return &v, nil
		}
		for _, field := range []string{v.VehicleNumber, v.RegistrationNumber, v.PassNumber, v.FlatNumber, v.OwnerName} {
			if field != "" && strings.Contains(strings.ToLower(field), needle) {
				partial = append(partial, v)
				break
			}
		}
	}
	return nil, partial
}
