package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Actor identifies the authenticated caller of a request.
type Actor struct {
	UserID string
	Role   string
}

// User is a tagged variant: Role selects which payload applies. Customer
// fields are meaningful only for RoleCustomer, admin fields only for RoleAdmin.
type User struct {
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	// customer payload
	DeliveryAddress string   `json:"deliveryAddress,omitempty"`
	CartID          string   `json:"cartId,omitempty"`
	OrderHistory    []string `json:"orderHistory,omitempty"`

	// admin payload
	Permissions []string `json:"permissions,omitempty"`
	LastAction  string   `json:"lastAction,omitempty"`
}

func NewCustomer(userID, name, email, phone, deliveryAddress string) (User, error) {
	user, err := newUser(userID, RoleCustomer, name, email, phone)
	if err != nil {
		return User{}, err
	}
	user.DeliveryAddress = strings.TrimSpace(deliveryAddress)
	return user, nil
}

func NewAdmin(userID, name, email, phone string, permissions []string) (User, error) {
	user, err := newUser(userID, RoleAdmin, name, email, phone)
	if err != nil {
		return User{}, err
	}
	seen := make(map[string]struct{}, len(permissions))
	for _, perm := range permissions {
		perm = strings.TrimSpace(perm)
		if perm == "" {
			continue
		}
		if _, ok := seen[perm]; ok {
			continue
		}
		seen[perm] = struct{}{}
		user.Permissions = append(user.Permissions, perm)
	}
	sort.Strings(user.Permissions)
	return user, nil
}

func newUser(userID, role, name, email, phone string) (User, error) {
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if userID == "" {
		return User{}, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	if name == "" {
		return User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return User{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return User{
		UserID:    userID,
		Role:      role,
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(phone),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (u User) HasPermission(permission string) bool {
	if u.Role != RoleAdmin {
		return false
	}
	for _, perm := range u.Permissions {
		if perm == permission {
			return true
		}
	}
	return false
}

func (u *User) GrantPermission(permission string) {
	permission = strings.TrimSpace(permission)
	if permission == "" || u.Role != RoleAdmin || u.HasPermission(permission) {
		return
	}
	u.Permissions = append(u.Permissions, permission)
	sort.Strings(u.Permissions)
}

func (u *User) RevokePermission(permission string) {
	for i, perm := range u.Permissions {
		if perm == permission {
			u.Permissions = append(u.Permissions[:i], u.Permissions[i+1:]...)
			return
		}
	}
}

// RecordAction stamps the admin's last-action audit string.
func (u *User) RecordAction(action string) {
	if u.Role != RoleAdmin {
		return
	}
	u.LastAction = time.Now().UTC().Format(time.RFC3339) + " " + action
}

func (u *User) AddToOrderHistory(orderID string) {
	if u.Role != RoleCustomer || orderID == "" {
		return
	}
	u.OrderHistory = append(u.OrderHistory, orderID)
}
