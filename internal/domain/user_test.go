package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewCustomerNormalisesEmail(t *testing.T) {
	user, err := NewCustomer("u-1", "Ada", "  Ada@Example.COM ", "", "1 Example St")
	if err != nil {
		t.Fatalf("new customer: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if user.Role != RoleCustomer {
		t.Fatalf("expected customer role, got %s", user.Role)
	}
	if user.DeliveryAddress != "1 Example St" {
		t.Fatalf("expected delivery address kept, got %q", user.DeliveryAddress)
	}
}

func TestNewUserValidation(t *testing.T) {
	if _, err := NewCustomer("", "Ada", "ada@example.com", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty id: expected ErrInvalidInput, got %v", err)
	}
	if _, err := NewCustomer("u-1", "", "ada@example.com", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty name: expected ErrInvalidInput, got %v", err)
	}
	for _, bad := range []string{"", "ada", "ada@", "@example.com", "ada@example", "a b@example.com"} {
		if _, err := NewCustomer("u-1", "Ada", bad, "", ""); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("email %q: expected ErrInvalidInput, got %v", bad, err)
		}
	}
}

func TestAdminPermissions(t *testing.T) {
	admin, err := NewAdmin("u-1", "Root", "root@example.com", "", []string{"orders", "products", "orders", "  "})
	if err != nil {
		t.Fatalf("new admin: %v", err)
	}
	if len(admin.Permissions) != 2 {
		t.Fatalf("expected deduped permissions, got %v", admin.Permissions)
	}
	if !admin.HasPermission("orders") || admin.HasPermission("reports") {
		t.Fatalf("unexpected permission state: %v", admin.Permissions)
	}

	admin.GrantPermission("reports")
	if !admin.HasPermission("reports") {
		t.Fatalf("expected reports granted")
	}
	admin.GrantPermission("reports")
	if len(admin.Permissions) != 3 {
		t.Fatalf("double grant must not duplicate: %v", admin.Permissions)
	}

	admin.RevokePermission("orders")
	if admin.HasPermission("orders") {
		t.Fatalf("expected orders revoked")
	}
}

func TestCustomerHasNoPermissions(t *testing.T) {
	customer, err := NewCustomer("u-1", "Ada", "ada@example.com", "", "")
	if err != nil {
		t.Fatalf("new customer: %v", err)
	}
	if customer.HasPermission("orders") {
		t.Fatalf("customers never have permissions")
	}
	customer.GrantPermission("orders")
	if len(customer.Permissions) != 0 {
		t.Fatalf("grant on a customer must be ignored")
	}
}

func TestRecordActionAndOrderHistory(t *testing.T) {
	admin, err := NewAdmin("u-1", "Root", "root@example.com", "", nil)
	if err != nil {
		t.Fatalf("new admin: %v", err)
	}
	admin.RecordAction("deleted product p-1")
	if !strings.HasSuffix(admin.LastAction, "deleted product p-1") {
		t.Fatalf("expected action recorded, got %q", admin.LastAction)
	}

	customer, err := NewCustomer("u-2", "Ada", "ada@example.com", "", "")
	if err != nil {
		t.Fatalf("new customer: %v", err)
	}
	customer.AddToOrderHistory("ord-1")
	customer.AddToOrderHistory("")
	if len(customer.OrderHistory) != 1 || customer.OrderHistory[0] != "ord-1" {
		t.Fatalf("unexpected order history: %v", customer.OrderHistory)
	}

	admin.AddToOrderHistory("ord-1")
	if len(admin.OrderHistory) != 0 {
		t.Fatalf("admins have no order history")
	}
}
