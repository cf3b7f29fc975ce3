package models

import (
	"time"
)

type AdminRole string

const (
	AdminRoleSuperAdmin AdminRole = "super_admin"
	AdminRoleManager    AdminRole = "manager"
	AdminRoleStaff      AdminRole = "staff"
)

func (r AdminRole) Valid() bool {
	switch r {
	case AdminRoleSuperAdmin, AdminRoleManager, AdminRoleStaff:
		return true
	}
	return false
}

type AdminPermissions struct {
	Products  bool `json:"products" dynamodbav:"products"`
	Orders    bool `json:"orders" dynamodbav:"orders"`
	Customers bool `json:"customers" dynamodbav:"customers"`
	Settings  bool `json:"settings" dynamodbav:"settings"`
	Admins    bool `json:"admins,omitempty" dynamodbav:"admins,omitempty"`
}

// FullPermissions is granted to seeded super admins.
func FullPermissions() AdminPermissions {
	return AdminPermissions{Products: true, Orders: true, Customers: true, Settings: true, Admins: true}
}

type Admin struct {
	ID           string           `json:"id" dynamodbav:"id"`
	Email        string           `json:"email" dynamodbav:"email"`
	Name         string           `json:"name" dynamodbav:"name"`
	Role         AdminRole        `json:"role" dynamodbav:"role"`
	Permissions  AdminPermissions `json:"permissions" dynamodbav:"permissions"`
	PasswordHash string           `json:"-" dynamodbav:"password_hash"`
	IsActive     bool             `json:"is_active" dynamodbav:"is_active"`
	LastLogin    *time.Time       `json:"last_login" dynamodbav:"last_login,omitempty"`
	CreatedAt    time.Time        `json:"created_at" dynamodbav:"created_at"`
}

func (a *Admin) GetPK() string {
	return "ADMIN#" + a.Email
}

func (a *Admin) GetSK() string {
	return "METADATA"
}

type Customer struct {
	ID        string    `json:"id" dynamodbav:"id"`
	Name      string    `json:"name" dynamodbav:"name"`
	Phone     string    `json:"phone" dynamodbav:"phone"`
	Email     string    `json:"email,omitempty" dynamodbav:"email,omitempty"`
	IsActive  bool      `json:"is_active" dynamodbav:"is_active"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

func (c *Customer) GetPK() string {
	return "CUSTOMER#" + c.Phone
}

func (c *Customer) GetSK() string {
	return "METADATA"
}
