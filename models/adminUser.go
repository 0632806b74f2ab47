package models

import "time"

// Admin role constants. Reviewers decide requests; admins also manage
// configuration and trigger scans.
const (
	AdminRoleAdmin    = "admin"
	AdminRoleReviewer = "reviewer"
)

type AdminUser struct {
	Admin_User_ID int       `json:"adminUserId" goqu:"skipinsert"`
	Username      string    `json:"username"`
	Password      string    `json:"-"`
	Email         string    `json:"email"`
	First_Name    string    `json:"firstName"`
	Role          string    `json:"role"`
	Is_Active     bool      `json:"isActive"`
	Created_At    time.Time `json:"createdAt" goqu:"skipinsert"`
	Updated_At    time.Time `json:"updatedAt" goqu:"skipinsert"`
}

type AdminLogin struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
