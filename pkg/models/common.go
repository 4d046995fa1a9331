package models

// SocketUser is the authenticated identity attached to a live connection.
type SocketUser struct {
	ConnID string
	UserID string
	Name   string
}
