package domain

import "strings"

// VehicleID is the backend's canonical record identifier for a vehicle.
type VehicleID string

// ProfileID identifies the authenticated user's profile record.
type ProfileID string

// StaffID identifies an admin staff account.
type StaffID string

// RecordIDLength is the length of a canonical record identifier (a 12-byte object id in hex).
const RecordIDLength = 24

// IsRecordID reports whether s has the canonical record-identifier shape:
// exactly RecordIDLength hexadecimal characters, either case.
func IsRecordID(s string) bool {
	if len(s) != RecordIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// NormalizeQuery trims surrounding whitespace from a user-supplied lookup string.
func NormalizeQuery(s string) string {
	return strings.TrimSpace(s)
}
