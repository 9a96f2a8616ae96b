package domain

import "fmt"

type Status string

const (
	StatusUnlimited    Status = "unlimited"
	StatusActive       Status = "active"
	StatusExpiresToday Status = "expires_today"
	StatusExpired      Status = "expired"
)

// ResolveStatus derives the membership status of m on the given day along
// with a human-readable remaining-time message.
func ResolveStatus(m Member, today Date) (Status, string) {
	if m.EndDate == nil {
		return StatusUnlimited, "unlimited membership"
	}

	remaining := m.EndDate.DaysSince(today)
	switch {
	case remaining < 0:
		return StatusExpired, fmt.Sprintf("expired %d days ago", -remaining)
	case remaining == 0:
		return StatusExpiresToday, "valid through today"
	default:
		return StatusActive, fmt.Sprintf("%d days left", remaining)
	}
}

func WelcomeMessage(name string) string {
	return fmt.Sprintf("Welcome, %s!", name)
}
