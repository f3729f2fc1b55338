package main

import (
	"fmt"
	"strings"
	"time"
)

func (s *shell) journalReady() bool {
	if s.journal == nil || s.journal.Ping() != nil {
		fmt.Printf("  %s[x] notification db not reachable%s\n", Red, Reset)
		return false
	}
	return true
}

func (s *shell) showNotifications() {
	if !s.journalReady() {
		return
	}

	rows, err := s.journal.Query(`SELECT event_id, event_type, kind, user_id, COALESCE(user_email, ''), sent_at
		FROM notification_log ORDER BY sent_at DESC LIMIT 20`)
	if err != nil {
		fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
		return
	}
	defer rows.Close()

	fmt.Printf("  %s%-38s %-14s %-8s %-26s %-25s %s%s\n", Bold, "EVENT_ID", "TYPE", "KIND", "USER", "EMAIL", "TIME", Reset)
	fmt.Printf("  %s%s%s\n", Dim, strings.Repeat("-", 125), Reset)
	for rows.Next() {
		var eventID, eventType, kind, userID, email string
		var sentAt time.Time
		if err := rows.Scan(&eventID, &eventType, &kind, &userID, &email, &sentAt); err != nil {
			fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
			return
		}
		fmt.Printf("  %-38s %-14s %-8s %-26s %-25s %s\n",
			eventID, eventType, kind, userID, email, sentAt.Format("15:04:05"))
	}
}

func (s *shell) showStats() {
	if !s.journalReady() {
		return
	}

	rows, err := s.journal.Query(`SELECT stat_date, kind, count
		FROM notification_stats ORDER BY stat_date DESC, kind LIMIT 30`)
	if err != nil {
		fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
		return
	}
	defer rows.Close()

	fmt.Printf("  %s%-12s %-10s %s%s\n", Bold, "DATE", "KIND", "COUNT", Reset)
	fmt.Printf("  %s%s%s\n", Dim, strings.Repeat("-", 45), Reset)
	for rows.Next() {
		var date time.Time
		var kind string
		var count int
		if err := rows.Scan(&date, &kind, &count); err != nil {
			fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
			return
		}
		bar := strings.Repeat("#", min(count, 40))
		fmt.Printf("  %-12s %-10s %s%s%s %d\n", date.Format("2006-01-02"), kind, Green, bar, Reset, count)
	}
}
