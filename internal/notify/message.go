package notify

import (
	"fmt"
	"strings"
	"time"
)

// Outage describes a live channel that keeps failing to reconnect.
type Outage struct {
	Gateway   string
	Attempts  int
	Cursor    uint64
	LastError string
	Since     time.Time
}

// FormatDisconnectedMessage creates an outage notification body.
func FormatDisconnectedMessage(o Outage) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Gateway: %s\n", o.Gateway))
	sb.WriteString(fmt.Sprintf("Attempts: %d\n", o.Attempts))
	sb.WriteString(fmt.Sprintf("Cursor: %d\n", o.Cursor))
	sb.WriteString(fmt.Sprintf("Down for: %s", time.Since(o.Since).Round(time.Second)))

	if o.LastError != "" {
		sb.WriteString(fmt.Sprintf("\n\nError: %s", o.LastError))
	}

	return sb.String()
}

// FormatRecoveredMessage creates a recovery notification body.
func FormatRecoveredMessage(gateway string, downtime time.Duration, cursor uint64) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Gateway: %s\n", gateway))
	sb.WriteString(fmt.Sprintf("Downtime: %s\n", downtime.Round(time.Second)))
	sb.WriteString(fmt.Sprintf("Resumed from: %d", cursor))

	return sb.String()
}
