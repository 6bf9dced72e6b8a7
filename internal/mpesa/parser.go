// Package mpesa extracts transaction drafts from M-Pesa confirmation SMS,
// so a client can pre-fill a record that carries the settlement reference.
package mpesa

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Confirmation is the payment detail carried by a confirmation message.
// Amount is in minor currency units (cents), negative when money left the
// account.
type Confirmation struct {
	Reference    string
	Amount       int64
	Counterparty string
	DateTime     time.Time
}

// Message variants observed in the wild:
// - "sent to" / "paid to" (outgoing) and "received from" (incoming)
// - optional trailing period after the counterparty, optional space before AM/PM
// - "PM.New M-PESA balance ..." with no space after the time
var confirmationRe = func() *regexp.Regexp {
	money := `Ksh([\d,]+(?:\.\d{1,2})?)`
	pattern := `(?i)^\s*(\w+)\s+Confirmed\.?\s*` + money +
		`\s+(sent to|paid to|received from)\s+(.*?)\s*\.?\s+on\s+` +
		`(\d{1,2}/\d{1,2}/\d{2})\s+at\s+(\d{1,2}:\d{2})\s?([AP]M)`
	return regexp.MustCompile(pattern)
}()

// ParseConfirmation parses a raw confirmation SMS into a Confirmation.
func ParseConfirmation(msg string) (*Confirmation, error) {
	matches := confirmationRe.FindStringSubmatch(msg)
	if matches == nil {
		return nil, fmt.Errorf("not a recognized M-Pesa confirmation message")
	}

	amount, err := parseMinorUnits(matches[2])
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	if !strings.EqualFold(matches[3], "received from") {
		amount = -amount
	}

	counterparty := strings.Join(strings.Fields(matches[4]), " ")

	dateTime, err := parseDateTime(matches[5], matches[6], matches[7])
	if err != nil {
		return nil, err
	}

	return &Confirmation{
		Reference:    strings.ToUpper(matches[1]),
		Amount:       amount,
		Counterparty: counterparty,
		DateTime:     dateTime,
	}, nil
}

// parseMinorUnits converts "1,234.5" to 123450 without going through a
// float.
func parseMinorUnits(s string) (int64, error) {
	s = strings.ReplaceAll(s, ",", "")
	whole, frac, _ := strings.Cut(s, ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	cents := int64(0)
	if frac != "" {
		for len(frac) < 2 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac[:2], 10, 64)
		if err != nil {
			return 0, err
		}
	}
	return units*100 + cents, nil
}

// parseDateTime handles the SMS format "17/9/25 at 6:56 PM" (day first,
// two-digit year).
func parseDateTime(date, clock, meridiem string) (time.Time, error) {
	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("failed to parse date %q", date)
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q", date)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q", date)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q", date)
	}

	stamp := fmt.Sprintf("%d-%02d-%02d %s %s", 2000+year, month, day, clock, strings.ToUpper(meridiem))
	dateTime, err := time.Parse("2006-01-02 3:04 PM", stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date/time: %w", err)
	}
	return dateTime, nil
}
