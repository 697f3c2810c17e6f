package anniversary

import (
	"fmt"
	"strings"
)

type DateType int

const (
	Birthday DateType = iota
	Anniversary
	Custom
)

var dateTypeNames = []string{"Birthday", "Anniversary", "Custom"}

func (d DateType) String() string { return enumName(dateTypeNames, int(d)) }

func (d DateType) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *DateType) UnmarshalText(b []byte) error {
	i, err := parseEnum(dateTypeNames, "date type", string(b))
	*d = DateType(i)
	return err
}

type RecurrencePattern int

const (
	OneTime RecurrencePattern = iota
	Annual
)

var recurrenceNames = []string{"OneTime", "Annual"}

func (r RecurrencePattern) String() string { return enumName(recurrenceNames, int(r)) }

func (r RecurrencePattern) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *RecurrencePattern) UnmarshalText(b []byte) error {
	i, err := parseEnum(recurrenceNames, "recurrence pattern", string(b))
	*r = RecurrencePattern(i)
	return err
}

type DeliveryChannel int

const (
	Email DeliveryChannel = iota
	SMS
	Push
)

var channelNames = []string{"Email", "SMS", "Push"}

func (c DeliveryChannel) String() string { return enumName(channelNames, int(c)) }

type ReminderStatus int

const (
	ReminderScheduled ReminderStatus = iota
	ReminderSent
	ReminderCancelled
)

var reminderStatusNames = []string{"Scheduled", "Sent", "Cancelled"}

func (s ReminderStatus) String() string { return enumName(reminderStatusNames, int(s)) }

type GiftStatus int

const (
	GiftIdea GiftStatus = iota
	GiftPurchased
	GiftWrapped
	GiftDelivered
)

var giftStatusNames = []string{"Idea", "Purchased", "Wrapped", "Delivered"}

func (s GiftStatus) String() string { return enumName(giftStatusNames, int(s)) }

type CelebrationStatus int

const (
	CelebrationPlanned CelebrationStatus = iota
	CelebrationCompleted
	CelebrationCancelled
)

var celebrationStatusNames = []string{"Planned", "Completed", "Cancelled"}

func (s CelebrationStatus) String() string { return enumName(celebrationStatusNames, int(s)) }

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("Unknown(%d)", i)
	}
	return names[i]
}

func parseEnum(names []string, what, s string) (int, error) {
	s = strings.TrimSpace(s)
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", what, s)
}
