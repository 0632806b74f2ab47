package models

import "time"

// Prayer status constants
const (
	PrayerStatusCurrent  = "current"
	PrayerStatusOngoing  = "ongoing"
	PrayerStatusAnswered = "answered"
	PrayerStatusClosed   = "closed"
)

type Prayer struct {
	Prayer_ID          int        `json:"prayerId" goqu:"skipinsert"`
	Name               string     `json:"name"`
	Email              string     `json:"email,omitempty"`
	Title              string     `json:"title"`
	Content            string     `json:"content"`
	Is_Anonymous       bool       `json:"isAnonymous"`
	Status             string     `json:"status"`
	Approval_Status    string     `json:"approvalStatus"`
	Last_Reminder_Sent *time.Time `json:"lastReminderSent,omitempty" goqu:"skipinsert"`
	Created_At         time.Time  `json:"createdAt" goqu:"skipinsert"`
	Updated_At         time.Time  `json:"updatedAt" goqu:"skipinsert"`
}

// Public strips the fields that must never leave the admin surface.
func (p Prayer) Public() Prayer {
	p.Email = ""
	p.Last_Reminder_Sent = nil
	if p.Is_Anonymous {
		p.Name = "Anonymous"
	}
	return p
}

// PrayerActivity is a prayer joined with the newest update written for it.
type PrayerActivity struct {
	Prayer
	Latest_Update *time.Time `json:"latestUpdate" db:"latest_update"`
}

// LastActivity is the later of the prayer's creation and its newest update.
func (p PrayerActivity) LastActivity() time.Time {
	if p.Latest_Update != nil && p.Latest_Update.After(p.Created_At) {
		return *p.Latest_Update
	}
	return p.Created_At
}

type PrayerUpdate struct {
	Prayer_Update_ID int       `json:"prayerUpdateId" goqu:"skipinsert"`
	Prayer_ID        int       `json:"prayerId"`
	Content          string    `json:"content"`
	Approval_Status  string    `json:"approvalStatus"`
	Created_At       time.Time `json:"createdAt" goqu:"skipinsert"`
}

type PrayerWithUpdates struct {
	Prayer  Prayer         `json:"prayer"`
	Updates []PrayerUpdate `json:"updates"`
}

type Subscriber struct {
	Subscriber_ID int       `json:"subscriberId" goqu:"skipinsert"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Is_Active     bool      `json:"isActive"`
	Created_At    time.Time `json:"createdAt" goqu:"skipinsert"`
	Updated_At    time.Time `json:"updatedAt" goqu:"skipinsert"`
}
