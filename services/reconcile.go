package services

import (
	"math"

	"github.com/Dosada05/festival-teams/models"
	"github.com/google/uuid"
)

// eventScope holds the three keys a payment record may carry for a team's event:
// the catalog's stable event id, the team's event reference, and the team name.
type eventScope struct {
	eventID  string
	eventRef string
	teamName string
}

func newEventScope(team *models.Team, event *models.Event) eventScope {
	sc := eventScope{eventRef: team.EventRef, teamName: team.Name}
	if event != nil {
		sc.eventID = event.Key
	}
	return sc
}

func (sc eventScope) matches(key string) bool {
	if key == "" {
		return false
	}
	return key == sc.eventID || key == sc.eventRef || key == sc.teamName
}

func (sc eventScope) keys() []string {
	keys := make([]string, 0, 3)
	seen := make(map[string]bool, 3)
	for _, k := range []string{sc.eventID, sc.eventRef, sc.teamName} {
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// matchTeamPayments keeps PAID records of active members whose event key is in scope.
func matchTeamPayments(records []models.PaymentRecord, members []models.TeamMember, scope eventScope) []models.PaymentRecord {
	memberIDs := make(map[uuid.UUID]bool, len(members))
	for _, m := range members {
		memberIDs[m.UserID] = true
	}

	matched := make([]models.PaymentRecord, 0, len(records))
	for _, rec := range records {
		if rec.PaymentStatus != models.PaymentPaid || !memberIDs[rec.UserID] || !scope.matches(rec.EventKey) {
			continue
		}
		matched = append(matched, rec)
	}
	return matched
}

func newTeamView(team *models.Team, members []models.TeamMember) *models.ReconciledTeamView {
	return &models.ReconciledTeamView{
		Team:              team,
		Members:           members,
		ActiveMemberCount: len(members),
		RegistrationState: models.RegistrationUnregistered,
		NewMembersToPay:   0,
	}
}

// applyPayments fills the registration fields of view from the matched records.
func applyPayments(view *models.ReconciledTeamView, matched []models.PaymentRecord, event *models.Event) {
	paid := make(map[uuid.UUID]bool, len(matched))
	var best *models.PaymentRecord
	for i := range matched {
		rec := &matched[i]
		paid[rec.UserID] = true
		// max, not sum: one bulk transaction covers several slots. Two independent PAID
		// records with different amounts (a top-up) would be under-reported here.
		if rec.PaymentAmount != nil && (best == nil || best.PaymentAmount == nil || *rec.PaymentAmount > *best.PaymentAmount) {
			best = rec
		}
		if best == nil {
			best = rec
		}
	}

	view.RegisteredCount = len(paid)
	if view.RegisteredCount == 0 || view.ActiveMemberCount == 0 {
		view.RegisteredCount = 0
		return
	}

	view.IsRegistered = true
	status := models.PaymentPaid
	view.RegistrationStatus = &status
	if best.PaymentAmount != nil {
		amount := *best.PaymentAmount
		view.TeamPaymentAmount = &amount
	}
	view.TransactionID = best.TransactionID
	if view.TransactionID == nil {
		for _, rec := range matched {
			if rec.TransactionID != nil {
				view.TransactionID = rec.TransactionID
				break
			}
		}
	}

	view.PaidMemberIDs = make([]uuid.UUID, 0, len(paid))
	for _, m := range view.Members {
		if paid[m.UserID] {
			view.PaidMemberIDs = append(view.PaidMemberIDs, m.UserID)
		}
	}

	view.PaidSlots = paidSlots(view.TeamPaymentAmount, view.RegisteredCount, event)
	if view.PaidSlots >= view.ActiveMemberCount {
		view.RegistrationState = models.RegistrationFull
		view.NewMembersToPay = 0
	} else {
		view.RegistrationState = models.RegistrationPartial
		view.NewMembersToPay = view.ActiveMemberCount - view.PaidSlots
	}
}

// paidSlots is the number of member slots covered by the team payment. Without a known
// per-member price only the members with their own PAID record count.
func paidSlots(amount *float64, registeredCount int, event *models.Event) int {
	if amount == nil || event == nil || event.PricePerMember <= 0 {
		return registeredCount
	}
	slots := int(math.Floor(*amount/event.PricePerMember + 1e-9))
	if slots < registeredCount {
		return registeredCount
	}
	return slots
}
