package services

import (
	"errors"
	"fmt"
)

// Категории ошибок. Каждая ошибка сервисов оборачивает ровно одну из них,
// поэтому вызывающий код проверяет errors.Is(err, ErrCapacity) и т.п.
var (
	ErrValidation     = errors.New("validation error")
	ErrCapacity       = errors.New("capacity error")
	ErrConflict       = errors.New("conflict")
	ErrInvariant      = errors.New("invariant violation")
	ErrStateConflict  = errors.New("state conflict")
	ErrExternalSource = errors.New("external source error")
	ErrNotFound       = errors.New("requested resource not found")
	ErrForbidden      = errors.New("operation not allowed for the current user")
	ErrUnavailable    = errors.New("feature is not configured")
)

func kindError(kind error, message string) error {
	return fmt.Errorf("%w: %s", kind, message)
}

var (
	ErrTeamNameRequired    = kindError(ErrValidation, "team name is required")
	ErrEventRefRequired    = kindError(ErrValidation, "event reference is required")
	ErrInvalidTeamSize     = kindError(ErrValidation, "max members is outside the event team size limits")
	ErrSearchQueryTooShort = kindError(ErrValidation, "search query must be at least 2 characters")
	ErrUserIDRequired      = kindError(ErrValidation, "user id is required")
	ErrMessageTooLong      = kindError(ErrValidation, "message must not be longer than 500 characters")

	ErrTeamFull             = kindError(ErrCapacity, "team is full")
	ErrNoFreeSlots          = kindError(ErrCapacity, "team has no free slots, pending invitations reserve the rest")
	ErrTeamSizeBelowMembers = kindError(ErrCapacity, "max members cannot be lower than active members plus pending invitations")

	ErrLeaderHasTeam     = kindError(ErrConflict, "you already lead an active team for this event")
	ErrTeamNameConflict  = kindError(ErrConflict, "team name is already taken for this event")
	ErrAlreadyMember     = kindError(ErrConflict, "user is already a member of the team")
	ErrInvitationExists  = kindError(ErrConflict, "user already has a pending invitation to this team")
	ErrSelfInvitation    = kindError(ErrConflict, "cannot invite yourself")
	ErrJoinRequestExists = kindError(ErrConflict, "you already have a pending request for this team")
	ErrAlreadyRegistered = kindError(ErrConflict, "team is already fully registered")

	ErrCannotRemoveLeader = kindError(ErrInvariant, "team leader cannot be removed")
	ErrTeamDisbanded      = kindError(ErrInvariant, "team is disbanded")
	ErrTeamTooSmall       = kindError(ErrInvariant, "team does not have enough members to register")
	ErrNothingToPay       = kindError(ErrInvariant, "event has no price set for team members")
	ErrRegisteredRename   = kindError(ErrInvariant, "registered team cannot be renamed")

	ErrInvitationNotPending  = kindError(ErrStateConflict, "invitation is no longer pending")
	ErrJoinRequestNotPending = kindError(ErrStateConflict, "join request is no longer pending")

	ErrPaymentSourceUnavailable = kindError(ErrExternalSource, "payment records are unavailable")
	ErrEventCatalogUnavailable  = kindError(ErrExternalSource, "event catalog is unavailable")
	ErrPaymentInitiationFailed  = kindError(ErrExternalSource, "payment initiation failed")
	ErrReportUploadFailed       = kindError(ErrExternalSource, "failed to upload team report")

	ErrTeamNotFound        = kindError(ErrNotFound, "team not found")
	ErrUserNotFound        = kindError(ErrNotFound, "user not found")
	ErrMemberNotFound      = kindError(ErrNotFound, "user is not an active member of the team")
	ErrInvitationNotFound  = kindError(ErrNotFound, "invitation not found")
	ErrJoinRequestNotFound = kindError(ErrNotFound, "join request not found")

	ErrLeaderOnly    = kindError(ErrForbidden, "only the team leader can perform this action")
	ErrInviteeOnly   = kindError(ErrForbidden, "only the invited user can respond to this invitation")
	ErrRequesterOnly = kindError(ErrForbidden, "only the requester can cancel this join request")
	ErrLeaderOrSelf  = kindError(ErrForbidden, "only the team leader or the member themselves can remove a member")
	ErrNotTeamMember = kindError(ErrForbidden, "you are not a member of this team")
	ErrAdminOnly     = kindError(ErrForbidden, "administrator role required")

	ErrPaymentGatewayDisabled = kindError(ErrUnavailable, "payment gateway is not configured")
	ErrReportStorageDisabled  = kindError(ErrUnavailable, "report storage is not configured")
)
