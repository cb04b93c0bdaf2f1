package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID     = "user_id"
	fieldEmail      = "email"
	fieldUsername   = "username"
	fieldOTPCode    = "otp_code"
	fieldOTPExpiry  = "otp_expiry"
	fieldIsVerified = "is_verified"
	fieldUpdatedAt  = "updated_at"
	fieldGuardOwner = "owner_id"

	fieldLogID          = "log_id"
	fieldAthleteID      = "athlete_id"
	fieldCreatedAt      = "created_at"
	fieldActualDistance = "actual_distance"
	fieldActualDuration = "actual_duration"
)

const (
	indexEmail           = "email-index"
	indexUsername        = "username-index"
	indexAthleteByCreate = "athlete_id-created_at-index"
)

// guardPrefix starts the user_id of items that reserve a unique email or username.
const guardPrefix = "unique#"
