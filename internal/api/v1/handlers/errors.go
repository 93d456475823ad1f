package handlers

// Common error messages
const (
	ErrMsgInvalidReqBody = "Invalid request body"
	ErrMsgAuthRequired   = "Authentication required"
)

// Quotation error messages
const (
	ErrMsgQuoteIDRequired    = "Quotation id is required"
	ErrMsgJobIDRequired      = "Job id is required"
	ErrMsgInvalidQuoteStatus = "Invalid quotation status"
	ErrMsgQuoteListFailed    = "Failed to list quotations"
)

// Invitation error messages
const (
	ErrMsgInviteIDRequired    = "Invitation id is required"
	ErrMsgInvalidInviteStatus = "Invalid invitation status"
	ErrMsgInviteListFailed    = "Failed to list invitations"
	ErrMsgInviteStatsFailed   = "Failed to compute invitation stats"
)

// Metrics error messages
const (
	ErrMsgMetricsFailed = "Failed to get provider metrics"
)
