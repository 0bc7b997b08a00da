package models

const (
	RoleEmployer = "employer"
	RoleNanny    = "nanny"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusRejected  = "rejected"
)

const (
	MethodCash         = "cash"
	MethodBankTransfer = "bank_transfer"
)

const (
	RelationshipProposed = "proposed"
	RelationshipLinked   = "linked"
)

const (
	NotificationLinkRequest  = "link_request"
	NotificationLinkAccepted = "link_accepted"
	NotificationLinkRejected = "link_rejected"
)

const (
	NotificationUnread = "unread"
	NotificationRead   = "read"
)

const (
	// DateLayout is the storage format for calendar days.
	DateLayout = "2006-01-02"

	// TimeLayout is the storage format for wall-clock booking times.
	TimeLayout = "15:04"
)

const (
	// DefaultSummaryCacheTTL is the summary cache lifetime in seconds.
	DefaultSummaryCacheTTL = 5 * 60

	// WorkerBatchSize is how many change log rows the worker drains per pass.
	WorkerBatchSize = 50

	// DefaultSearchLimit caps relationship search results.
	DefaultSearchLimit = 20
)
