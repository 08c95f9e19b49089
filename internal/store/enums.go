package store

// User plan ENUMs
const (
	UserPlanTrial      = "trial"
	UserPlanStarter    = "starter"
	UserPlanBusiness   = "business"
	UserPlanEnterprise = "enterprise"
)

// Contact ENUMs
const (
	ContactStatusPending   = "pending"
	ContactStatusContacted = "contacted"
	ContactStatusPaid      = "paid"
)

const (
	ContactSourceManual = "manual"
	ContactSourceUpload = "upload"
)

// Template ENUMs
const (
	TemplateCategoryCollection = "cobranca"
)

// Campaign ENUMs
const (
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
)

const (
	CampaignTypeCollection = "cobranca"
)

// Message ENUMs
const (
	MessageDirectionOutbound = "outbound"
	MessageDirectionInbound  = "inbound"
)

const (
	MessageTypeText = "text"
)

const (
	MessageStatusSent   = "sent"
	MessageStatusFailed = "failed"
)
