package audithook

// Action constants for audit events.
const (
	// Balance actions
	ActionTransfer = "transfer.completed"
	ActionApproval = "approval.set"

	// Supply actions
	ActionMint = "supply.minted"
	ActionBurn = "supply.burned"

	// Fee actions
	ActionFeeCollected   = "fee.collected"
	ActionFeeRateChanged = "fee_rate.changed"
	ActionFeeRateReduced = "fee_rate.reduced"

	// Governance actions
	ActionExemptionGranted = "exemption.granted"
	ActionExemptionRevoked = "exemption.revoked"
	ActionRoleChanged      = "role.changed"
	ActionLogicUpgraded    = "logic.upgraded"
)

// Resource constants for audit events.
const (
	ResourceAccount   = "account"
	ResourceAllowance = "allowance"
	ResourceSupply    = "supply"
	ResourceFee       = "fee"
	ResourceToken     = "token"
)

// Category constants for audit events.
const (
	CategoryTransfer   = "transfer"
	CategorySupply     = "supply"
	CategoryFee        = "fee"
	CategoryGovernance = "governance"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
