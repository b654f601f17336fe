package specstore

import "errors"

// Common spec store errors.
var (
	// ErrNotFound is returned when a spec entry or proposal is not found.
	ErrNotFound = errors.New("entry not found")
	// ErrApprovalRequired is returned when a privileged operation is
	// attempted without explicit approval.
	ErrApprovalRequired = errors.New("explicit approval required")
	// ErrSealed is returned when a mutation is attempted on a sealed store.
	ErrSealed = errors.New("spec store is sealed")
	// ErrAlreadySealed is returned when seal is called on a sealed store.
	ErrAlreadySealed = errors.New("spec store is already sealed")
	// ErrProposalExists is returned when a proposal id collides.
	ErrProposalExists = errors.New("proposal already exists")
	// ErrProposalApplied is returned when a proposal is applied twice.
	ErrProposalApplied = errors.New("proposal already applied")
	// ErrProposalClosed is returned when a rejected proposal is applied
	// or rejected again.
	ErrProposalClosed = errors.New("proposal already rejected")
)
