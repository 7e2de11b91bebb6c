package sso

import "github.com/baechuer/sso-service/internal/domain"

// OutcomeKind tags the terminal state of a sign-in attempt.
type OutcomeKind int

const (
	// OutcomeError means the attempt could not be decided (directory or provider failure).
	OutcomeError OutcomeKind = iota
	// OutcomeRejected means the identity is valid but may not sign in.
	OutcomeRejected
	// OutcomeAuthenticated means User is signed in.
	OutcomeAuthenticated
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeError:
		return "error"
	case OutcomeRejected:
		return "rejected"
	case OutcomeAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Rejection explains a refused sign-in to the user.
type Rejection struct {
	Code    string
	Message string
}

const (
	RejectEmailNotProvided = "email_not_provided"
	RejectNotInvited       = "not_invited"

	notInvitedMessage = "You haven't been invited by an admin yet."
)

// Outcome is the result of resolving a verified identity.
//
// A rejected outcome may carry no Rejection at all: disabled accounts are
// refused without a message, while missing emails and uninvited users get one.
type Outcome struct {
	Kind      OutcomeKind
	User      domain.User
	IsNew     bool
	Rejection *Rejection
	Err       error
}

func authenticated(u domain.User, isNew bool) Outcome {
	return Outcome{Kind: OutcomeAuthenticated, User: u, IsNew: isNew}
}

func rejected(r *Rejection) Outcome {
	return Outcome{Kind: OutcomeRejected, Rejection: r}
}

func failed(err error) Outcome {
	return Outcome{Kind: OutcomeError, Err: err}
}

// Label is the short outcome name used for metrics and audit records.
func (o Outcome) Label() string {
	switch o.Kind {
	case OutcomeAuthenticated:
		if o.IsNew {
			return "provisioned"
		}
		return "signed_in"
	case OutcomeRejected:
		if o.Rejection == nil {
			return "disabled"
		}
		return o.Rejection.Code
	default:
		return "error"
	}
}
