package issuance

// State is a step of one issuance. States only ever move forward.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSigning
	StateResolvingInstallation
	StateExchangingToken
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateValidating:
		return "Validating"
	case StateSigning:
		return "Signing"
	case StateResolvingInstallation:
		return "ResolvingInstallation"
	case StateExchangingToken:
		return "ExchangingToken"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// progress is reported to reporters implementing core.ProgressReporter when a state is entered.
var progress = map[State]struct {
	percent int
	message string
}{
	StateValidating:            {10, "Validating inputs"},
	StateSigning:               {25, "Signing app assertion"},
	StateResolvingInstallation: {50, "Resolving installation"},
	StateExchangingToken:       {75, "Creating installation access token"},
	StateDone:                  {100, "Installation access token created"},
}
