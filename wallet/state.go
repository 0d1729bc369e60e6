package wallet

// State is the ordered provisioning stage of one threshold custody wallet.
// Chain adapters may skip stages that do not apply to their handshake, but a
// wallet never moves backwards.
type State int32

const (
	StateUnknown State = iota
	StatePrepared
	StateMade
	StateExchanged
	StateFinalized
	StateReadyToSend
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StatePrepared:
		return "prepared"
	case StateMade:
		return "made"
	case StateExchanged:
		return "exchanged"
	case StateFinalized:
		return "finalized"
	case StateReadyToSend:
		return "ready_to_send"
	default:
		return "invalid"
	}
}
