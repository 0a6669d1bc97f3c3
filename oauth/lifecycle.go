package oauth

import (
	"fmt"
	"time"

	"github.com/playstats/playstats/pkg/apperr"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// State is the position of a browser in the token lifecycle.
type State int

const (
	Unauthenticated State = iota
	AwaitingCallback
	Authenticated
	Expired
	Refreshing
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case AwaitingCallback:
		return "awaiting_callback"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	case Refreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Event int

const (
	EventAuthorize Event = iota
	EventCallbackValid
	EventCallbackInvalid
	EventTokenExpired
	EventRefreshStarted
	EventRefreshSucceeded
	EventRefreshFailed
)

func (e Event) String() string {
	switch e {
	case EventAuthorize:
		return "authorize"
	case EventCallbackValid:
		return "valid_code_and_state"
	case EventCallbackInvalid:
		return "invalid_callback"
	case EventTokenExpired:
		return "token_expired"
	case EventRefreshStarted:
		return "refresh_started"
	case EventRefreshSucceeded:
		return "refresh_succeeded"
	case EventRefreshFailed:
		return "refresh_failed"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

type transitionKey struct {
	from  State
	event Event
}

var transitions = map[transitionKey]State{
	{Unauthenticated, EventAuthorize}:        AwaitingCallback,
	{AwaitingCallback, EventAuthorize}:       AwaitingCallback,
	{AwaitingCallback, EventCallbackValid}:   Authenticated,
	{AwaitingCallback, EventCallbackInvalid}: Unauthenticated,
	{Authenticated, EventTokenExpired}:       Expired,
	{Authenticated, EventAuthorize}:          AwaitingCallback,
	{Expired, EventRefreshStarted}:           Refreshing,
	{Expired, EventRefreshSucceeded}:         Authenticated,
	{Expired, EventRefreshFailed}:            Unauthenticated,
	{Expired, EventAuthorize}:                AwaitingCallback,
	{Refreshing, EventRefreshSucceeded}:      Authenticated,
	{Refreshing, EventRefreshFailed}:         Unauthenticated,
}

// Transition returns the state reached from s on e, or ErrInvalidTransition.
func Transition(s State, e Event) (State, error) {
	next, ok := transitions[transitionKey{s, e}]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", apperr.ErrInvalidTransition, e, s)
	}
	return next, nil
}

// DeriveState classifies a request from the tokens it carries and whether a
// state nonce is pending.
func DeriveState(tok *oauth2.Token, hasPendingState bool, now time.Time) State {
	switch {
	case tok != nil && AccessTokenValid(tok, now):
		return Authenticated
	case tok != nil && tok.RefreshToken != "":
		return Expired
	case hasPendingState:
		return AwaitingCallback
	default:
		return Unauthenticated
	}
}

// AccessTokenValid reports whether tok carries an access token that has not
// expired at now. A zero expiry counts as valid.
func AccessTokenValid(tok *oauth2.Token, now time.Time) bool {
	if tok == nil || tok.AccessToken == "" {
		return false
	}
	return tok.Expiry.IsZero() || now.Before(tok.Expiry)
}

// Lifecycle tracks one request's walk through the state machine.
type Lifecycle struct {
	state  State
	logger *zap.Logger
}

func NewLifecycle(initial State, logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{state: initial, logger: logger}
}

func (l *Lifecycle) State() State {
	return l.state
}

// Fire applies e. On an illegal transition the state is left unchanged.
func (l *Lifecycle) Fire(e Event) error {
	next, err := Transition(l.state, e)
	if err != nil {
		l.logger.Warn("rejected token lifecycle transition",
			zap.Stringer("state", l.state), zap.Stringer("event", e))
		return err
	}
	l.logger.Debug("token lifecycle transition",
		zap.Stringer("from", l.state), zap.Stringer("event", e), zap.Stringer("to", next))
	l.state = next
	return nil
}
