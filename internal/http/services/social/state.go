package social

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// StateClaims es la intención local que viaja firmada como state hacia el IdP.
type StateClaims struct {
	Provider    string
	ClientID    string
	RedirectURI string
	Scope       string
	State       string // state original del RP
	Nonce       string // nonce enviado al IdP upstream
}

// StateAudience is the expected audience for federation state tokens.
const StateAudience = "federation-state"

// DefaultStateTTL cubre el ida y vuelta por el IdP externo.
const DefaultStateTTL = 10 * time.Minute

// StateSigner firma y verifica states.
type StateSigner interface {
	SignState(claims StateClaims) (string, error)
	ParseState(tokenString string) (*StateClaims, error)
}

// Errors for state operations.
var (
	ErrStateInvalid  = errors.New("invalid state token")
	ErrStateExpired  = errors.New("state token expired")
	ErrStateProvider = errors.New("state provider mismatch")
)

// IssuerAdapter adapts jwt.Issuer to StateSigner.
type IssuerAdapter struct {
	Issuer interface {
		SignRaw(claims jwtv5.MapClaims) (string, string, error)
		Keyfunc() jwtv5.Keyfunc
		Iss() string
	}
	StateTTL time.Duration
	now      func() time.Time
}

func (a *IssuerAdapter) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

// SignState signs a state JWT.
func (a *IssuerAdapter) SignState(claims StateClaims) (string, error) {
	ttl := a.StateTTL
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	now := a.clock().UTC()
	mapClaims := jwtv5.MapClaims{
		"iss":      a.Issuer.Iss(),
		"aud":      StateAudience,
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
		"provider": claims.Provider,
		"cid":      claims.ClientID,
		"redir":    claims.RedirectURI,
		"scope":    claims.Scope,
		"nonce":    claims.Nonce,
	}
	if claims.State != "" {
		mapClaims["st"] = claims.State
	}

	signed, _, err := a.Issuer.SignRaw(mapClaims)
	return signed, err
}

// ParseState parses and validates a state JWT.
func (a *IssuerAdapter) ParseState(tokenString string) (*StateClaims, error) {
	if tokenString == "" {
		return nil, ErrStateInvalid
	}
	tk, err := jwtv5.Parse(tokenString, a.Issuer.Keyfunc(),
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithIssuer(a.Issuer.Iss()),
		jwtv5.WithAudience(StateAudience),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithLeeway(30*time.Second),
		jwtv5.WithTimeFunc(a.clock),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrStateExpired
		}
		return nil, ErrStateInvalid
	}

	mapClaims, ok := tk.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrStateInvalid
	}
	claims := &StateClaims{
		Provider:    getString(mapClaims, "provider"),
		ClientID:    getString(mapClaims, "cid"),
		RedirectURI: getString(mapClaims, "redir"),
		Scope:       getString(mapClaims, "scope"),
		State:       getString(mapClaims, "st"),
		Nonce:       getString(mapClaims, "nonce"),
	}
	if claims.Provider == "" || claims.ClientID == "" || claims.RedirectURI == "" {
		return nil, ErrStateInvalid
	}
	return claims, nil
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
