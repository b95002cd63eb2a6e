package testutil

import "github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"

// StandardActors returns the canned cast available to scenarios by
// default: a field agent, a registration agent, a local registrar, and
// a national admin, keyed by user ID.
//
// Callers get a fresh map on every call and may override or extend it.
func StandardActors() map[string]record.ActorContext {
	return map[string]record.ActorContext{
		"agent": {
			UserID: "agent",
			Role:   "FIELD_AGENT",
			Scopes: []record.Scope{record.ScopeNotify, record.ScopeDeclare},
		},
		"registration-agent": {
			UserID: "registration-agent",
			Role:   "REGISTRATION_AGENT",
			Scopes: []record.Scope{record.ScopeDeclare, record.ScopeValidate},
		},
		"registrar": {
			UserID: "registrar",
			Role:   "LOCAL_REGISTRAR",
			Scopes: []record.Scope{record.ScopeDeclare, record.ScopeValidate, record.ScopeRegister, record.ScopeCertify},
		},
		"admin": {
			UserID: "admin",
			Role:   "NATIONAL_ADMIN",
			Scopes: []record.Scope{record.ScopeValidate, record.ScopeRegisterElevated, record.ScopeCertify},
		},
	}
}
